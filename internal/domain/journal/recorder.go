package journal

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Avflux/Av-sub001/internal/calendar"
	"github.com/Avflux/Av-sub001/internal/domain/activity"
	"github.com/Avflux/Av-sub001/internal/observer"
)

const recordTimeout = 5 * time.Second

// Recorder turns bus notifications into journal entries. It performs
// storage I/O on the calling goroutine, so it is meant to be wrapped in
// observer.Async.
type Recorder struct {
	observer.Base

	svc *Service

	mu       sync.Mutex
	current  *activity.Info
	statuses map[string]activity.Status
	lastTick observer.TimerTick
}

// NewRecorder creates a recorder writing through svc.
func NewRecorder(svc *Service) *Recorder {
	return &Recorder{svc: svc, statuses: make(map[string]activity.Status)}
}

func (r *Recorder) OnTimerTick(tick observer.TimerTick) error {
	r.mu.Lock()
	r.lastTick = tick
	r.mu.Unlock()
	return nil
}

func (r *Recorder) OnActivityStatusChanged(info *activity.Info) error {
	r.mu.Lock()
	if info == nil {
		prev := r.current
		tick := r.lastTick
		r.current = nil
		if prev != nil {
			delete(r.statuses, prev.ID)
		}
		r.mu.Unlock()
		if prev == nil {
			return nil
		}
		return r.log(prev.UserID, &prev.ID, TypeTimerStopped, "Stopped "+prev.Name, map[string]string{
			"total": calendar.FormatDuration(tick.TotalElapsed),
		})
	}

	copied := *info
	r.current = &copied
	previous, seen := r.statuses[info.ID]
	r.statuses[info.ID] = info.Status
	r.mu.Unlock()

	var entryType EntryType
	var summary string
	switch info.Status {
	case activity.StatusActive:
		entryType, summary = TypeTimerStarted, "Started "+info.Name
		if seen && previous == activity.StatusPaused {
			entryType, summary = TypeTimerResumed, "Resumed "+info.Name
		}
	case activity.StatusPaused:
		entryType, summary = TypeTimerPaused, "Paused "+info.Name
	default:
		return nil
	}
	return r.log(info.UserID, &copied.ID, entryType, summary, map[string]string{"mode": string(info.Mode)})
}

func (r *Recorder) OnTimeExceeded(info activity.Info) error {
	return r.log(info.UserID, &info.ID, TypeTimeExceeded, "Estimate exceeded for "+info.Name, map[string]string{
		"end_time": info.EndTime.Format(time.RFC3339),
	})
}

func (r *Recorder) OnIdleStatusChanged(status observer.IdleStatus) error {
	r.mu.Lock()
	current := r.current
	r.mu.Unlock()
	if current == nil {
		return nil
	}

	entryType, summary := TypeIdleEnded, "Input resumed"
	if status == observer.IdleStatusIdle {
		entryType, summary = TypeIdleStarted, "No input detected"
	}
	return r.log(current.UserID, &current.ID, entryType, summary, nil)
}

func (r *Recorder) log(userID string, activityID *string, entryType EntryType, summary string, details map[string]string) error {
	entry := &Entry{
		UserID:     userID,
		ActivityID: activityID,
		Type:       entryType,
		Summary:    summary,
	}
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			return err
		}
		entry.Details = string(raw)
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	return r.svc.Log(ctx, entry)
}
