// Package tracker coordinates the activity timer, the daily accumulator and
// the idle monitor behind a single command surface.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Avflux/Av-sub001/internal/calendar"
	"github.com/Avflux/Av-sub001/internal/daily"
	"github.com/Avflux/Av-sub001/internal/domain/activity"
	"github.com/Avflux/Av-sub001/internal/timer"
)

// IdleSource is the part of the idle monitor the tracker reads and flushes.
type IdleSource interface {
	GetAccumulatedIdleTime() time.Duration
	ResetAccumulatedIdleTime()
	IsIdle() bool
}

// Config wires the tracker's collaborators. Idle may be nil when idle
// detection is disabled.
type Config struct {
	Activities *activity.Service
	Engine     *timer.Engine
	Daily      *daily.Accumulator
	Idle       IdleSource
	Logger     *slog.Logger
}

// Tracker serializes user commands across the engine, the daily
// accumulator and the idle monitor.
type Tracker struct {
	mu sync.Mutex

	activities *activity.Service
	engine     *timer.Engine
	daily      *daily.Accumulator
	idle       IdleSource
	logger     *slog.Logger

	storedIdle time.Duration
}

// New creates a tracker.
func New(config Config) *Tracker {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Tracker{
		activities: config.Activities,
		engine:     config.Engine,
		daily:      config.Daily,
		idle:       config.Idle,
		logger:     logger,
	}
}

// Status is a point-in-time view of the tracker.
type Status struct {
	Phase          timer.Phase    `json:"phase"`
	Activity       *activity.Info `json:"activity,omitempty"`
	Mode           activity.Mode  `json:"mode,omitempty"`
	TimerValue     time.Duration  `json:"-"`
	TimerDisplay   string         `json:"timer"`
	TotalElapsed   time.Duration  `json:"-"`
	TotalDisplay   string         `json:"total"`
	IdleTime       time.Duration  `json:"-"`
	IdleDisplay    string         `json:"idle"`
	Productive     time.Duration  `json:"-"`
	ProductiveText string         `json:"productive"`
	IsIdle         bool           `json:"is_idle"`
	Daily          time.Duration  `json:"-"`
	DailyDisplay   string         `json:"daily"`
	DailyUserID    string         `json:"-"`
}

// StartActivity loads the activity and starts its timer and the daily
// timer.
func (t *Tracker) StartActivity(ctx context.Context, userID, id string) (*activity.Info, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	act, err := t.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := t.engine.Start(ctx, act); err != nil {
		return nil, err
	}
	t.startDaily(ctx, act.UserID)
	t.storedIdle = act.IdleTime
	if t.idle != nil {
		t.idle.ResetAccumulatedIdleTime()
	}

	info := act.Info()
	info.Status = activity.StatusActive
	return &info, nil
}

// PauseActivity pauses the running activity and the daily timer, then
// flushes the idle bank to the activity.
func (t *Tracker) PauseActivity(ctx context.Context, userID string) (*activity.Info, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.engine.Snapshot()
	if err := t.checkBound(snap, userID); err != nil {
		return nil, err
	}
	if err := t.engine.Pause(ctx); err != nil {
		return nil, err
	}
	t.daily.PauseDailyTimer(ctx)
	t.flushIdle(ctx, snap.Activity.ID)

	info := *snap.Activity
	info.Status = activity.StatusPaused
	return &info, nil
}

// ResumeActivity resumes a paused activity. Idle time observed while
// paused is discarded.
func (t *Tracker) ResumeActivity(ctx context.Context, userID, id string) (*activity.Info, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	act, err := t.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := t.engine.Resume(ctx, id); err != nil {
		return nil, err
	}
	t.startDaily(ctx, act.UserID)
	t.storedIdle = act.IdleTime
	if t.idle != nil {
		t.idle.ResetAccumulatedIdleTime()
	}

	snap := t.engine.Snapshot()
	return snap.Activity, nil
}

// StopActivity stops the bound activity and concludes it. A reason is
// required once the estimate was exceeded; when that is only discovered at
// the final pause point the activity is left paused.
func (t *Tracker) StopActivity(ctx context.Context, userID, reason string) (*activity.Activity, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.engine.Snapshot()
	if err := t.checkBound(snap, userID); err != nil {
		return nil, err
	}
	if err := activity.ValidateConclusion(&activity.Activity{TimeExceeded: snap.Columns.TimeExceeded}, reason); err != nil {
		return nil, err
	}

	if snap.Phase != timer.PhasePaused {
		if err := t.engine.Pause(ctx); err != nil {
			return nil, err
		}
		t.daily.PauseDailyTimer(ctx)
		snap = t.engine.Snapshot()
		if err := activity.ValidateConclusion(&activity.Activity{TimeExceeded: snap.Columns.TimeExceeded}, reason); err != nil {
			t.flushIdle(ctx, snap.Activity.ID)
			return nil, err
		}
	}

	t.flushIdle(ctx, snap.Activity.ID)
	final, err := t.engine.Stop(ctx)
	if err != nil {
		return nil, err
	}
	if err := t.activities.Conclude(ctx, final.ID, reason); err != nil {
		return nil, fmt.Errorf("concluding activity: %w", err)
	}

	final.Status = activity.StatusCompleted
	final.IdleTime = t.storedIdle
	t.storedIdle = 0
	if r := reason; r != "" {
		final.Reason = &r
	}
	t.logger.Info("activity stopped", "activity_id", final.ID, "total", calendar.FormatDuration(final.TotalTime))
	return final, nil
}

// RestoreActive rebinds an activity left active by an interrupted process.
// It reports the restored activity, or nil when there was none.
func (t *Tracker) RestoreActive(ctx context.Context, userID string) (*activity.Info, error) {
	status := activity.StatusActive
	acts, err := t.activities.List(ctx, activity.ListOptions{UserID: userID, Status: &status, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("listing active activities: %w", err)
	}
	if len(acts) == 0 {
		return nil, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	act := acts[0]
	if err := t.engine.Start(ctx, &act); err != nil {
		return nil, err
	}
	t.startDaily(ctx, act.UserID)
	t.storedIdle = act.IdleTime
	t.logger.Info("restored running activity", "activity_id", act.ID, "total", calendar.FormatDuration(act.TotalTime))

	info := act.Info()
	return &info, nil
}

// Shutdown pauses a running activity so that its timer, its idle time and
// the daily total reach storage before the process exits. A paused or
// unbound engine is left alone.
func (t *Tracker) Shutdown(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.engine.Snapshot()
	if snap.Activity == nil || snap.Phase == timer.PhasePaused {
		return
	}
	if err := t.engine.Pause(ctx); err != nil {
		t.logger.Warn("pause on shutdown failed", "activity_id", snap.Activity.ID, "error", err)
		return
	}
	t.daily.PauseDailyTimer(ctx)
	t.flushIdle(ctx, snap.Activity.ID)
	t.logger.Info("paused running activity on shutdown", "activity_id", snap.Activity.ID)
}

// Status returns the current timer, idle and daily figures.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.engine.Snapshot()
	st := Status{
		Phase:       snap.Phase,
		Activity:    snap.Activity,
		Mode:        snap.Mode,
		TimerValue:  snap.TimerValue,
		Daily:       t.daily.Accumulated(),
		DailyUserID: t.daily.UserID(),
	}
	if snap.Activity != nil {
		st.TotalElapsed = snap.TotalElapsed
		st.IdleTime = t.storedIdle
		if t.idle != nil {
			st.IdleTime += t.idle.GetAccumulatedIdleTime()
		}
	}
	if t.idle != nil {
		st.IsIdle = t.idle.IsIdle()
	}
	st.Productive = st.TotalElapsed - st.IdleTime
	if st.Productive < 0 {
		st.Productive = 0
	}

	st.TimerDisplay = calendar.FormatDisplay(st.TimerValue, st.Mode == activity.ModeProgressive)
	st.TotalDisplay = calendar.FormatDuration(st.TotalElapsed)
	st.IdleDisplay = calendar.FormatDuration(st.IdleTime)
	st.ProductiveText = calendar.FormatDuration(st.Productive)
	st.DailyDisplay = calendar.FormatDuration(st.Daily)
	return st
}

// DailyTotal returns today's accumulated business time of the user the
// daily timer is bound to.
func (t *Tracker) DailyTotal() time.Duration {
	return t.daily.Accumulated()
}

// DailyTotalFor returns today's accumulated business time of userID.
func (t *Tracker) DailyTotalFor(ctx context.Context, userID string) (time.Duration, error) {
	return t.daily.TotalFor(ctx, userID)
}

// startDaily binds the daily timer to the activity's user and starts it.
func (t *Tracker) startDaily(ctx context.Context, userID string) {
	if err := t.daily.SwitchUser(ctx, userID); err != nil {
		t.logger.Warn("daily total not switched", "user_id", userID, "error", err)
	}
	t.daily.StartDailyTimer()
}

func (t *Tracker) owned(ctx context.Context, userID, id string) (*activity.Activity, error) {
	act, err := t.activities.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if userID != "" && act.UserID != userID {
		return nil, activity.ErrActivityNotFound
	}
	return act, nil
}

func (t *Tracker) checkBound(snap timer.Snapshot, userID string) error {
	if snap.Activity == nil {
		return timer.ErrNoActivity
	}
	if userID != "" && snap.Activity.UserID != userID {
		return timer.ErrNoActivity
	}
	return nil
}

// flushIdle moves the monitor's idle bank onto the activity row. The bank
// is only reset once the write succeeded.
func (t *Tracker) flushIdle(ctx context.Context, id string) {
	if t.idle == nil {
		return
	}
	idle := t.idle.GetAccumulatedIdleTime()
	if idle <= 0 {
		return
	}
	if err := t.activities.RecordIdle(ctx, id, idle); err != nil {
		if !errors.Is(err, context.Canceled) {
			t.logger.Warn("idle flush failed", "activity_id", id, "error", err)
		}
		return
	}
	t.idle.ResetAccumulatedIdleTime()
	t.storedIdle += idle
}
