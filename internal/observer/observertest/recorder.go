// Package observertest provides a recording observer for tests.
package observertest

import (
	"sync"
	"time"

	"github.com/Avflux/Av-sub001/internal/domain/activity"
	"github.com/Avflux/Av-sub001/internal/observer"
)

// Recorder captures every notification it receives.
type Recorder struct {
	mu       sync.Mutex
	Ticks    []observer.TimerTick
	Daily    []time.Duration
	Statuses []*activity.Info
	Exceeded []activity.Info
	Idle     []observer.IdleStatus
}

func (r *Recorder) OnTimerTick(tick observer.TimerTick) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Ticks = append(r.Ticks, tick)
	return nil
}

func (r *Recorder) OnDailyTimeChanged(accumulated time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Daily = append(r.Daily, accumulated)
	return nil
}

func (r *Recorder) OnActivityStatusChanged(info *activity.Info) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Statuses = append(r.Statuses, info)
	return nil
}

func (r *Recorder) OnTimeExceeded(info activity.Info) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Exceeded = append(r.Exceeded, info)
	return nil
}

func (r *Recorder) OnIdleStatusChanged(status observer.IdleStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Idle = append(r.Idle, status)
	return nil
}

// LastTick returns the most recent tick and whether one was seen.
func (r *Recorder) LastTick() (observer.TimerTick, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Ticks) == 0 {
		return observer.TimerTick{}, false
	}
	return r.Ticks[len(r.Ticks)-1], true
}

// ExceededCount returns how many time-exceeded notifications arrived.
func (r *Recorder) ExceededCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Exceeded)
}

// IdleEvents returns a copy of the idle transitions seen so far.
func (r *Recorder) IdleEvents() []observer.IdleStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]observer.IdleStatus(nil), r.Idle...)
}

// DailyEvents returns a copy of the daily totals seen so far.
func (r *Recorder) DailyEvents() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.Daily...)
}

// StatusEvents returns a copy of the activity status notifications.
func (r *Recorder) StatusEvents() []*activity.Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*activity.Info(nil), r.Statuses...)
}

// TickEvents returns a copy of the ticks seen so far.
func (r *Recorder) TickEvents() []observer.TimerTick {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]observer.TimerTick(nil), r.Ticks...)
}
