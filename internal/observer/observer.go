package observer

import (
	"time"

	"github.com/Avflux/Av-sub001/internal/domain/activity"
)

// IdleStatus is the payload of idle transitions.
type IdleStatus string

const (
	IdleStatusIdle   IdleStatus = "idle"
	IdleStatusActive IdleStatus = "active"
)

// TimerTick is published once per engine tick.
type TimerTick struct {
	ActivityID   string
	Mode         activity.Mode
	Value        time.Duration
	TotalElapsed time.Duration
	At           time.Time
}

// Observer receives state changes. Implementations must be comparable
// (pointer receivers) so they can be unsubscribed. A returned error is
// logged by the bus and never reaches the publisher.
//
// Notifications may be delivered while the publisher holds its own state
// lock, so observers must not call back into the publisher synchronously.
type Observer interface {
	OnTimerTick(tick TimerTick) error
	OnDailyTimeChanged(accumulated time.Duration) error
	// OnActivityStatusChanged receives nil when no activity is active.
	OnActivityStatusChanged(info *activity.Info) error
	OnTimeExceeded(info activity.Info) error
	OnIdleStatusChanged(status IdleStatus) error
}

// Publisher is the producer side of the bus.
type Publisher interface {
	PublishTimerTick(tick TimerTick)
	PublishDailyTime(accumulated time.Duration)
	PublishActivityStatus(info *activity.Info)
	PublishTimeExceeded(info activity.Info)
	PublishIdleStatus(status IdleStatus)
}

// Base implements Observer with no-ops. Embed it to handle a subset of the
// notifications.
type Base struct{}

func (Base) OnTimerTick(TimerTick) error                  { return nil }
func (Base) OnDailyTimeChanged(time.Duration) error       { return nil }
func (Base) OnActivityStatusChanged(*activity.Info) error { return nil }
func (Base) OnTimeExceeded(activity.Info) error           { return nil }
func (Base) OnIdleStatusChanged(IdleStatus) error         { return nil }
