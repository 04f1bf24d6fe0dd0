package observer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Avflux/Av-sub001/internal/domain/activity"
)

// Async decouples a slow observer from the publisher. Notifications are
// queued on a buffered channel and delivered by Run; when the buffer is
// full the notification is dropped and logged.
type Async struct {
	target Observer
	queue  chan func(Observer) error
	done   chan struct{}
	logger *slog.Logger
}

// NewAsync wraps target with a queue of the given size.
func NewAsync(target Observer, buffer int, logger *slog.Logger) *Async {
	if buffer <= 0 {
		buffer = 1
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Async{
		target: target,
		queue:  make(chan func(Observer) error, buffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Run delivers queued notifications until ctx is canceled, then drains
// whatever is already queued.
func (a *Async) Run(ctx context.Context) {
	defer close(a.done)
	for {
		select {
		case <-ctx.Done():
			a.drain()
			return
		case call := <-a.queue:
			a.deliver(call)
		}
	}
}

// Done is closed once Run has returned.
func (a *Async) Done() <-chan struct{} {
	return a.done
}

func (a *Async) drain() {
	for {
		select {
		case call := <-a.queue:
			a.deliver(call)
		default:
			return
		}
	}
}

func (a *Async) deliver(call func(Observer) error) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("async observer panicked", "observer", fmt.Sprintf("%T", a.target), "panic", r)
		}
	}()
	if err := call(a.target); err != nil {
		a.logger.Warn("async observer failed", "observer", fmt.Sprintf("%T", a.target), "error", err)
	}
}

func (a *Async) enqueue(event string, call func(Observer) error) error {
	select {
	case a.queue <- call:
		return nil
	default:
		return fmt.Errorf("%s dropped: queue full", event)
	}
}

func (a *Async) OnTimerTick(tick TimerTick) error {
	return a.enqueue("timer_tick", func(o Observer) error { return o.OnTimerTick(tick) })
}

func (a *Async) OnDailyTimeChanged(accumulated time.Duration) error {
	return a.enqueue("daily_time", func(o Observer) error { return o.OnDailyTimeChanged(accumulated) })
}

func (a *Async) OnActivityStatusChanged(info *activity.Info) error {
	return a.enqueue("activity_status", func(o Observer) error { return o.OnActivityStatusChanged(info) })
}

func (a *Async) OnTimeExceeded(info activity.Info) error {
	return a.enqueue("time_exceeded", func(o Observer) error { return o.OnTimeExceeded(info) })
}

func (a *Async) OnIdleStatusChanged(status IdleStatus) error {
	return a.enqueue("idle_status", func(o Observer) error { return o.OnIdleStatusChanged(status) })
}
