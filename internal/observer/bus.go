package observer

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/Avflux/Av-sub001/internal/domain/activity"
)

// Bus fans notifications out to every current subscriber. Delivery is
// synchronous and unordered across subscribers; a failing or panicking
// subscriber is logged and skipped.
type Bus struct {
	mu        sync.RWMutex
	observers map[Observer]struct{}
	logger    *slog.Logger
}

// NewBus creates an empty bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Bus{
		observers: make(map[Observer]struct{}),
		logger:    logger,
	}
}

// Subscribe adds an observer. Subscribing twice is a no-op. Observers that
// cannot be compared, such as structs holding slices or maps, are rejected
// and logged; subscribe a pointer to them instead.
func (b *Bus) Subscribe(o Observer) {
	if o == nil {
		return
	}
	if !hashable(o) {
		b.logger.Warn("observer rejected: not comparable, subscribe a pointer", "type", fmt.Sprintf("%T", o))
		return
	}
	b.mu.Lock()
	b.observers[o] = struct{}{}
	b.mu.Unlock()
}

// Unsubscribe removes an observer. Removing an unknown observer is a no-op.
func (b *Bus) Unsubscribe(o Observer) {
	if o == nil || !hashable(o) {
		return
	}
	b.mu.Lock()
	delete(b.observers, o)
	b.mu.Unlock()
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.observers)
}

func (b *Bus) PublishTimerTick(tick TimerTick) {
	b.dispatch("timer_tick", func(o Observer) error { return o.OnTimerTick(tick) })
}

func (b *Bus) PublishDailyTime(accumulated time.Duration) {
	b.dispatch("daily_time", func(o Observer) error { return o.OnDailyTimeChanged(accumulated) })
}

func (b *Bus) PublishActivityStatus(info *activity.Info) {
	b.dispatch("activity_status", func(o Observer) error { return o.OnActivityStatusChanged(info) })
}

func (b *Bus) PublishTimeExceeded(info activity.Info) {
	b.dispatch("time_exceeded", func(o Observer) error { return o.OnTimeExceeded(info) })
}

func (b *Bus) PublishIdleStatus(status IdleStatus) {
	b.dispatch("idle_status", func(o Observer) error { return o.OnIdleStatusChanged(status) })
}

func (b *Bus) dispatch(event string, call func(Observer) error) {
	b.mu.RLock()
	observers := make([]Observer, 0, len(b.observers))
	for o := range b.observers {
		observers = append(observers, o)
	}
	b.mu.RUnlock()

	for _, o := range observers {
		b.deliver(event, o, call)
	}
}

func (b *Bus) deliver(event string, o Observer, call func(Observer) error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("observer panicked", "event", event, "observer", fmt.Sprintf("%T", o), "panic", r)
		}
	}()
	if err := call(o); err != nil {
		b.logger.Warn("observer failed", "event", event, "observer", fmt.Sprintf("%T", o), "error", err)
	}
}

// hashable reports whether o can be used as a map key without panicking.
func hashable(o Observer) bool {
	return reflect.ValueOf(o).Comparable()
}
