package observer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Avflux/Av-sub001/internal/domain/activity"
	"github.com/Avflux/Av-sub001/internal/observer"
	"github.com/Avflux/Av-sub001/internal/observer/observertest"
	"github.com/stretchr/testify/require"
)

type failingObserver struct {
	observer.Base
	panics bool
}

func (f *failingObserver) OnTimerTick(observer.TimerTick) error {
	if f.panics {
		panic("boom")
	}
	return errors.New("sink offline")
}

func TestBus_SubscribeIsIdempotent(t *testing.T) {
	bus := observer.NewBus(nil)
	rec := &observertest.Recorder{}

	bus.Subscribe(rec)
	bus.Subscribe(rec)
	require.Equal(t, 1, bus.Len())

	bus.PublishDailyTime(time.Minute)
	require.Equal(t, []time.Duration{time.Minute}, rec.DailyEvents())

	bus.Unsubscribe(rec)
	bus.Unsubscribe(rec)
	require.Equal(t, 0, bus.Len())

	bus.PublishDailyTime(2 * time.Minute)
	require.Len(t, rec.DailyEvents(), 1)
}

type taggedObserver struct {
	observer.Base
	tags []string
}

func TestBus_RejectsUncomparableObserver(t *testing.T) {
	bus := observer.NewBus(nil)
	rec := &observertest.Recorder{}
	bus.Subscribe(rec)

	require.NotPanics(t, func() {
		bus.Subscribe(taggedObserver{tags: []string{"audit"}})
	})
	require.Equal(t, 1, bus.Len())

	require.NotPanics(t, func() {
		bus.Unsubscribe(taggedObserver{tags: []string{"audit"}})
	})
	require.Equal(t, 1, bus.Len())

	bus.Subscribe(&taggedObserver{tags: []string{"audit"}})
	require.Equal(t, 2, bus.Len())

	bus.PublishDailyTime(time.Minute)
	require.Equal(t, []time.Duration{time.Minute}, rec.DailyEvents())
}

func TestBus_IsolatesFailingSubscribers(t *testing.T) {
	bus := observer.NewBus(nil)
	first := &observertest.Recorder{}
	second := &observertest.Recorder{}

	bus.Subscribe(&failingObserver{})
	bus.Subscribe(&failingObserver{panics: true})
	bus.Subscribe(first)
	bus.Subscribe(second)

	require.NotPanics(t, func() {
		bus.PublishTimerTick(observer.TimerTick{ActivityID: "a1", Value: time.Second})
	})

	for _, rec := range []*observertest.Recorder{first, second} {
		tick, ok := rec.LastTick()
		require.True(t, ok)
		require.Equal(t, "a1", tick.ActivityID)
	}
}

func TestBus_AllNotificationKinds(t *testing.T) {
	bus := observer.NewBus(nil)
	rec := &observertest.Recorder{}
	bus.Subscribe(rec)

	info := activity.Info{ID: "a1", Status: activity.StatusActive}
	bus.PublishActivityStatus(&info)
	bus.PublishActivityStatus(nil)
	bus.PublishTimeExceeded(info)
	bus.PublishIdleStatus(observer.IdleStatusIdle)

	statuses := rec.StatusEvents()
	require.Len(t, statuses, 2)
	require.Equal(t, "a1", statuses[0].ID)
	require.Nil(t, statuses[1])
	require.Equal(t, 1, rec.ExceededCount())
	require.Equal(t, []observer.IdleStatus{observer.IdleStatusIdle}, rec.IdleEvents())
}

func TestAsync_DeliversAndDrains(t *testing.T) {
	rec := &observertest.Recorder{}
	async := observer.NewAsync(rec, 8, nil)

	require.NoError(t, async.OnIdleStatusChanged(observer.IdleStatusIdle))
	require.NoError(t, async.OnIdleStatusChanged(observer.IdleStatusActive))

	ctx, cancel := context.WithCancel(context.Background())
	go async.Run(ctx)
	require.Eventually(t, func() bool { return len(rec.IdleEvents()) == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, async.OnDailyTimeChanged(time.Hour))
	cancel()
	<-async.Done()
	require.Equal(t, []time.Duration{time.Hour}, rec.DailyEvents())
}

func TestAsync_DropsWhenFull(t *testing.T) {
	async := observer.NewAsync(&observertest.Recorder{}, 1, nil)
	require.NoError(t, async.OnDailyTimeChanged(time.Second))
	require.Error(t, async.OnDailyTimeChanged(time.Second))
}
