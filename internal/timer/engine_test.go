package timer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Avflux/Av-sub001/internal/domain/activity"
	"github.com/Avflux/Av-sub001/internal/observer"
	"github.com/Avflux/Av-sub001/internal/observer/observertest"
	"github.com/Avflux/Av-sub001/internal/repository"
	"github.com/Avflux/Av-sub001/internal/repository/mocks"
	"github.com/Avflux/Av-sub001/internal/timer"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type memoryStore struct {
	mu         sync.Mutex
	activities map[string]activity.Activity
	saves      int
	loadErr    error
}

func newMemoryStore(acts ...activity.Activity) *memoryStore {
	s := &memoryStore{activities: make(map[string]activity.Activity)}
	for _, act := range acts {
		s.activities[act.ID] = act
	}
	return s
}

func (s *memoryStore) LoadActivity(_ context.Context, id string) (*activity.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	act, ok := s.activities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &act, nil
}

func (s *memoryStore) SaveActivityTimer(_ context.Context, id string, cols activity.TimerColumns) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	act := s.activities[id]
	act.TotalTime = cols.TotalTime
	act.TimeRegress = cols.TimeRegress
	act.TimeExceeded = cols.TimeExceeded
	act.Mode = cols.Mode
	s.activities[id] = act
	s.saves++
	return nil
}

func (s *memoryStore) MarkActivityStatus(_ context.Context, id string, status activity.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	act := s.activities[id]
	act.Status = status
	s.activities[id] = act
	return nil
}

func (s *memoryStore) get(id string) activity.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activities[id]
}

func (s *memoryStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

var t0 = time.Date(2024, time.January, 2, 9, 0, 0, 0, time.UTC)

func newActivity(id string, estimate time.Duration) activity.Activity {
	return activity.Activity{
		ID:        id,
		UserID:    "u1",
		Name:      "Drafting",
		StartTime: t0,
		EndTime:   t0.Add(estimate),
		Status:    activity.StatusPaused,
		Mode:      activity.ModeRegressive,
	}
}

type harness struct {
	clock  *fakeClock
	store  *memoryStore
	rec    *observertest.Recorder
	engine *timer.Engine
}

func newHarness(t *testing.T, acts ...activity.Activity) *harness {
	t.Helper()
	clock := &fakeClock{now: t0}
	store := newMemoryStore(acts...)
	bus := observer.NewBus(nil)
	rec := &observertest.Recorder{}
	bus.Subscribe(rec)
	engine := timer.NewEngine(store, bus, nil, timer.Config{
		TickInterval: time.Hour,
		SaveInterval: time.Minute,
		Now:          clock.Now,
	})
	t.Cleanup(func() { _, _ = engine.Stop(context.Background()) })
	return &harness{clock: clock, store: store, rec: rec, engine: engine}
}

// tickFor advances the clock one second at a time, ticking after each step.
func (h *harness) tickFor(ctx context.Context, d time.Duration) {
	for i := time.Duration(0); i < d; i += time.Second {
		h.clock.Advance(time.Second)
		h.engine.Tick(ctx)
	}
}

func TestEngine_StartCountsDown(t *testing.T) {
	ctx := context.Background()
	act := newActivity("a1", 10*time.Minute)
	h := newHarness(t, act)

	require.NoError(t, h.engine.Start(ctx, &act))
	require.Equal(t, timer.PhaseRunningRegressive, h.engine.Phase())

	first, ok := h.rec.LastTick()
	require.True(t, ok)
	require.Zero(t, first.Value)
	require.Zero(t, first.TotalElapsed)
	require.Equal(t, activity.StatusActive, h.store.get("a1").Status)

	h.clock.Advance(3 * time.Minute)
	h.engine.Tick(ctx)

	tick, _ := h.rec.LastTick()
	require.Equal(t, 7*time.Minute, tick.Value)
	require.Equal(t, 3*time.Minute, tick.TotalElapsed)
	require.Equal(t, activity.ModeRegressive, tick.Mode)
}

func TestEngine_StartRejectsWhenBound(t *testing.T) {
	ctx := context.Background()
	first := newActivity("a1", time.Hour)
	second := newActivity("a2", time.Hour)
	h := newHarness(t, first, second)

	require.NoError(t, h.engine.Start(ctx, &first))
	require.ErrorIs(t, h.engine.Start(ctx, &second), timer.ErrActivityBound)

	snap := h.engine.Snapshot()
	require.Equal(t, "a1", snap.Activity.ID)
}

func TestEngine_StartUsesStoredCountdown(t *testing.T) {
	ctx := context.Background()
	act := newActivity("a1", 10*time.Minute)
	act.TimeRegress = 4 * time.Minute
	act.TotalTime = 6 * time.Minute
	h := newHarness(t, act)

	require.NoError(t, h.engine.Start(ctx, &act))
	h.clock.Advance(time.Minute)
	h.engine.Tick(ctx)

	tick, _ := h.rec.LastTick()
	require.Equal(t, 3*time.Minute, tick.Value)
	require.Equal(t, 7*time.Minute, tick.TotalElapsed)
}

func TestEngine_PauseResumePreservesElapsed(t *testing.T) {
	ctx := context.Background()
	act := newActivity("a1", 10*time.Minute)
	h := newHarness(t, act)

	require.NoError(t, h.engine.Start(ctx, &act))
	h.clock.Advance(3 * time.Minute)
	require.NoError(t, h.engine.Pause(ctx))
	require.Equal(t, timer.PhasePaused, h.engine.Phase())

	stored := h.store.get("a1")
	require.Equal(t, activity.StatusPaused, stored.Status)
	require.Equal(t, 7*time.Minute, stored.TimeRegress)
	require.Equal(t, 3*time.Minute, stored.TotalTime)

	h.clock.Advance(2 * time.Hour)
	h.engine.Tick(ctx)
	require.Equal(t, 3*time.Minute, h.engine.State().TotalElapsedTime)

	require.NoError(t, h.engine.Resume(ctx, "a1"))
	require.Equal(t, 7*time.Minute, h.engine.Snapshot().TimerValue)

	h.clock.Advance(10 * time.Second)
	h.engine.Tick(ctx)
	tick, _ := h.rec.LastTick()
	require.Equal(t, 7*time.Minute-10*time.Second, tick.Value)
	require.Equal(t, 3*time.Minute+10*time.Second, tick.TotalElapsed)
}

func TestEngine_SwitchesToOvertimeExactlyOnce(t *testing.T) {
	ctx := context.Background()
	act := newActivity("a1", 2*time.Second)
	h := newHarness(t, act)

	require.NoError(t, h.engine.Start(ctx, &act))
	h.tickFor(ctx, 2*time.Second)

	snap := h.engine.Snapshot()
	require.Equal(t, timer.PhaseRunningProgressive, snap.Phase)
	require.Equal(t, time.Second, snap.TimerValue)
	require.Equal(t, 1, h.rec.ExceededCount())
	require.Equal(t, activity.ModeProgressive, h.store.get("a1").Mode)

	h.tickFor(ctx, 5*time.Second)
	require.Equal(t, 5*time.Second, h.engine.Snapshot().TimerValue)

	require.NoError(t, h.engine.Pause(ctx))
	require.Equal(t, 5*time.Second, h.store.get("a1").TimeExceeded)
	require.Zero(t, h.store.get("a1").TimeRegress)

	h.clock.Advance(time.Hour)
	require.NoError(t, h.engine.Resume(ctx, "a1"))
	h.tickFor(ctx, 3*time.Second)

	snap = h.engine.Snapshot()
	require.Equal(t, activity.ModeProgressive, snap.Mode)
	require.Equal(t, 8*time.Second, snap.TimerValue)
	require.Equal(t, 1, h.rec.ExceededCount())

	for _, tick := range h.rec.TickEvents()[3:] {
		require.Equal(t, activity.ModeProgressive, tick.Mode)
	}
}

func TestEngine_ConcurrentTicksNotifyOnce(t *testing.T) {
	ctx := context.Background()
	act := newActivity("a1", time.Second)
	h := newHarness(t, act)
	require.NoError(t, h.engine.Start(ctx, &act))
	h.clock.Advance(5 * time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.engine.Tick(ctx)
		}()
	}
	wg.Wait()
	h.engine.Tick(ctx)

	require.Equal(t, 1, h.rec.ExceededCount())
	require.Equal(t, activity.ModeProgressive, h.engine.Snapshot().Mode)
}

func TestEngine_FlushesEverySaveInterval(t *testing.T) {
	ctx := context.Background()
	act := newActivity("a1", time.Hour)
	h := newHarness(t, act)
	require.NoError(t, h.engine.Start(ctx, &act))

	h.tickFor(ctx, 59*time.Second)
	require.Zero(t, h.store.saveCount())

	h.tickFor(ctx, time.Second)
	require.Equal(t, 1, h.store.saveCount())
	require.Equal(t, time.Minute, h.store.get("a1").TotalTime)
	require.Equal(t, 59*time.Minute, h.store.get("a1").TimeRegress)

	h.tickFor(ctx, 60*time.Second)
	require.Equal(t, 2, h.store.saveCount())
}

func TestEngine_PersistenceFailuresDoNotInterrupt(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: t0}
	store := &mocks.ActivityRepository{}
	store.On("SaveActivityTimer", mock.Anything, "a1", mock.Anything).Return(errors.New("disk full"))
	store.On("MarkActivityStatus", mock.Anything, "a1", mock.Anything).Return(errors.New("disk full"))

	engine := timer.NewEngine(store, observer.NewBus(nil), nil, timer.Config{
		TickInterval: time.Hour,
		SaveInterval: time.Second,
		Now:          clock.Now,
	})
	act := newActivity("a1", time.Minute)
	require.NoError(t, engine.Start(ctx, &act))

	clock.Advance(2 * time.Second)
	engine.Tick(ctx)
	require.Equal(t, 58*time.Second, engine.Snapshot().TimerValue)

	require.NoError(t, engine.Pause(ctx))
	require.Equal(t, timer.PhasePaused, engine.Phase())

	final, err := engine.Stop(ctx)
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, final.TotalTime)
	require.Equal(t, timer.PhaseIdle, engine.Phase())
}

func TestEngine_ResumeNeverStartedCountsDown(t *testing.T) {
	ctx := context.Background()
	act := newActivity("a1", 10*time.Minute)
	h := newHarness(t, act)

	require.NoError(t, h.engine.Resume(ctx, "a1"))
	h.clock.Advance(time.Second)
	h.engine.Tick(ctx)

	tick, ok := h.rec.LastTick()
	require.True(t, ok)
	require.Equal(t, activity.ModeRegressive, tick.Mode)
	require.Equal(t, 10*time.Minute-time.Second, tick.Value)
	require.Equal(t, 0, h.rec.ExceededCount())
}

func TestEngine_ResumeFromMemoryWhenReloadFails(t *testing.T) {
	ctx := context.Background()
	act := newActivity("a1", 10*time.Minute)
	h := newHarness(t, act)

	require.NoError(t, h.engine.Start(ctx, &act))
	h.clock.Advance(time.Minute)
	require.NoError(t, h.engine.Pause(ctx))

	h.store.mu.Lock()
	h.store.loadErr = errors.New("connection refused")
	h.store.mu.Unlock()

	h.clock.Advance(30 * time.Minute)
	require.NoError(t, h.engine.Resume(ctx, "a1"))
	h.clock.Advance(time.Minute)
	h.engine.Tick(ctx)

	tick, _ := h.rec.LastTick()
	require.Equal(t, 8*time.Minute, tick.Value)
	require.Equal(t, 2*time.Minute, tick.TotalElapsed)
}

func TestEngine_InvalidTransitions(t *testing.T) {
	ctx := context.Background()
	running := newActivity("a1", time.Hour)
	other := newActivity("a2", time.Hour)
	active := newActivity("a3", time.Hour)
	active.Status = activity.StatusActive
	h := newHarness(t, running, other, active)

	require.ErrorIs(t, h.engine.Pause(ctx), timer.ErrNoActivity)
	_, err := h.engine.Stop(ctx)
	require.ErrorIs(t, err, timer.ErrNoActivity)
	require.ErrorIs(t, h.engine.Resume(ctx, "a3"), timer.ErrNotPaused)
	require.ErrorIs(t, h.engine.Resume(ctx, "missing"), repository.ErrNotFound)

	require.NoError(t, h.engine.Start(ctx, &running))
	require.ErrorIs(t, h.engine.Resume(ctx, "a1"), timer.ErrAlreadyRunning)
	require.ErrorIs(t, h.engine.Resume(ctx, "a2"), timer.ErrActivityBound)

	require.NoError(t, h.engine.Pause(ctx))
	require.ErrorIs(t, h.engine.Pause(ctx), timer.ErrNotRunning)

	completed := newActivity("a4", time.Hour)
	completed.Status = activity.StatusCompleted
	_, err = h.engine.Stop(ctx)
	require.NoError(t, err)
	require.ErrorIs(t, h.engine.Start(ctx, &completed), activity.ErrAlreadyCompleted)
}

func TestEngine_StopResetsAndNotifies(t *testing.T) {
	ctx := context.Background()
	act := newActivity("a1", time.Hour)
	h := newHarness(t, act)

	require.NoError(t, h.engine.Start(ctx, &act))
	h.clock.Advance(90 * time.Second)

	final, err := h.engine.Stop(ctx)
	require.NoError(t, err)
	require.Equal(t, 90*time.Second, final.TotalTime)
	require.Equal(t, 90*time.Second, h.store.get("a1").TotalTime)
	require.Equal(t, timer.PhaseIdle, h.engine.Phase())
	require.Equal(t, timer.State{}, h.engine.State())

	statuses := h.rec.StatusEvents()
	require.Nil(t, statuses[len(statuses)-1])

	next := newActivity("a2", time.Hour)
	require.NoError(t, h.engine.Start(ctx, &next))
}

func TestEngine_ScheduledTicks(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	bus := observer.NewBus(nil)
	rec := &observertest.Recorder{}
	bus.Subscribe(rec)
	engine := timer.NewEngine(store, bus, nil, timer.Config{TickInterval: 10 * time.Millisecond})

	act := newActivity("a1", time.Hour)
	act.EndTime = time.Now().Add(time.Hour)
	require.NoError(t, engine.Start(ctx, &act))
	t.Cleanup(func() { _, _ = engine.Stop(context.Background()) })
	require.Eventually(t, func() bool {
		return len(rec.TickEvents()) > 3
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, engine.Pause(ctx))
	count := len(rec.TickEvents())
	time.Sleep(50 * time.Millisecond)
	require.Len(t, rec.TickEvents(), count)
}
