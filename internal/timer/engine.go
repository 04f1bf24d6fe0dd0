package timer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Avflux/Av-sub001/internal/domain/activity"
	"github.com/Avflux/Av-sub001/internal/observer"
)

const persistTimeout = 10 * time.Second

// Store is the part of the persistence gateway the engine writes through.
type Store interface {
	LoadActivity(ctx context.Context, id string) (*activity.Activity, error)
	SaveActivityTimer(ctx context.Context, id string, cols activity.TimerColumns) error
	MarkActivityStatus(ctx context.Context, id string, status activity.Status) error
}

// Config contains runtime options for the Engine.
type Config struct {
	TickInterval time.Duration
	SaveInterval time.Duration
	Now          func() time.Time
}

// Engine drives the countdown and overtime lifecycle of one activity at a
// time. Every mutation happens under mu; persistence runs after mu is
// released on a copy of the values.
type Engine struct {
	mu     sync.Mutex
	tickMu sync.Mutex

	store  Store
	bus    observer.Publisher
	logger *slog.Logger
	config Config

	act              *activity.Activity
	state            State
	exceededNotified bool
	lastSave         time.Duration
	ticker           *ticker
}

// NewEngine creates an idle engine.
func NewEngine(store Store, bus observer.Publisher, logger *slog.Logger, config Config) *Engine {
	if config.TickInterval <= 0 {
		config.TickInterval = time.Second
	}
	if config.SaveInterval <= 0 {
		config.SaveInterval = time.Minute
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		store:  store,
		bus:    bus,
		logger: logger,
		config: config,
	}
}

// Start binds act and begins counting down from its target end time. A
// stored remaining countdown overrides the computed one, and an activity
// already in overtime continues its overtime count.
func (e *Engine) Start(ctx context.Context, act *activity.Activity) error {
	if act == nil || act.ID == "" {
		return ErrNoActivity
	}
	if act.Status == activity.StatusCompleted {
		return activity.ErrAlreadyCompleted
	}

	e.mu.Lock()
	if e.act != nil {
		e.mu.Unlock()
		return ErrActivityBound
	}

	now := e.config.Now()
	bound := *act
	bound.Status = activity.StatusActive
	if bound.Mode == "" {
		bound.Mode = activity.ModeRegressive
	}

	state := State{
		Mode:              activity.ModeRegressive,
		IsRunning:         true,
		StartTime:         now,
		AccumulatedTime:   act.TotalTime,
		InitialTimerValue: initialCountdown(act, now),
		TotalElapsedTime:  act.TotalTime,
	}
	exceeded := false
	if bound.Mode == activity.ModeProgressive {
		chronometerStart := now.Add(-act.TimeExceeded)
		state.Mode = activity.ModeProgressive
		state.ChronometerStart = &chronometerStart
		state.TimerValue = act.TimeExceeded
		exceeded = true
	} else {
		state.TimerValue = state.InitialTimerValue
	}

	e.act = &bound
	e.state = state
	e.exceededNotified = exceeded
	e.lastSave = 0
	e.ticker = startTicker(e.config.TickInterval, e.scheduledTick)
	info := bound.Info()
	e.mu.Unlock()

	e.logger.Info("timer started", "activity_id", info.ID, "mode", state.Mode, "countdown", state.InitialTimerValue)
	e.markStatus(ctx, info.ID, activity.StatusActive)
	e.bus.PublishActivityStatus(&info)
	e.bus.PublishTimerTick(observer.TimerTick{ActivityID: info.ID, Mode: state.Mode, At: now})
	return nil
}

// Tick recomputes the timer. It is a no-op unless running, and a call that
// arrives while another is in progress is skipped.
func (e *Engine) Tick(ctx context.Context) {
	if !e.tickMu.TryLock() {
		return
	}
	defer e.tickMu.Unlock()

	e.mu.Lock()
	if e.act == nil || !e.state.IsRunning {
		e.mu.Unlock()
		return
	}

	now := e.config.Now()
	transitioned := e.advanceLocked(now)
	elapsed := e.state.elapsed(now)
	save := transitioned
	if elapsed-e.lastSave >= e.config.SaveInterval {
		e.lastSave = elapsed
		save = true
	}
	id := e.act.ID
	cols := e.state.columns()
	tick := observer.TimerTick{
		ActivityID:   id,
		Mode:         e.state.Mode,
		Value:        e.state.TimerValue,
		TotalElapsed: e.state.TotalElapsedTime,
		At:           now,
	}
	e.mu.Unlock()

	e.bus.PublishTimerTick(tick)
	if save {
		e.saveTimer(ctx, id, cols)
	}
}

// Pause freezes the timer, stops the tick loop and persists the pause point.
func (e *Engine) Pause(ctx context.Context) error {
	e.mu.Lock()
	if e.act == nil {
		e.mu.Unlock()
		return ErrNoActivity
	}
	if !e.state.IsRunning {
		e.mu.Unlock()
		return ErrNotRunning
	}

	now := e.config.Now()
	e.advanceLocked(now)
	e.state.IsRunning = false
	e.state.PauseStartTime = &now
	e.act.Status = activity.StatusPaused
	id := e.act.ID
	cols := e.state.columns()
	info := e.act.Info()
	running := e.ticker
	e.ticker = nil
	e.mu.Unlock()

	running.stop()

	e.logger.Info("timer paused", "activity_id", id, "total", cols.TotalTime, "mode", cols.Mode)
	e.saveTimer(ctx, id, cols)
	e.markStatus(ctx, id, activity.StatusPaused)
	e.bus.PublishActivityStatus(&info)
	return nil
}

// Resume restarts a paused activity from its persisted timer columns. When
// the engine still holds the paused activity and storage cannot be read,
// the in-memory state is resumed instead.
func (e *Engine) Resume(ctx context.Context, id string) error {
	e.mu.Lock()
	boundPaused, err := e.checkResumableLocked(id)
	e.mu.Unlock()
	if err != nil {
		return err
	}

	stored, loadErr := e.store.LoadActivity(ctx, id)
	if loadErr != nil {
		if !boundPaused {
			return fmt.Errorf("loading activity: %w", loadErr)
		}
		e.logger.Warn("reload failed, resuming from memory", "activity_id", id, "error", loadErr)
		stored = nil
	}
	if stored != nil && !boundPaused && stored.Status != activity.StatusPaused {
		if stored.Status == activity.StatusCompleted {
			return activity.ErrAlreadyCompleted
		}
		return ErrNotPaused
	}

	e.mu.Lock()
	stillPaused, err := e.checkResumableLocked(id)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if boundPaused && !stillPaused {
		e.mu.Unlock()
		return ErrNotPaused
	}

	now := e.config.Now()
	if stored != nil {
		e.restoreLocked(stored, now, boundPaused)
	} else {
		e.state.TotalPausedTime += now.Sub(*e.state.PauseStartTime)
		e.state.PauseStartTime = nil
		e.state.IsRunning = true
		e.act.Status = activity.StatusActive
	}
	e.ticker = startTicker(e.config.TickInterval, e.scheduledTick)
	info := e.act.Info()
	mode := e.state.Mode
	value := e.state.TimerValue
	e.mu.Unlock()

	e.logger.Info("timer resumed", "activity_id", id, "mode", mode, "value", value)
	e.markStatus(ctx, id, activity.StatusActive)
	e.bus.PublishActivityStatus(&info)
	return nil
}

// Stop persists the final timer columns, unbinds the activity and resets
// the state. It returns the final view of the activity; marking it
// completed is left to the caller.
func (e *Engine) Stop(ctx context.Context) (*activity.Activity, error) {
	e.mu.Lock()
	if e.act == nil {
		e.mu.Unlock()
		return nil, ErrNoActivity
	}
	if e.state.IsRunning {
		e.advanceLocked(e.config.Now())
	}
	cols := e.state.columns()
	final := *e.act
	final.TotalTime = cols.TotalTime
	final.TimeRegress = cols.TimeRegress
	final.TimeExceeded = cols.TimeExceeded
	final.Mode = cols.Mode

	running := e.ticker
	e.ticker = nil
	e.act = nil
	e.state = State{}
	e.exceededNotified = false
	e.lastSave = 0
	e.mu.Unlock()

	running.stop()

	e.logger.Info("timer stopped", "activity_id", final.ID, "total", cols.TotalTime, "exceeded", cols.TimeExceeded)
	e.saveTimer(ctx, final.ID, cols)
	e.bus.PublishActivityStatus(nil)
	return &final, nil
}

// Phase returns the current engine state.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.act == nil {
		return PhaseIdle
	}
	return e.state.phase()
}

// Snapshot returns a copy of the values computed by the last tick.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.act == nil {
		return Snapshot{Phase: PhaseIdle}
	}
	info := e.act.Info()
	return Snapshot{
		Phase:        e.state.phase(),
		Activity:     &info,
		Mode:         e.state.Mode,
		TimerValue:   e.state.TimerValue,
		TotalElapsed: e.state.TotalElapsedTime,
		Columns:      e.state.columns(),
	}
}

// State returns a copy of the timer state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) scheduledTick() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	e.Tick(ctx)
}

// advanceLocked recomputes the timer at now and performs the one-way
// switch to overtime. The time-exceeded notification is published here,
// under the same lock that flips the mode.
func (e *Engine) advanceLocked(now time.Time) bool {
	elapsed := e.state.elapsed(now)
	transitioned := false

	switch e.state.Mode {
	case activity.ModeProgressive:
		if e.state.ChronometerStart != nil {
			// Overtime never reads below the 1s it starts from.
			e.state.TimerValue = max(now.Sub(*e.state.ChronometerStart).Truncate(time.Second), time.Second)
		}
	default:
		remaining := e.state.InitialTimerValue - elapsed
		if remaining > 0 {
			e.state.TimerValue = remaining
			break
		}
		transitioned = true
		chronometerStart := now
		e.state.Mode = activity.ModeProgressive
		e.state.ChronometerStart = &chronometerStart
		e.state.TimerValue = time.Second
		e.act.Mode = activity.ModeProgressive
		if !e.exceededNotified {
			e.exceededNotified = true
			e.logger.Info("estimated time exceeded", "activity_id", e.act.ID)
			e.bus.PublishTimeExceeded(e.act.Info())
		}
	}

	e.state.TotalElapsedTime = elapsed + e.state.AccumulatedTime
	return transitioned
}

// checkResumableLocked validates a resume request against the bound
// activity and reports whether that activity is bound and paused.
func (e *Engine) checkResumableLocked(id string) (bool, error) {
	if e.act == nil {
		return false, nil
	}
	if e.act.ID != id {
		return false, ErrActivityBound
	}
	if e.state.IsRunning {
		return false, ErrAlreadyRunning
	}
	return true, nil
}

func (e *Engine) restoreLocked(stored *activity.Activity, now time.Time, keepNotified bool) {
	state := State{
		Mode:             stored.Mode,
		IsRunning:        true,
		StartTime:        now,
		AccumulatedTime:  stored.TotalTime,
		TotalElapsedTime: stored.TotalTime,
	}
	if stored.Mode == activity.ModeProgressive {
		chronometerStart := now.Add(-stored.TimeExceeded)
		state.ChronometerStart = &chronometerStart
		state.TimerValue = stored.TimeExceeded
	} else {
		state.Mode = activity.ModeRegressive
		state.InitialTimerValue = initialCountdown(stored, now)
		if stored.TotalTime > 0 {
			// A worked activity resumes from exactly what was stored, even 0.
			state.InitialTimerValue = stored.TimeRegress
		}
		state.TimerValue = state.InitialTimerValue
	}

	notified := state.Mode == activity.ModeProgressive
	if keepNotified && e.exceededNotified {
		notified = true
	}
	if e.act != nil && e.act.Mode == activity.ModeProgressive && state.Mode == activity.ModeRegressive {
		// Storage lagged behind the in-memory switch; overtime is one-way.
		chronometerStart := now.Add(-e.state.TimerValue)
		state.Mode = activity.ModeProgressive
		state.ChronometerStart = &chronometerStart
		state.TimerValue = e.state.TimerValue
		notified = true
	}

	act := *stored
	act.Status = activity.StatusActive
	act.Mode = state.Mode
	e.act = &act
	e.state = state
	e.exceededNotified = notified
	e.lastSave = 0
}

// initialCountdown is the stored remaining countdown, or the time left
// until the target end for an activity that never ran.
func initialCountdown(act *activity.Activity, now time.Time) time.Duration {
	if act.TimeRegress > 0 {
		return act.TimeRegress
	}
	return act.EndTime.Sub(now).Truncate(time.Second)
}

func (e *Engine) saveTimer(ctx context.Context, id string, cols activity.TimerColumns) {
	if err := e.store.SaveActivityTimer(ctx, id, cols); err != nil {
		e.logger.Warn("timer flush failed", "activity_id", id, "error", err)
	}
}

func (e *Engine) markStatus(ctx context.Context, id string, status activity.Status) {
	if err := e.store.MarkActivityStatus(ctx, id, status); err != nil {
		e.logger.Warn("status update failed", "activity_id", id, "status", status, "error", err)
	}
}
