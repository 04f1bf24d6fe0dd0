// Package daily keeps the total business time worked in the current
// calendar day across all activities.
package daily

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Avflux/Av-sub001/internal/calendar"
	"github.com/Avflux/Av-sub001/internal/observer"
)

const persistTimeout = 10 * time.Second

// Store persists the daily total per user and calendar day.
type Store interface {
	LoadDay(ctx context.Context, userID string, day time.Time) (time.Duration, error)
	SaveDay(ctx context.Context, userID string, day time.Time, accumulated time.Duration) error
}

// Config contains runtime options for the Accumulator.
type Config struct {
	UserID       string
	TickInterval time.Duration
	SaveInterval time.Duration
	Now          func() time.Time
}

// Accumulator counts business time while started. Time that falls outside
// business hours or inside the break is dropped, never accumulated.
type Accumulator struct {
	mu     sync.Mutex
	cal    *calendar.Calendar
	store  Store
	bus    observer.Publisher
	logger *slog.Logger
	config Config

	accumulated time.Duration
	startTime   time.Time
	lastUpdate  time.Time
	running     bool
	lastSaved   time.Duration
}

// New creates a stopped accumulator for config.UserID. The bound user
// follows the running activity through SwitchUser.
func New(cal *calendar.Calendar, store Store, bus observer.Publisher, logger *slog.Logger, config Config) *Accumulator {
	if cal == nil {
		cal = calendar.Default()
	}
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
	return &Accumulator{
		cal:    cal,
		store:  store,
		bus:    bus,
		logger: logger,
		config: config,
	}
}

// Restore loads today's persisted total so a restart within the same day
// continues from it.
func (a *Accumulator) Restore(ctx context.Context) error {
	now := a.config.Now()
	total, err := a.store.LoadDay(ctx, a.UserID(), now)
	if err != nil {
		return fmt.Errorf("loading daily total: %w", err)
	}

	a.mu.Lock()
	a.accumulated = total
	a.lastSaved = total
	if a.startTime.IsZero() {
		a.startTime = now
	}
	a.mu.Unlock()

	a.bus.PublishDailyTime(total)
	return nil
}

// SwitchUser binds the accumulator to userID. The current user's total is
// persisted and the new user's total for today is loaded in its place. A
// running counting period is folded into the previous user first. Binding
// the user already bound is a no-op.
func (a *Accumulator) SwitchUser(ctx context.Context, userID string) error {
	a.mu.Lock()
	if userID == "" || userID == a.config.UserID {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	now := a.config.Now()
	var total time.Duration
	if a.store != nil {
		var err error
		total, err = a.store.LoadDay(ctx, userID, now)
		if err != nil {
			return fmt.Errorf("loading daily total for %s: %w", userID, err)
		}
	}

	a.mu.Lock()
	if a.running {
		a.foldLocked(now)
	}
	previousUser := a.config.UserID
	previousTotal := a.accumulated
	previousDay := a.startTime

	a.config.UserID = userID
	a.accumulated = total
	a.lastSaved = total
	a.startTime = now
	if a.running {
		a.lastUpdate = now
	}
	a.mu.Unlock()

	if !previousDay.IsZero() {
		a.saveFor(ctx, previousUser, previousDay, previousTotal)
	}
	a.logger.Info("daily total switched user", "previous_user_id", previousUser, "user_id", userID, "total", calendar.FormatDuration(total))
	a.bus.PublishDailyTime(total)
	return nil
}

// UserID returns the user whose day is being accumulated.
func (a *Accumulator) UserID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.config.UserID
}

// TotalFor returns today's total for userID: the live figure for the bound
// user, the persisted one for anyone else.
func (a *Accumulator) TotalFor(ctx context.Context, userID string) (time.Duration, error) {
	a.mu.Lock()
	if userID == "" || userID == a.config.UserID {
		defer a.mu.Unlock()
		return a.accumulated, nil
	}
	a.mu.Unlock()

	if a.store == nil {
		return 0, nil
	}
	total, err := a.store.LoadDay(ctx, userID, a.config.Now())
	if err != nil {
		return 0, fmt.Errorf("loading daily total for %s: %w", userID, err)
	}
	return total, nil
}

// StartDailyTimer begins a counting period. Calling it while running is a
// no-op.
func (a *Accumulator) StartDailyTimer() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return
	}
	now := a.config.Now()
	a.running = true
	a.lastUpdate = now
	if a.startTime.IsZero() {
		a.startTime = now
	}
}

// PauseDailyTimer folds the time since the last update and ends the
// counting period.
func (a *Accumulator) PauseDailyTimer(ctx context.Context) {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	changed := a.foldLocked(a.config.Now())
	a.running = false
	total := a.accumulated
	day := a.startTime
	a.lastSaved = total
	a.mu.Unlock()

	if changed {
		a.bus.PublishDailyTime(total)
	}
	a.save(ctx, day, total)
}

// UpdateDailyHours adds the business time elapsed since the last update
// when the current moment is inside business hours.
func (a *Accumulator) UpdateDailyHours(ctx context.Context) {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	changed := a.updateLocked(a.config.Now())
	total := a.accumulated
	day := a.startTime
	save := total-a.lastSaved >= a.config.SaveInterval
	if save {
		a.lastSaved = total
	}
	a.mu.Unlock()

	if changed {
		a.bus.PublishDailyTime(total)
	}
	if save {
		a.save(ctx, day, total)
	}
}

// CheckDayChange resets the accumulator once when the wall-clock date
// differs from the day counting started. The finished day is persisted
// first. It reports whether a reset happened.
func (a *Accumulator) CheckDayChange(ctx context.Context) bool {
	now := a.config.Now()
	a.mu.Lock()
	if a.startTime.IsZero() || calendar.SameDay(a.startTime, now) {
		a.mu.Unlock()
		return false
	}
	finishedDay := a.startTime
	finishedTotal := a.accumulated
	a.mu.Unlock()

	a.logger.Info("day changed, resetting daily total", "previous_day", finishedDay.Format(time.DateOnly), "total", calendar.FormatDuration(finishedTotal))
	a.save(ctx, finishedDay, finishedTotal)
	a.Reset()
	return true
}

// Reset zeroes the daily total and notifies subscribers. A running
// accumulator keeps running from now.
func (a *Accumulator) Reset() {
	now := a.config.Now()
	a.mu.Lock()
	a.accumulated = 0
	a.lastSaved = 0
	a.startTime = time.Time{}
	a.lastUpdate = time.Time{}
	if a.running {
		a.startTime = now
		a.lastUpdate = now
	}
	a.mu.Unlock()

	a.bus.PublishDailyTime(0)
}

// Accumulated returns the current daily total.
func (a *Accumulator) Accumulated() time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.accumulated
}

// Running reports whether a counting period is open.
func (a *Accumulator) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Run drives CheckDayChange and UpdateDailyHours until ctx is canceled,
// then persists the total one last time.
func (a *Accumulator) Run(ctx context.Context) {
	ticker := time.NewTicker(a.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.Flush()
			return
		case <-ticker.C:
			tickCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			a.CheckDayChange(tickCtx)
			a.UpdateDailyHours(tickCtx)
			cancel()
		}
	}
}

// Flush persists the current total.
func (a *Accumulator) Flush() {
	a.mu.Lock()
	if a.running {
		a.foldLocked(a.config.Now())
	}
	total := a.accumulated
	day := a.startTime
	a.lastSaved = total
	a.mu.Unlock()

	if day.IsZero() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	a.save(ctx, day, total)
}

// updateLocked adds the business time since the last update, but only when
// now itself is inside business hours. Outside them nothing is added and
// lastUpdate is held, so the business part of the span is still counted by
// the next update that lands inside business hours.
func (a *Accumulator) updateLocked(now time.Time) bool {
	if !a.lastUpdate.Before(now) {
		a.lastUpdate = now
		return false
	}
	if ok, reason := a.cal.ShouldAccumulate(a.cal.Classify(now)); !ok {
		a.logger.Debug("daily time not accumulated", "reason", reason)
		return false
	}
	return a.foldLocked(now)
}

// foldLocked closes the span since the last update, adding only the part
// inside business hours.
func (a *Accumulator) foldLocked(now time.Time) bool {
	from := a.lastUpdate
	a.lastUpdate = now
	if !from.Before(now) {
		return false
	}
	counted := a.cal.BusinessDuration(from, now)
	if counted <= 0 {
		return false
	}
	a.accumulated += counted
	return true
}

func (a *Accumulator) save(ctx context.Context, day time.Time, total time.Duration) {
	a.saveFor(ctx, a.UserID(), day, total)
}

func (a *Accumulator) saveFor(ctx context.Context, userID string, day time.Time, total time.Duration) {
	if a.store == nil {
		return
	}
	if err := a.store.SaveDay(ctx, userID, day, total); err != nil {
		a.logger.Warn("daily total flush failed", "user_id", userID, "error", err)
	}
}
