// Package idle detects input inactivity from independent mouse and
// keyboard liveness signals.
package idle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Avflux/Av-sub001/internal/observer"
)

const defaultThreshold = 10 * time.Second

// CursorSource samples the pointer position.
type CursorSource interface {
	CursorPosition(ctx context.Context) (x, y int, err error)
}

// KeyboardSource pushes key presses to onKey until ctx is canceled.
type KeyboardSource interface {
	Listen(ctx context.Context, onKey func()) error
}

// Suppression is a named predicate under which idle detection is skipped.
type Suppression struct {
	Name   string
	Active func(now time.Time) bool
}

// Config contains runtime options for the Monitor.
type Config struct {
	MouseThreshold    time.Duration
	KeyboardThreshold time.Duration
	PollInterval      time.Duration
	EvalInterval      time.Duration
	Now               func() time.Time
}

// Monitor tracks the last mouse and keyboard activity and publishes
// idle/active transitions.
type Monitor struct {
	mu     sync.Mutex
	bus    observer.Publisher
	logger *slog.Logger
	config Config

	cursor       CursorSource
	keyboard     KeyboardSource
	suppressions []Suppression

	lastMouseActivity    time.Time
	lastKeyboardActivity time.Time
	isIdle               bool
	idleStartTime        time.Time
	accumulatedIdleTime  time.Duration
	loginWindow          bool

	cursorX, cursorY int
	cursorSeen       bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMonitor creates a stopped monitor. Either source may be nil, in which
// case only RecordMouseActivity and RecordKeyPress feed that signal.
// Extra suppressions run after the built-in login window check.
func NewMonitor(cursor CursorSource, keyboard KeyboardSource, bus observer.Publisher, logger *slog.Logger, config Config, suppressions ...Suppression) *Monitor {
	if config.MouseThreshold <= 0 {
		config.MouseThreshold = defaultThreshold
	}
	if config.KeyboardThreshold <= 0 {
		config.KeyboardThreshold = defaultThreshold
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 100 * time.Millisecond
	}
	if config.EvalInterval <= 0 {
		config.EvalInterval = time.Second
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	now := config.Now()
	m := &Monitor{
		bus:                  bus,
		logger:               logger,
		config:               config,
		cursor:               cursor,
		keyboard:             keyboard,
		lastMouseActivity:    now,
		lastKeyboardActivity: now,
	}
	m.suppressions = append([]Suppression{{Name: "login_window", Active: m.inLoginWindow}}, suppressions...)
	return m
}

// BreakTime suppresses detection while isBreak reports true, typically
// calendar.Calendar.IsBreak.
func BreakTime(isBreak func(time.Time) bool) Suppression {
	return Suppression{Name: "break_time", Active: isBreak}
}

// SetLoginWindow toggles the login suppression.
func (m *Monitor) SetLoginWindow(active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginWindow = active
}

// inLoginWindow is called with mu held.
func (m *Monitor) inLoginWindow(time.Time) bool {
	return m.loginWindow
}

// Start launches the polling loop, the keyboard listener and the
// evaluation loop.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return ErrAlreadyStarted
	}

	now := m.config.Now()
	m.lastMouseActivity = now
	m.lastKeyboardActivity = now
	m.cursorSeen = false

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	if m.cursor != nil {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.pollCursor(ctx)
		}()
	}
	if m.keyboard != nil {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			m.listenKeyboard(ctx)
		}()
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.evaluateLoop(ctx)
	}()

	m.logger.Info("idle monitor started", "mouse_threshold", m.config.MouseThreshold, "keyboard_threshold", m.config.KeyboardThreshold)
	return nil
}

// Stop cancels all background work and waits for it to finish. It is safe
// to call on a stopped monitor.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	m.wg.Wait()
	m.logger.Info("idle monitor stopped")
}

// RecordMouseActivity marks pointer input at the current time.
func (m *Monitor) RecordMouseActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.config.Now()
	m.lastMouseActivity = now
	m.becomeActiveLocked(now)
}

// RecordKeyPress marks keyboard input at the current time.
func (m *Monitor) RecordKeyPress() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.config.Now()
	m.lastKeyboardActivity = now
	m.becomeActiveLocked(now)
}

// Evaluate runs one detection step. Suppressions are checked first; while
// one is active the monitor is forced active and input timestamps are
// refreshed so detection restarts from the end of the suppressed span.
func (m *Monitor) Evaluate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.config.Now()

	for _, s := range m.suppressions {
		if s.Active != nil && s.Active(now) {
			m.lastMouseActivity = now
			m.lastKeyboardActivity = now
			m.becomeActiveLocked(now)
			return
		}
	}

	mouseIdle := now.Sub(m.lastMouseActivity) > m.config.MouseThreshold
	keyboardIdle := now.Sub(m.lastKeyboardActivity) > m.config.KeyboardThreshold
	if mouseIdle && keyboardIdle {
		m.becomeIdleLocked(now)
		return
	}
	m.becomeActiveLocked(now)
}

// IsIdle reports the current detection result.
func (m *Monitor) IsIdle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isIdle
}

// GetAccumulatedIdleTime returns the banked idle time plus any idle span in
// progress.
func (m *Monitor) GetAccumulatedIdleTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := m.accumulatedIdleTime
	if m.isIdle {
		total += m.config.Now().Sub(m.idleStartTime)
	}
	return total.Truncate(time.Second)
}

// ResetAccumulatedIdleTime zeroes the bank after it has been flushed. An
// idle span in progress restarts from now so it is not counted twice.
func (m *Monitor) ResetAccumulatedIdleTime() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accumulatedIdleTime = 0
	if m.isIdle {
		m.idleStartTime = m.config.Now()
	}
}

func (m *Monitor) becomeIdleLocked(now time.Time) {
	if m.isIdle {
		return
	}
	m.isIdle = true
	m.idleStartTime = now
	m.logger.Debug("input idle", "since_mouse", now.Sub(m.lastMouseActivity), "since_keyboard", now.Sub(m.lastKeyboardActivity))
	m.bus.PublishIdleStatus(observer.IdleStatusIdle)
}

func (m *Monitor) becomeActiveLocked(now time.Time) {
	if !m.isIdle {
		return
	}
	m.isIdle = false
	if span := now.Sub(m.idleStartTime); span > 0 {
		m.accumulatedIdleTime += span
	}
	m.idleStartTime = time.Time{}
	m.logger.Debug("input active", "idle_total", m.accumulatedIdleTime)
	m.bus.PublishIdleStatus(observer.IdleStatusActive)
}

func (m *Monitor) evaluateLoop(ctx context.Context) {
	ticker := time.NewTicker(m.config.EvalInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Evaluate()
		}
	}
}

func (m *Monitor) pollCursor(ctx context.Context) {
	ticker := time.NewTicker(m.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			x, y, err := m.cursor.CursorPosition(ctx)
			if err != nil {
				if errors.Is(err, ErrUnsupported) {
					m.logger.Info("cursor polling unavailable", "error", err)
					return
				}
				if ctx.Err() == nil {
					m.logger.Debug("cursor sample failed", "error", err)
				}
				continue
			}
			m.observeCursor(x, y)
		}
	}
}

func (m *Monitor) observeCursor(x, y int) {
	m.mu.Lock()
	moved := m.cursorSeen && (x != m.cursorX || y != m.cursorY)
	m.cursorX, m.cursorY = x, y
	m.cursorSeen = true
	m.mu.Unlock()

	if moved {
		m.RecordMouseActivity()
	}
}

func (m *Monitor) listenKeyboard(ctx context.Context) {
	err := m.keyboard.Listen(ctx, m.RecordKeyPress)
	switch {
	case err == nil, ctx.Err() != nil:
	case errors.Is(err, ErrUnsupported):
		m.logger.Info("keyboard listener unavailable", "error", err)
	default:
		m.logger.Warn("keyboard listener stopped", "error", err)
	}
}
