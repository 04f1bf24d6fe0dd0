// Package platform provides per-OS input activity sources for the idle
// monitor.
package platform

import (
	"context"
	"errors"
	"time"

	"github.com/Avflux/Av-sub001/internal/idle"
)

// ErrUnsupported indicates an input source is not available on this system.
var ErrUnsupported = idle.ErrUnsupported

const defaultProbeInterval = 200 * time.Millisecond

// IdleProber reports the time since the last input event of any kind.
type IdleProber interface {
	IdleDuration(ctx context.Context) (time.Duration, error)
}

// ProbeListener turns an idle-duration probe into pushed input events: a
// sample smaller than the previous one means input arrived in between.
type ProbeListener struct {
	prober   IdleProber
	interval time.Duration
}

// NewProbeListener creates a listener sampling prober every interval.
func NewProbeListener(prober IdleProber, interval time.Duration) *ProbeListener {
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	return &ProbeListener{prober: prober, interval: interval}
}

// Listen calls onKey for every detected input until ctx is canceled. It
// returns ErrUnsupported if the probe is unavailable.
func (l *ProbeListener) Listen(ctx context.Context, onKey func()) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	var previous time.Duration
	seen := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			current, err := l.prober.IdleDuration(ctx)
			if err != nil {
				if errors.Is(err, ErrUnsupported) {
					return err
				}
				continue
			}
			if seen && current < previous {
				onKey()
			}
			previous = current
			seen = true
		}
	}
}

// Sources returns the cursor and keyboard sources for the running OS.
// Unavailable sources return ErrUnsupported when used.
func Sources() (idle.CursorSource, idle.KeyboardSource) {
	return newCursorSource(), NewProbeListener(newIdleProber(), defaultProbeInterval)
}

type unsupportedCursor struct{}

func (unsupportedCursor) CursorPosition(context.Context) (int, int, error) {
	return 0, 0, ErrUnsupported
}

type unsupportedProber struct{}

func (unsupportedProber) IdleDuration(context.Context) (time.Duration, error) {
	return 0, ErrUnsupported
}
