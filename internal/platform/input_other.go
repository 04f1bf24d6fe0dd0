//go:build !linux && !windows && !darwin

package platform

import "github.com/Avflux/Av-sub001/internal/idle"

func newCursorSource() idle.CursorSource {
	return unsupportedCursor{}
}

func newIdleProber() IdleProber {
	return unsupportedProber{}
}
