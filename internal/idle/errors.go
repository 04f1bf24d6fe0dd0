package idle

import "errors"

var (
	// ErrAlreadyStarted is returned by Start on a running monitor.
	ErrAlreadyStarted = errors.New("idle monitor already started")
	// ErrUnsupported indicates an input source is not available on this system.
	ErrUnsupported = errors.New("input source unsupported")
)
