package journal

import "errors"

var (
	// ErrInvalidInput is returned for a nil or incomplete entry.
	ErrInvalidInput = errors.New("invalid journal input")
)
