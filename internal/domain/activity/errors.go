package activity

import "errors"

var (
	// ErrActivityNotFound indicates the activity doesn't exist.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrInvalidInput indicates invalid activity input.
	ErrInvalidInput = errors.New("invalid activity input")
	// ErrInvalidStatus indicates stored status flags are inconsistent.
	ErrInvalidStatus = errors.New("invalid activity status")
	// ErrReasonRequired indicates an overtime activity was concluded without a reason.
	ErrReasonRequired = errors.New("reason required for exceeded activity")
	// ErrAlreadyCompleted indicates the activity was already concluded.
	ErrAlreadyCompleted = errors.New("activity already completed")
)
