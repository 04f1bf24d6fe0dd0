package mcp

import (
	"errors"
	"fmt"

	"github.com/Avflux/Av-sub001/internal/domain/activity"
	"github.com/Avflux/Av-sub001/internal/domain/journal"
	"github.com/Avflux/Av-sub001/internal/timer"
)

// APIError is the error reported back to the tool caller.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Unknown errors map to nil.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, activity.ErrActivityNotFound):
		return &APIError{Code: "ACTIVITY_NOT_FOUND", Message: "activity not found", RecoveryHint: "Call list_activities to find valid IDs"}
	case errors.Is(err, activity.ErrReasonRequired):
		return &APIError{Code: "REASON_REQUIRED", Message: "activity exceeded its estimate", RecoveryHint: "Call stop_activity again with a reason"}
	case errors.Is(err, activity.ErrAlreadyCompleted):
		return &APIError{Code: "ALREADY_COMPLETED", Message: "activity already completed"}
	case errors.Is(err, activity.ErrInvalidInput), errors.Is(err, journal.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, timer.ErrActivityBound):
		return &APIError{Code: "ACTIVITY_BOUND", Message: "another activity holds the timer", RecoveryHint: "Stop the current activity first"}
	case errors.Is(err, timer.ErrNoActivity):
		return &APIError{Code: "NO_ACTIVITY", Message: "no activity bound to the timer", RecoveryHint: "Call start_activity first"}
	case errors.Is(err, timer.ErrNotRunning):
		return &APIError{Code: "NOT_RUNNING", Message: "timer is not running"}
	case errors.Is(err, timer.ErrNotPaused):
		return &APIError{Code: "NOT_PAUSED", Message: "activity is not paused"}
	case errors.Is(err, timer.ErrAlreadyRunning):
		return &APIError{Code: "ALREADY_RUNNING", Message: "timer is already running"}
	default:
		return nil
	}
}

// toolError converts err into the error returned from a tool handler.
func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return &APIError{Code: "INTERNAL", Message: err.Error()}
}
