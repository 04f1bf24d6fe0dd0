package activity

import (
	"fmt"
	"time"
)

// Mode is the timer direction of an activity.
type Mode string

const (
	// ModeRegressive counts down from the estimate toward zero.
	ModeRegressive Mode = "regressive"
	// ModeProgressive counts overtime up from zero once the estimate is spent.
	ModeProgressive Mode = "progressive"
)

// Status is the lifecycle status of an activity. Storage keeps it as three
// flags of which exactly one is set.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// Flags expands the status into the stored active/paused/completed columns.
func (s Status) Flags() (active, paused, completed bool) {
	switch s {
	case StatusActive:
		return true, false, false
	case StatusPaused:
		return false, true, false
	case StatusCompleted:
		return false, false, true
	default:
		return false, false, false
	}
}

// StatusFromFlags folds the stored flags back into a Status.
func StatusFromFlags(active, paused, completed bool) (Status, error) {
	switch {
	case active && !paused && !completed:
		return StatusActive, nil
	case paused && !active && !completed:
		return StatusPaused, nil
	case completed && !active && !paused:
		return StatusCompleted, nil
	default:
		return "", fmt.Errorf("%w: active=%t paused=%t completed=%t", ErrInvalidStatus, active, paused, completed)
	}
}

// Activity is one unit of estimated work performed by a user.
type Activity struct {
	ID           string
	UserID       string
	Name         string
	Description  string
	StartTime    time.Time
	EndTime      time.Time
	TimeRegress  time.Duration
	TimeExceeded time.Duration
	TotalTime    time.Duration
	IdleTime     time.Duration
	Status       Status
	Reason       *string
	Mode         Mode
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Info is the lightweight description handed to observers.
type Info struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	Mode        Mode      `json:"mode"`
	EndTime     time.Time `json:"end_time"`
}

// Info returns the observer-facing view of the activity.
func (a *Activity) Info() Info {
	return Info{
		ID:          a.ID,
		UserID:      a.UserID,
		Name:        a.Name,
		Description: a.Description,
		Status:      a.Status,
		Mode:        a.Mode,
		EndTime:     a.EndTime,
	}
}

// TimerColumns are the timer-related columns written on every flush.
// TimeRegress and TimeExceeded are never both non-zero.
type TimerColumns struct {
	TotalTime    time.Duration
	TimeRegress  time.Duration
	TimeExceeded time.Duration
	Mode         Mode
}

// ListOptions filters activity listings.
type ListOptions struct {
	UserID string
	Status *Status
	Limit  int
	Offset int
}
