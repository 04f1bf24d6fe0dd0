package timer

import "errors"

var (
	// ErrActivityBound indicates another activity already holds the engine.
	ErrActivityBound = errors.New("an activity is already bound to the timer")
	// ErrNoActivity indicates no activity is bound.
	ErrNoActivity = errors.New("no activity bound to the timer")
	// ErrNotRunning indicates the timer is not running.
	ErrNotRunning = errors.New("timer is not running")
	// ErrNotPaused indicates the activity has no paused state to resume.
	ErrNotPaused = errors.New("activity is not paused")
	// ErrAlreadyRunning indicates the timer is already running.
	ErrAlreadyRunning = errors.New("timer is already running")
)
