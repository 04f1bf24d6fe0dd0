package journal

import "time"

// EntryType is the kind of lifecycle event recorded in the journal.
type EntryType string

const (
	TypeTimerStarted EntryType = "timer_started"
	TypeTimerPaused  EntryType = "timer_paused"
	TypeTimerResumed EntryType = "timer_resumed"
	TypeTimerStopped EntryType = "timer_stopped"
	TypeTimeExceeded EntryType = "time_exceeded"
	TypeIdleStarted  EntryType = "idle_started"
	TypeIdleEnded    EntryType = "idle_ended"
)

// Entry is one event in the timer journal.
type Entry struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	ActivityID *string   `json:"activity_id,omitempty"`
	Type       EntryType `json:"type"`
	Summary    string    `json:"summary"`
	Details    string    `json:"details,omitempty"` // JSON string
	CreatedAt  time.Time `json:"created_at"`
}

// ListOptions provides filtering options for listing journal entries.
type ListOptions struct {
	UserID     string
	ActivityID *string
	Type       *EntryType
	Limit      int
	Offset     int
}
