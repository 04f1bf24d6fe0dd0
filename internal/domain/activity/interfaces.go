package activity

import (
	"context"
	"time"
)

// Repository is the persistence gateway for activity rows.
type Repository interface {
	Create(ctx context.Context, act *Activity) error
	LoadActivity(ctx context.Context, id string) (*Activity, error)
	List(ctx context.Context, opts ListOptions) ([]Activity, error)
	// SaveActivityTimer upserts the timer columns only.
	SaveActivityTimer(ctx context.Context, id string, cols TimerColumns) error
	MarkActivityStatus(ctx context.Context, id string, status Status) error
	SetReason(ctx context.Context, id, reason string) error
	AddIdleTime(ctx context.Context, id string, idle time.Duration) error
}
