package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Avflux/Av-sub001/internal/calendar"
	"github.com/Avflux/Av-sub001/internal/domain/activity"
	"github.com/Avflux/Av-sub001/internal/repository"
)

// ActivityRepository implements activity.Repository for SQLite
type ActivityRepository struct {
	db     *DB
	logger *slog.Logger
}

// NewActivityRepository creates a new ActivityRepository. Malformed stored
// durations are reported to logger and read as zero.
func NewActivityRepository(db *DB, logger *slog.Logger) *ActivityRepository {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ActivityRepository{db: db, logger: logger}
}

const activityColumns = `
	id, user_id, name, description, start_time, end_time,
	time_regress, time_exceeded, total_time, idle_time,
	active, paused, completed, reason, current_mode, created_at, updated_at
`

// Create inserts a new activity
func (r *ActivityRepository) Create(ctx context.Context, act *activity.Activity) error {
	now := time.Now()
	if act.CreatedAt.IsZero() {
		act.CreatedAt = now
	}
	if act.UpdatedAt.IsZero() {
		act.UpdatedAt = act.CreatedAt
	}
	if act.Status == "" {
		act.Status = activity.StatusPaused
	}
	if act.Mode == "" {
		act.Mode = activity.ModeRegressive
	}
	active, paused, completed := act.Status.Flags()

	query := `INSERT INTO activities (` + activityColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		act.ID,
		act.UserID,
		act.Name,
		act.Description,
		act.StartTime,
		act.EndTime,
		calendar.FormatDuration(act.TimeRegress),
		calendar.FormatDuration(act.TimeExceeded),
		calendar.FormatDuration(act.TotalTime),
		calendar.FormatDuration(act.IdleTime),
		active,
		paused,
		completed,
		act.Reason,
		act.Mode,
		act.CreatedAt,
		act.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

// LoadActivity retrieves an activity by ID
func (r *ActivityRepository) LoadActivity(ctx context.Context, id string) (*activity.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE id = ?`
	act, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}
	return act, nil
}

// List returns activities matching the given filters, newest first
func (r *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE 1 = 1`
	args := []interface{}{}
	conditions := []string{}

	if opts.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, opts.UserID)
	}
	if opts.Status != nil {
		switch *opts.Status {
		case activity.StatusActive:
			conditions = append(conditions, "active = 1")
		case activity.StatusPaused:
			conditions = append(conditions, "paused = 1")
		case activity.StatusCompleted:
			conditions = append(conditions, "completed = 1")
		default:
			return nil, fmt.Errorf("%w: unknown status %q", repository.ErrInvalidInput, *opts.Status)
		}
	}

	if len(conditions) > 0 {
		query += " AND " + joinConditions(conditions)
	}
	query += " ORDER BY created_at DESC, id"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		if opts.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var acts []activity.Activity
	for rows.Next() {
		act, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		acts = append(acts, *act)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}
	return acts, nil
}

// SaveActivityTimer writes the timer columns only. Writing the same values
// twice leaves the row unchanged apart from updated_at.
func (r *ActivityRepository) SaveActivityTimer(ctx context.Context, id string, cols activity.TimerColumns) error {
	mode := cols.Mode
	if mode == "" {
		mode = activity.ModeRegressive
	}
	query := `
		UPDATE activities
		SET total_time = ?, time_regress = ?, time_exceeded = ?, current_mode = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		calendar.FormatDuration(cols.TotalTime),
		calendar.FormatDuration(cols.TimeRegress),
		calendar.FormatDuration(cols.TimeExceeded),
		mode,
		time.Now(),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to save activity timer: %w", err)
	}
	return requireAffected(result)
}

// MarkActivityStatus sets exactly one of the active/paused/completed flags.
func (r *ActivityRepository) MarkActivityStatus(ctx context.Context, id string, status activity.Status) error {
	active, paused, completed := status.Flags()
	if !active && !paused && !completed {
		return fmt.Errorf("%w: unknown status %q", repository.ErrInvalidInput, status)
	}
	query := `UPDATE activities SET active = ?, paused = ?, completed = ?, updated_at = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, active, paused, completed, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark activity status: %w", err)
	}
	return requireAffected(result)
}

// SetReason stores the justification for a concluded activity.
func (r *ActivityRepository) SetReason(ctx context.Context, id, reason string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE activities SET reason = ?, updated_at = ? WHERE id = ?`,
		reason, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set activity reason: %w", err)
	}
	return requireAffected(result)
}

// AddIdleTime adds idle to the stored idle_time.
func (r *ActivityRepository) AddIdleTime(ctx context.Context, id string, idle time.Duration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var stored string
	err = tx.QueryRowContext(ctx, `SELECT idle_time FROM activities WHERE id = ?`, id).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read idle time: %w", err)
	}

	total := r.parse(id, "idle_time", stored) + idle
	if _, err := tx.ExecContext(ctx,
		`UPDATE activities SET idle_time = ?, updated_at = ? WHERE id = ?`,
		calendar.FormatDuration(total), time.Now(), id); err != nil {
		return fmt.Errorf("failed to update idle time: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit idle time: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *ActivityRepository) scan(row rowScanner) (*activity.Activity, error) {
	var act activity.Activity
	var regress, exceeded, total, idle string
	var active, paused, completed bool
	var reason sql.NullString
	if err := row.Scan(
		&act.ID,
		&act.UserID,
		&act.Name,
		&act.Description,
		&act.StartTime,
		&act.EndTime,
		&regress,
		&exceeded,
		&total,
		&idle,
		&active,
		&paused,
		&completed,
		&reason,
		&act.Mode,
		&act.CreatedAt,
		&act.UpdatedAt,
	); err != nil {
		return nil, err
	}

	status, err := activity.StatusFromFlags(active, paused, completed)
	if err != nil {
		return nil, err
	}
	act.Status = status
	act.TimeRegress = r.parse(act.ID, "time_regress", regress)
	act.TimeExceeded = r.parse(act.ID, "time_exceeded", exceeded)
	act.TotalTime = r.parse(act.ID, "total_time", total)
	act.IdleTime = r.parse(act.ID, "idle_time", idle)
	if reason.Valid {
		act.Reason = &reason.String
	}
	return &act, nil
}

func (r *ActivityRepository) parse(id, column, value string) time.Duration {
	return calendar.ParseDurationOrZero(value, r.logger.With("activity_id", id, "column", column))
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
