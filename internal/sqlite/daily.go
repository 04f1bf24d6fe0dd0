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
)

// DailyRepository implements daily.Store for SQLite
type DailyRepository struct {
	db     *DB
	logger *slog.Logger
}

// NewDailyRepository creates a new DailyRepository
func NewDailyRepository(db *DB, logger *slog.Logger) *DailyRepository {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &DailyRepository{db: db, logger: logger}
}

// LoadDay returns the stored total for the calendar day of day, or zero
// when nothing was stored yet.
func (r *DailyRepository) LoadDay(ctx context.Context, userID string, day time.Time) (time.Duration, error) {
	var stored string
	err := r.db.QueryRowContext(ctx,
		`SELECT accumulated FROM daily_hours WHERE user_id = ? AND day = ?`,
		userID, day.Format(time.DateOnly)).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load daily hours: %w", err)
	}
	return calendar.ParseDurationOrZero(stored, r.logger.With("user_id", userID, "column", "accumulated")), nil
}

// SaveDay upserts the total for the calendar day of day.
func (r *DailyRepository) SaveDay(ctx context.Context, userID string, day time.Time, accumulated time.Duration) error {
	query := `
		INSERT INTO daily_hours (user_id, day, accumulated, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, day) DO UPDATE SET
			accumulated = excluded.accumulated,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		userID,
		day.Format(time.DateOnly),
		calendar.FormatDuration(accumulated),
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save daily hours: %w", err)
	}
	return nil
}
