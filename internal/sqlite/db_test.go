package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"activities",
		"daily_hours",
		"timer_journal",
		"api_keys",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}
}

// TestMigrationsAreRepeatable verifies the schema can be applied on every start
func TestMigrationsAreRepeatable(t *testing.T) {
	db := NewTestDB(t)
	require.NoError(t, db.RunMigrations())
}

// TestForeignKeys verifies that foreign key constraints are enabled
func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")
}

// TestActivitiesTable verifies the status and mode constraints
func TestActivitiesTable(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	insert := `INSERT INTO activities (id, user_id, name, start_time, end_time, active, paused, completed, current_mode)
		VALUES (?, 'u1', 'Drafting', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP, ?, ?, ?, ?)`

	_, err := db.ExecContext(ctx, insert, "a1", 0, 1, 0, "regressive")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, insert, "a2", 1, 1, 0, "regressive")
	require.Error(t, err, "should fail with two status flags set")

	_, err = db.ExecContext(ctx, insert, "a3", 0, 0, 0, "regressive")
	require.Error(t, err, "should fail with no status flag set")

	_, err = db.ExecContext(ctx, insert, "a4", 1, 0, 0, "sideways")
	require.Error(t, err, "should fail with invalid mode")

	var regress string
	err = db.QueryRowContext(ctx, `SELECT time_regress FROM activities WHERE id = 'a1'`).Scan(&regress)
	require.NoError(t, err)
	require.Equal(t, "00:00:00", regress)
}
