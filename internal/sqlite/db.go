package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serializes
	// writers from the timer, daily and journal flushes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema if it does not exist yet.
func (db *DB) RunMigrations() error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

const schema = `
-- Activities; durations are stored as HH:MM:SS text
CREATE TABLE IF NOT EXISTS activities (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    start_time TIMESTAMP NOT NULL,
    end_time TIMESTAMP NOT NULL,
    time_regress TEXT NOT NULL DEFAULT '00:00:00',
    time_exceeded TEXT NOT NULL DEFAULT '00:00:00',
    total_time TEXT NOT NULL DEFAULT '00:00:00',
    idle_time TEXT NOT NULL DEFAULT '00:00:00',
    active INTEGER NOT NULL DEFAULT 0,
    paused INTEGER NOT NULL DEFAULT 1,
    completed INTEGER NOT NULL DEFAULT 0,
    reason TEXT,
    current_mode TEXT NOT NULL DEFAULT 'regressive' CHECK(current_mode IN ('regressive', 'progressive')),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    CHECK(active + paused + completed = 1)
);
CREATE INDEX IF NOT EXISTS idx_user_activities ON activities(user_id);
CREATE INDEX IF NOT EXISTS idx_activity_active ON activities(active);

-- Daily business time per user
CREATE TABLE IF NOT EXISTS daily_hours (
    user_id TEXT NOT NULL,
    day TEXT NOT NULL,
    accumulated TEXT NOT NULL DEFAULT '00:00:00',
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (user_id, day)
);

-- Timer journal
CREATE TABLE IF NOT EXISTS timer_journal (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    activity_id TEXT,
    entry_type TEXT NOT NULL,
    summary TEXT NOT NULL,
    details TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (activity_id) REFERENCES activities(id)
);
CREATE INDEX IF NOT EXISTS idx_user_journal ON timer_journal(user_id);
CREATE INDEX IF NOT EXISTS idx_activity_journal ON timer_journal(activity_id);
CREATE INDEX IF NOT EXISTS idx_journal_created_at ON timer_journal(created_at);

-- API keys for authentication
CREATE TABLE IF NOT EXISTS api_keys (
    key_hash TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    last_used TIMESTAMP,
    description TEXT
);
CREATE INDEX IF NOT EXISTS idx_user_keys ON api_keys(user_id);
`
