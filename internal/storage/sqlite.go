package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// sqliteSchema is applied statement by statement. Instants are stored as
// unix milliseconds in UTC.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS user_tiers (
		user_id    TEXT PRIMARY KEY,
		tier       TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS usage_counters (
		user_id      TEXT NOT NULL,
		tool_id      TEXT NOT NULL,
		period_start INTEGER NOT NULL,
		count        INTEGER NOT NULL,
		updated_at   INTEGER NOT NULL,
		PRIMARY KEY (user_id, tool_id)
	)`,
	`CREATE TABLE IF NOT EXISTS completion_events (
		user_id           TEXT NOT NULL,
		tool_id           TEXT NOT NULL,
		action_key        TEXT NOT NULL,
		first_occurred_at INTEGER NOT NULL,
		metadata          TEXT,
		PRIMARY KEY (user_id, tool_id, action_key)
	)`,
}

// OpenSQLite opens (or creates) the SQLite database at path and applies the
// schema. The pool is limited to one connection: writes are serialized by
// SQLite anyway and ":memory:" databases are per connection.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configuring sqlite: %w", err)
	}

	if err := MigrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// MigrateSQLite creates the coachgate tables if they do not exist yet.
func MigrateSQLite(ctx context.Context, db *sql.DB) error {
	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying sqlite schema: %w", err)
		}
	}
	return nil
}
