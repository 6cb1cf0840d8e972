package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a pgxpool.Pool for coachgate's PostgreSQL backend.
type DB struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a new DB by parsing the given database URL and establishing a connection pool.
func NewPostgres(ctx context.Context, databaseURL string) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Migrate creates the coachgate tables if they do not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.pool.Close()
}

// Ping verifies the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Pool returns the underlying pgxpool.Pool for repository use.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS user_tiers (
	user_id    UUID PRIMARY KEY,
	tier       TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS usage_counters (
	user_id      UUID NOT NULL,
	tool_id      TEXT NOT NULL,
	period_start TIMESTAMPTZ NOT NULL,
	count        BIGINT NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, tool_id)
);

CREATE TABLE IF NOT EXISTS completion_events (
	user_id           UUID NOT NULL,
	tool_id           TEXT NOT NULL,
	action_key        TEXT NOT NULL,
	first_occurred_at TIMESTAMPTZ NOT NULL,
	metadata          JSONB,
	PRIMARY KEY (user_id, tool_id, action_key)
);

CREATE TABLE IF NOT EXISTS api_clients (
	id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name           TEXT NOT NULL,
	role           TEXT NOT NULL,
	api_key_prefix TEXT NOT NULL,
	api_key_hash   TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	revoked_at     TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_api_clients_prefix
	ON api_clients (api_key_prefix) WHERE revoked_at IS NULL;
`
