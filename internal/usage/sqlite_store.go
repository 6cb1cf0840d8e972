package usage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/daap14/coachgate/internal/storage"
)

// SQLiteStore implements Store on the SQLite usage_counters table.
// Instants are unix milliseconds.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a Store backed by SQLite.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Increment(ctx context.Context, key Key, periodStart, now time.Time) (Counter, error) {
	query := `
		INSERT INTO usage_counters (user_id, tool_id, period_start, count, updated_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT (user_id, tool_id) DO UPDATE SET
			count = CASE
				WHEN usage_counters.period_start = excluded.period_start THEN usage_counters.count + 1
				ELSE 1
			END,
			period_start = excluded.period_start,
			updated_at = excluded.updated_at
		RETURNING count, period_start`

	var (
		c     Counter
		start int64
	)
	err := s.db.QueryRowContext(ctx, query,
		key.UserID.String(), string(key.ToolID), periodStart.UTC().UnixMilli(), now.UTC().UnixMilli(),
	).Scan(&c.Count, &start)
	if err != nil {
		return Counter{}, storage.Unavailable("increment usage", err)
	}
	c.PeriodStart = time.UnixMilli(start).UTC()
	return c, nil
}

func (s *SQLiteStore) Load(ctx context.Context, key Key) (Counter, bool, error) {
	query := `SELECT count, period_start FROM usage_counters WHERE user_id = ? AND tool_id = ?`

	var (
		c     Counter
		start int64
	)
	err := s.db.QueryRowContext(ctx, query, key.UserID.String(), string(key.ToolID)).Scan(&c.Count, &start)
	if errors.Is(err, sql.ErrNoRows) {
		return Counter{}, false, nil
	}
	if err != nil {
		return Counter{}, false, storage.Unavailable("load usage", err)
	}
	c.PeriodStart = time.UnixMilli(start).UTC()
	return c, true, nil
}
