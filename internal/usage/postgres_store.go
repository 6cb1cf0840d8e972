package usage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/daap14/coachgate/internal/storage"
)

// PostgresStore implements Store on the usage_counters table. Increment is
// a single upsert; the row lock taken by ON CONFLICT serializes concurrent
// increments of the same key.
type PostgresStore struct {
	db storage.DBTX
}

// NewPostgresStore creates a Store backed by PostgreSQL.
func NewPostgresStore(db storage.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Increment(ctx context.Context, key Key, periodStart, now time.Time) (Counter, error) {
	query := `
		INSERT INTO usage_counters (user_id, tool_id, period_start, count, updated_at)
		VALUES ($1, $2, $3, 1, $4)
		ON CONFLICT (user_id, tool_id) DO UPDATE SET
			count = CASE
				WHEN usage_counters.period_start = EXCLUDED.period_start THEN usage_counters.count + 1
				ELSE 1
			END,
			period_start = EXCLUDED.period_start,
			updated_at = EXCLUDED.updated_at
		RETURNING count, period_start`

	var c Counter
	err := s.db.QueryRow(ctx, query, key.UserID, string(key.ToolID), periodStart.UTC(), now.UTC()).
		Scan(&c.Count, &c.PeriodStart)
	if err != nil {
		return Counter{}, storage.Unavailable("increment usage", err)
	}
	c.PeriodStart = c.PeriodStart.UTC()
	return c, nil
}

func (s *PostgresStore) Load(ctx context.Context, key Key) (Counter, bool, error) {
	query := `SELECT count, period_start FROM usage_counters WHERE user_id = $1 AND tool_id = $2`

	var c Counter
	err := s.db.QueryRow(ctx, query, key.UserID, string(key.ToolID)).Scan(&c.Count, &c.PeriodStart)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Counter{}, false, nil
		}
		return Counter{}, false, storage.Unavailable("load usage", err)
	}
	c.PeriodStart = c.PeriodStart.UTC()
	return c, true, nil
}
