package tier

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/daap14/coachgate/internal/storage"
)

// SQLiteRepository implements Repository on the SQLite user_tiers table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a Repository backed by SQLite.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Get returns the user's current tier, or Free when no row exists.
func (r *SQLiteRepository) Get(ctx context.Context, userID uuid.UUID) (Tier, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT tier FROM user_tiers WHERE user_id = ?`, userID.String()).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return Free, nil
	}
	if err != nil {
		return Free, storage.Unavailable("get tier", err)
	}

	t, err := Parse(name)
	if err != nil {
		return Free, fmt.Errorf("stored tier for user %s: %w", userID, err)
	}
	return t, nil
}

// Set upserts the user's tier.
func (r *SQLiteRepository) Set(ctx context.Context, userID uuid.UUID, t Tier) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownTier, int(t))
	}

	query := `
		INSERT INTO user_tiers (user_id, tier, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			tier = excluded.tier,
			updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query, userID.String(), t.String(), time.Now().UTC().UnixMilli())
	if err != nil {
		return storage.Unavailable("set tier", err)
	}
	return nil
}
