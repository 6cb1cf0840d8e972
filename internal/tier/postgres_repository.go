package tier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/daap14/coachgate/internal/storage"
)

// PostgresRepository implements Repository on the user_tiers table.
type PostgresRepository struct {
	db storage.DBTX
}

// NewPostgresRepository creates a new Repository backed by the given connection pool.
func NewPostgresRepository(db storage.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the user's current tier, or Free when no row exists.
func (r *PostgresRepository) Get(ctx context.Context, userID uuid.UUID) (Tier, error) {
	var name string
	err := r.db.QueryRow(ctx, `SELECT tier FROM user_tiers WHERE user_id = $1`, userID).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Free, nil
		}
		return Free, storage.Unavailable("get tier", err)
	}

	t, err := Parse(name)
	if err != nil {
		return Free, fmt.Errorf("stored tier for user %s: %w", userID, err)
	}
	return t, nil
}

// Set upserts the user's tier.
func (r *PostgresRepository) Set(ctx context.Context, userID uuid.UUID, t Tier) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownTier, int(t))
	}

	query := `
		INSERT INTO user_tiers (user_id, tier, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			tier = EXCLUDED.tier,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query, userID, t.String(), time.Now().UTC())
	if err != nil {
		return storage.Unavailable("set tier", err)
	}
	return nil
}
