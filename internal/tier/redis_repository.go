package tier

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/daap14/coachgate/internal/storage"
)

// userTiersKey is a hash of user id -> tier name.
const userTiersKey = storage.KeyPrefix + "user_tiers"

// RedisRepository implements Repository on a single Redis hash.
type RedisRepository struct {
	client redis.Cmdable
}

// NewRedisRepository creates a Repository backed by Redis.
func NewRedisRepository(client redis.Cmdable) *RedisRepository {
	return &RedisRepository{client: client}
}

// Get returns the user's current tier, or Free when the field is missing.
func (r *RedisRepository) Get(ctx context.Context, userID uuid.UUID) (Tier, error) {
	name, err := r.client.HGet(ctx, userTiersKey, userID.String()).Result()
	if errors.Is(err, redis.Nil) {
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

// Set stores the user's tier.
func (r *RedisRepository) Set(ctx context.Context, userID uuid.UUID, t Tier) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownTier, int(t))
	}
	if err := r.client.HSet(ctx, userTiersKey, userID.String(), t.String()).Err(); err != nil {
		return storage.Unavailable("set tier", err)
	}
	return nil
}
