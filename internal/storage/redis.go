package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces every key coachgate writes to Redis.
const KeyPrefix = "coachgate:"

// NewRedis creates a Redis client and verifies the server is reachable.
func NewRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}
