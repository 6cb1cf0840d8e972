package usage

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/daap14/coachgate/internal/storage"
)

// incrementScript resets the counter hash when its period differs from
// ARGV[1] or its count is not a number, then increments it. Redis runs the
// script atomically.
//
// KEYS[1] = counter hash
// ARGV[1] = period start (unix millis)
// ARGV[2] = now (unix millis)
var incrementScript = redis.NewScript(`
local stored = redis.call('HGET', KEYS[1], 'period_start')
local count = tonumber(redis.call('HGET', KEYS[1], 'count'))
if stored ~= ARGV[1] or count == nil then
	redis.call('HSET', KEYS[1], 'period_start', ARGV[1], 'count', 0)
end
count = redis.call('HINCRBY', KEYS[1], 'count', 1)
redis.call('HSET', KEYS[1], 'updated_at', ARGV[2])
return count
`)

// RedisStore implements Store with one hash per key.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore creates a Store backed by Redis.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func counterKey(key Key) string {
	return storage.KeyPrefix + "usage:" + key.UserID.String() + ":" + string(key.ToolID)
}

func (s *RedisStore) Increment(ctx context.Context, key Key, periodStart, now time.Time) (Counter, error) {
	start := periodStart.UTC().UnixMilli()
	count, err := incrementScript.Run(ctx, s.client,
		[]string{counterKey(key)},
		strconv.FormatInt(start, 10), strconv.FormatInt(now.UTC().UnixMilli(), 10),
	).Int64()
	if err != nil {
		return Counter{}, storage.Unavailable("increment usage", err)
	}
	return Counter{Count: count, PeriodStart: time.UnixMilli(start).UTC()}, nil
}

func (s *RedisStore) Load(ctx context.Context, key Key) (Counter, bool, error) {
	vals, err := s.client.HMGet(ctx, counterKey(key), "count", "period_start").Result()
	if err != nil {
		return Counter{}, false, storage.Unavailable("load usage", err)
	}
	if vals[0] == nil || vals[1] == nil {
		return Counter{}, false, nil
	}

	// A hash the increment script would reset reads as absent.
	count, err := parseInt(vals[0])
	if err != nil {
		slog.Warn("unreadable usage counter; treating as reset", "key", counterKey(key), "field", "count", "error", err)
		return Counter{}, false, nil
	}
	start, err := parseInt(vals[1])
	if err != nil {
		slog.Warn("unreadable usage counter; treating as reset", "key", counterKey(key), "field", "period_start", "error", err)
		return Counter{}, false, nil
	}
	return Counter{Count: count, PeriodStart: time.UnixMilli(start).UTC()}, true, nil
}

func parseInt(v any) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, errors.New("usage counter field is not a string")
	}
	return strconv.ParseInt(s, 10, 64)
}
