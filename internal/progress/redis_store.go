package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/daap14/coachgate/internal/catalog"
	"github.com/daap14/coachgate/internal/storage"
)

// RedisStore implements Store with one hash per (user, tool): field is the
// action key, value the JSON-encoded event. HSETNX makes Insert
// insert-if-absent.
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore creates a Store backed by Redis.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

type redisEvent struct {
	FirstOccurredAt time.Time       `json:"firstOccurredAt"`
	Metadata        json.RawMessage `json:"metadata,omitempty"`
}

func completionsKey(userID uuid.UUID, toolID catalog.ToolID) string {
	return storage.KeyPrefix + "completions:" + userID.String() + ":" + string(toolID)
}

func (s *RedisStore) Insert(ctx context.Context, e Event) (bool, error) {
	value, err := json.Marshal(redisEvent{FirstOccurredAt: e.FirstOccurredAt.UTC(), Metadata: e.Metadata})
	if err != nil {
		return false, fmt.Errorf("encoding completion: %w", err)
	}

	created, err := s.client.HSetNX(ctx, completionsKey(e.UserID, e.ToolID), e.ActionKey, value).Result()
	if err != nil {
		return false, storage.Unavailable("insert completion", err)
	}
	return created, nil
}

func (s *RedisStore) List(ctx context.Context, userID uuid.UUID, toolID catalog.ToolID) ([]Event, error) {
	fields, err := s.client.HGetAll(ctx, completionsKey(userID, toolID)).Result()
	if err != nil {
		return nil, storage.Unavailable("list completions", err)
	}

	events := make([]Event, 0, len(fields))
	for actionKey, raw := range fields {
		var re redisEvent
		if err := json.Unmarshal([]byte(raw), &re); err != nil {
			return nil, fmt.Errorf("decoding completion %s: %w", actionKey, err)
		}
		events = append(events, Event{
			UserID:          userID,
			ToolID:          toolID,
			ActionKey:       actionKey,
			FirstOccurredAt: re.FirstOccurredAt.UTC(),
			Metadata:        re.Metadata,
		})
	}
	sortEvents(events)
	return events, nil
}
