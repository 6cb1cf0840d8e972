package usage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/daap14/coachgate/internal/catalog"
)

// Key identifies the single live counter of a user for a tool.
type Key struct {
	UserID uuid.UUID
	ToolID catalog.ToolID
}

// Counter is the stored state of one key.
type Counter struct {
	Count       int64
	PeriodStart time.Time
}

// Store persists usage counters. Failures to reach the backend are wrapped
// with storage.Unavailable.
type Store interface {
	// Increment atomically resets the counter to zero at periodStart when it
	// is missing or its stored period start differs, then adds one and
	// returns the result. It never rejects over-limit increments.
	Increment(ctx context.Context, key Key, periodStart, now time.Time) (Counter, error)

	// Load returns the stored counter as is. The bool is false when the key
	// has never been incremented.
	Load(ctx context.Context, key Key) (Counter, bool, error)
}
