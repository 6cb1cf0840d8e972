package tier

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository implements Repository in memory.
// Thread-safe via RWMutex.
type MemoryRepository struct {
	mu    sync.RWMutex
	tiers map[uuid.UUID]Tier
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tiers: make(map[uuid.UUID]Tier)}
}

func (r *MemoryRepository) Get(_ context.Context, userID uuid.UUID) (Tier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.tiers[userID]; ok {
		return t, nil
	}
	return Free, nil
}

func (r *MemoryRepository) Set(_ context.Context, userID uuid.UUID, t Tier) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownTier, int(t))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tiers[userID] = t
	return nil
}
