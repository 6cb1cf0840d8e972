package auth

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository implements ClientRepository in memory. It backs the
// redis, sqlite and memory store backends, where clients do not survive a
// restart and the admin key is bootstrapped on every boot.
type MemoryRepository struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]Client
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{clients: make(map[uuid.UUID]Client)}
}

func (r *MemoryRepository) Create(_ context.Context, c *Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c.ID = uuid.New()
	c.CreatedAt = time.Now().UTC()
	r.clients[c.ID] = *c
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[id]
	if !ok {
		return nil, ErrClientNotFound
	}
	return &c, nil
}

func (r *MemoryRepository) FindByPrefix(_ context.Context, prefix string) ([]Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []Client{}
	for _, c := range r.clients {
		if c.ApiKeyPrefix == prefix && c.RevokedAt == nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *MemoryRepository) List(_ context.Context) ([]Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) Revoke(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[id]
	if !ok {
		return ErrClientNotFound
	}
	if c.RevokedAt != nil {
		return ErrClientRevoked
	}
	now := time.Now().UTC()
	c.RevokedAt = &now
	r.clients[id] = c
	return nil
}

func (r *MemoryRepository) CountAll(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients), nil
}
