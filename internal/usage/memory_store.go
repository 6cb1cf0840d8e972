package usage

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store in memory for single-instance deployments
// and tests. Increment holds one mutex for the whole read-modify-write.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[Key]Counter
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[Key]Counter)}
}

func (s *MemoryStore) Increment(_ context.Context, key Key, periodStart, _ time.Time) (Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok || !c.PeriodStart.Equal(periodStart) {
		c = Counter{PeriodStart: periodStart}
	}
	c.Count++
	s.counters[key] = c
	return c, nil
}

func (s *MemoryStore) Load(_ context.Context, key Key) (Counter, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	return c, ok, nil
}
