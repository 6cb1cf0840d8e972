package progress

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/daap14/coachgate/internal/catalog"
)

type memoryKey struct {
	userID uuid.UUID
	toolID catalog.ToolID
}

// MemoryStore implements Store in memory.
type MemoryStore struct {
	mu     sync.Mutex
	events map[memoryKey]map[string]Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[memoryKey]map[string]Event)}
}

func (s *MemoryStore) Insert(_ context.Context, e Event) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := memoryKey{userID: e.UserID, toolID: e.ToolID}
	byAction, ok := s.events[k]
	if !ok {
		byAction = make(map[string]Event)
		s.events[k] = byAction
	}
	if _, exists := byAction[e.ActionKey]; exists {
		return false, nil
	}
	e.Metadata = append([]byte(nil), e.Metadata...)
	byAction[e.ActionKey] = e
	return true, nil
}

func (s *MemoryStore) List(_ context.Context, userID uuid.UUID, toolID catalog.ToolID) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byAction := s.events[memoryKey{userID: userID, toolID: toolID}]
	out := make([]Event, 0, len(byAction))
	for _, e := range byAction {
		out = append(out, e)
	}
	sortEvents(out)
	return out, nil
}

func sortEvents(events []Event) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].FirstOccurredAt.Equal(events[j].FirstOccurredAt) {
			return events[i].FirstOccurredAt.Before(events[j].FirstOccurredAt)
		}
		return events[i].ActionKey < events[j].ActionKey
	})
}
