package schedule

import (
	"context"
	"sync"

	"github.com/inboxpilot/warmstack/internal/enum"
	errs "github.com/inboxpilot/warmstack/internal/errors"
	"github.com/inboxpilot/warmstack/internal/models"
)

// InMemoryStore is the process-local schedule registry. It satisfies
// interfaces.ScheduleStore; a durable implementation can replace it without
// touching orchestration code.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]models.ScheduledEntry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string]models.ScheduledEntry),
	}
}

func (s *InMemoryStore) Get(ctx context.Context, id string) (*models.ScheduledEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, errs.NotFound("scheduled entry %s not found", id)
	}
	return &entry, nil
}

func (s *InMemoryStore) Set(ctx context.Context, entry models.ScheduledEntry) error {
	if entry.ID == "" {
		return errs.Validation("scheduled entry id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.ID] = entry
	return nil
}

func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return errs.NotFound("scheduled entry %s not found", id)
	}
	delete(s.entries, id)
	return nil
}

func (s *InMemoryStore) ListByStatus(ctx context.Context, status enum.ScheduleStatus) ([]models.ScheduledEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.ScheduledEntry
	for _, entry := range s.entries {
		if entry.Status == status {
			result = append(result, entry)
		}
	}
	return result, nil
}
