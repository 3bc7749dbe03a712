package topic

import (
	"context"
	"sort"
	"sync"
	"time"

	"agora/internal/participation/models"
	"agora/pkg/platform/sentinel"
)

// InMemory keeps topics for the process lifetime.
type InMemory struct {
	mu     sync.RWMutex
	topics map[string]models.Topic
}

func NewInMemory() *InMemory {
	return &InMemory{topics: make(map[string]models.Topic)}
}

func (s *InMemory) Create(_ context.Context, t models.Topic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.topics[t.ID]; ok {
		return sentinel.ErrConflict
	}
	s.topics[t.ID] = t
	return nil
}

func (s *InMemory) Get(_ context.Context, id string) (models.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.topics[id]
	if !ok {
		return models.Topic{}, sentinel.ErrNotFound
	}
	return t, nil
}

func (s *InMemory) IsOpen(_ context.Context, id string, now time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.topics[id]
	return ok && t.Open(now), nil
}

func (s *InMemory) ListOpen(_ context.Context, now time.Time) ([]models.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	open := make([]models.Topic, 0, len(s.topics))
	for _, t := range s.topics {
		if t.Open(now) {
			open = append(open, t)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].ID < open[j].ID })
	return open, nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.topics), nil
}
