package submission

import (
	"context"
	"sync"

	"agora/internal/participation/models"
	"agora/pkg/platform/sentinel"
)

// InMemory holds submissions in process memory. The uniqueness check and the
// append are decoupled: presence claims go through sync.Map's LoadOrStore,
// which is the atomic insert-if-absent deciding which of N racing writers
// wins, while the short mutex only guards the per-topic slices.
type InMemory struct {
	seen sync.Map // presenceKey -> struct{}

	mu      sync.RWMutex
	byTopic map[string][]models.Submission
	total   int
}

func NewInMemory() *InMemory {
	return &InMemory{byTopic: make(map[string][]models.Submission)}
}

func presenceKey(topicID, anonymousID string, kind models.SubmissionKind) string {
	return topicID + "\x00" + anonymousID + "\x00" + string(kind)
}

func (s *InMemory) Record(_ context.Context, sub models.Submission) error {
	key := presenceKey(sub.TopicID, sub.AnonymousID, sub.Kind)
	if _, loaded := s.seen.LoadOrStore(key, struct{}{}); loaded {
		return sentinel.ErrConflict
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byTopic[sub.TopicID] = append(s.byTopic[sub.TopicID], sub)
	s.total++
	return nil
}

func (s *InMemory) ListByTopic(_ context.Context, topicID string, kind models.SubmissionKind) ([]models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subs := s.byTopic[topicID]
	out := make([]models.Submission, 0, len(subs))
	for _, sub := range subs {
		if kind != "" && sub.Kind != kind {
			continue
		}
		out = append(out, sub)
	}
	return out, nil
}

func (s *InMemory) Has(_ context.Context, topicID, anonymousID string, kind models.SubmissionKind) (bool, error) {
	_, ok := s.seen.Load(presenceKey(topicID, anonymousID, kind))
	return ok, nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total, nil
}
