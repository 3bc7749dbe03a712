package submission_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"agora/internal/participation/models"
	"agora/internal/participation/store/submission"
	"agora/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *submission.InMemory
}

func (s *MemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = submission.NewInMemory()
}

func newSubmission(topicID, anonymousID string, kind models.SubmissionKind) models.Submission {
	return models.Submission{
		ID:          uuid.NewString(),
		TopicID:     topicID,
		AnonymousID: anonymousID,
		Kind:        kind,
		Content:     "content",
		SubmittedAt: time.Now().UTC(),
	}
}

func (s *MemoryStoreSuite) TestRecordAndList() {
	sub := newSubmission("topic-1", "anon-1", models.KindOpinion)
	s.Require().NoError(s.store.Record(s.ctx, sub))

	subs, err := s.store.ListByTopic(s.ctx, "topic-1", "")
	s.Require().NoError(err)
	s.Require().Len(subs, 1)
	s.Equal(sub, subs[0])

	subs, err = s.store.ListByTopic(s.ctx, "other", "")
	s.Require().NoError(err)
	s.Empty(subs)
}

func (s *MemoryStoreSuite) TestDuplicateKindRejected() {
	s.Require().NoError(s.store.Record(s.ctx, newSubmission("topic-1", "anon-1", models.KindVote)))

	err := s.store.Record(s.ctx, newSubmission("topic-1", "anon-1", models.KindVote))
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	subs, err := s.store.ListByTopic(s.ctx, "topic-1", "")
	s.Require().NoError(err)
	s.Len(subs, 1)
}

func (s *MemoryStoreSuite) TestDistinctKindsAllowed() {
	s.Require().NoError(s.store.Record(s.ctx, newSubmission("topic-1", "anon-1", models.KindVote)))
	s.Require().NoError(s.store.Record(s.ctx, newSubmission("topic-1", "anon-1", models.KindOpinion)))
	s.Require().NoError(s.store.Record(s.ctx, newSubmission("topic-1", "anon-1", models.KindIdea)))

	subs, err := s.store.ListByTopic(s.ctx, "topic-1", "")
	s.Require().NoError(err)
	s.Len(subs, 3)
}

func (s *MemoryStoreSuite) TestListByTopicKindFilter() {
	s.Require().NoError(s.store.Record(s.ctx, newSubmission("topic-1", "anon-1", models.KindVote)))
	s.Require().NoError(s.store.Record(s.ctx, newSubmission("topic-1", "anon-1", models.KindOpinion)))
	s.Require().NoError(s.store.Record(s.ctx, newSubmission("topic-1", "anon-2", models.KindVote)))

	votes, err := s.store.ListByTopic(s.ctx, "topic-1", models.KindVote)
	s.Require().NoError(err)
	s.Require().Len(votes, 2)
	for _, sub := range votes {
		s.Equal(models.KindVote, sub.Kind)
	}

	ideas, err := s.store.ListByTopic(s.ctx, "topic-1", models.KindIdea)
	s.Require().NoError(err)
	s.Empty(ideas)
}

func (s *MemoryStoreSuite) TestSameKindDifferentTopicOrParticipant() {
	s.Require().NoError(s.store.Record(s.ctx, newSubmission("topic-1", "anon-1", models.KindVote)))
	s.Require().NoError(s.store.Record(s.ctx, newSubmission("topic-2", "anon-1", models.KindVote)))
	s.Require().NoError(s.store.Record(s.ctx, newSubmission("topic-1", "anon-2", models.KindVote)))
}

func (s *MemoryStoreSuite) TestHas() {
	ok, err := s.store.Has(s.ctx, "topic-1", "anon-1", models.KindIdea)
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.store.Record(s.ctx, newSubmission("topic-1", "anon-1", models.KindIdea)))

	ok, err = s.store.Has(s.ctx, "topic-1", "anon-1", models.KindIdea)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.Has(s.ctx, "topic-1", "anon-1", models.KindVote)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *MemoryStoreSuite) TestCount() {
	for i := range 5 {
		s.Require().NoError(s.store.Record(s.ctx, newSubmission(fmt.Sprintf("topic-%d", i), "anon-1", models.KindOpinion)))
	}
	n, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(5, n)
}

// TestConcurrentRecord races many writers on the same (topic, participant,
// kind) key; exactly one append must win.
func (s *MemoryStoreSuite) TestConcurrentRecord() {
	const goroutines = 50

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Record(s.ctx, newSubmission("topic-1", "anon-1", models.KindVote))
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one submission should win")
	s.Equal(int32(goroutines-1), conflictCount.Load())

	subs, err := s.store.ListByTopic(s.ctx, "topic-1", "")
	s.Require().NoError(err)
	s.Len(subs, 1)
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}
