//go:build integration

package submission_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"agora/internal/participation/models"
	"agora/internal/participation/store/submission"
	"agora/pkg/platform/sentinel"
	"agora/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *submission.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(s.postgres.ApplySchema(context.Background(), submission.Schema))
	s.store = submission.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "submissions"))
}

func testSubmission(topicID, anonymousID string, kind models.SubmissionKind) models.Submission {
	return models.Submission{
		ID:          uuid.NewString(),
		TopicID:     topicID,
		AnonymousID: anonymousID,
		Kind:        kind,
		Content:     "content",
		SubmittedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	sub := testSubmission("topic-1", "anon-1", models.KindOpinion)
	s.Require().NoError(s.store.Record(ctx, sub))

	subs, err := s.store.ListByTopic(ctx, "topic-1", "")
	s.Require().NoError(err)
	s.Require().Len(subs, 1)
	s.Equal(sub.ID, subs[0].ID)
	s.Equal(sub.Kind, subs[0].Kind)
	s.Equal(sub.Content, subs[0].Content)

	has, err := s.store.Has(ctx, "topic-1", "anon-1", models.KindOpinion)
	s.Require().NoError(err)
	s.True(has)

	has, err = s.store.Has(ctx, "topic-1", "anon-1", models.KindVote)
	s.Require().NoError(err)
	s.False(has)
}

func (s *PostgresStoreSuite) TestUniqueIndex() {
	ctx := context.Background()
	s.Require().NoError(s.store.Record(ctx, testSubmission("topic-1", "anon-1", models.KindVote)))
	s.Require().ErrorIs(s.store.Record(ctx, testSubmission("topic-1", "anon-1", models.KindVote)), sentinel.ErrConflict)

	s.Require().NoError(s.store.Record(ctx, testSubmission("topic-1", "anon-1", models.KindOpinion)))
	s.Require().NoError(s.store.Record(ctx, testSubmission("topic-2", "anon-1", models.KindVote)))
	s.Require().NoError(s.store.Record(ctx, testSubmission("topic-1", "anon-2", models.KindVote)))

	n, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(4, n)
}

func (s *PostgresStoreSuite) TestListByTopicKindFilter() {
	ctx := context.Background()
	s.Require().NoError(s.store.Record(ctx, testSubmission("topic-1", "anon-1", models.KindVote)))
	s.Require().NoError(s.store.Record(ctx, testSubmission("topic-1", "anon-1", models.KindOpinion)))
	s.Require().NoError(s.store.Record(ctx, testSubmission("topic-1", "anon-2", models.KindVote)))

	votes, err := s.store.ListByTopic(ctx, "topic-1", models.KindVote)
	s.Require().NoError(err)
	s.Require().Len(votes, 2)
	for _, sub := range votes {
		s.Equal(models.KindVote, sub.Kind)
	}

	all, err := s.store.ListByTopic(ctx, "topic-1", "")
	s.Require().NoError(err)
	s.Len(all, 3)
}

// TestConcurrentRecord verifies the unique index under concurrent inserts:
// many writers on one (topic, participant, kind) key, exactly one winner.
func (s *PostgresStoreSuite) TestConcurrentRecord() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Record(ctx, testSubmission("topic-1", "anon-1", models.KindVote))
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
}
