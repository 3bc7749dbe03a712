package challenge

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"agora/internal/identity/models"
	"agora/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func newChallenge(ttl time.Duration) models.Challenge {
	return models.Challenge{
		ID:       uuid.NewString(),
		Nonce:    uuid.NewString(),
		IssuedAt: time.Now(),
		TTL:      ttl,
	}
}

func (s *InMemoryStoreSuite) TestSaveAndFind() {
	ch := newChallenge(5 * time.Minute)
	s.Require().NoError(s.store.Save(s.ctx, ch))

	found, err := s.store.Find(s.ctx, ch.ID)
	s.Require().NoError(err)
	s.Equal(ch.Nonce, found.Nonce)
	s.False(found.Consumed)

	s.Run("duplicate ID rejected", func() {
		s.Require().ErrorIs(s.store.Save(s.ctx, ch), sentinel.ErrConflict)
	})

	s.Run("unknown ID not found", func() {
		_, err := s.store.Find(s.ctx, "nope")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestConsume() {
	s.Run("consumes a fresh challenge once", func() {
		ch := newChallenge(5 * time.Minute)
		s.Require().NoError(s.store.Save(s.ctx, ch))

		consumed, err := s.store.Consume(s.ctx, ch.ID, time.Now())
		s.Require().NoError(err)
		s.True(consumed.Consumed)

		_, err = s.store.Consume(s.ctx, ch.ID, time.Now())
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("rejects an expired challenge", func() {
		ch := newChallenge(time.Second)
		ch.IssuedAt = time.Now().Add(-2 * time.Second)
		s.Require().NoError(s.store.Save(s.ctx, ch))

		_, err := s.store.Consume(s.ctx, ch.ID, time.Now())
		s.Require().ErrorIs(err, sentinel.ErrExpired)
	})

	s.Run("unknown challenge not found", func() {
		_, err := s.store.Consume(s.ctx, "nope", time.Now())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestConcurrentConsume verifies the single-use invariant: of many racing
// consumers on one challenge, exactly one wins.
func (s *InMemoryStoreSuite) TestConcurrentConsume() {
	ch := newChallenge(5 * time.Minute)
	s.Require().NoError(s.store.Save(s.ctx, ch))

	const goroutines = 50
	var wg sync.WaitGroup
	var successCount, usedCount atomic.Int32

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Consume(s.ctx, ch.ID, time.Now())
			switch err {
			case nil:
				successCount.Add(1)
			case sentinel.ErrAlreadyUsed:
				usedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one consume should win")
	s.Equal(int32(goroutines-1), usedCount.Load())
}

func (s *InMemoryStoreSuite) TestPurgeExpired() {
	fresh := newChallenge(5 * time.Minute)
	stale := newChallenge(time.Second)
	stale.IssuedAt = time.Now().Add(-time.Minute)

	s.Require().NoError(s.store.Save(s.ctx, fresh))
	s.Require().NoError(s.store.Save(s.ctx, stale))

	removed, err := s.store.PurgeExpired(s.ctx, time.Now())
	s.Require().NoError(err)
	s.Equal(1, removed)

	_, err = s.store.Find(s.ctx, stale.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.Find(s.ctx, fresh.ID)
	s.Require().NoError(err)
}
