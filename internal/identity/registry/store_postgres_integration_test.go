//go:build integration

package registry_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"agora/internal/identity/models"
	"agora/internal/identity/registry"
	"agora/pkg/platform/sentinel"
	"agora/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *registry.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(s.postgres.ApplySchema(context.Background(), registry.Schema))
	s.store = registry.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "credentials"))
}

func newTestCredential() models.Credential {
	return models.Credential{
		AnonymousID: uuid.NewString(),
		PublicKey:   uuid.NewString(),
		Factors:     []models.FactorKind{models.FactorFingerprint, models.FactorIris},
		EnrolledAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	cred := newTestCredential()
	s.Require().NoError(s.store.Register(ctx, cred))

	found, err := s.store.Lookup(ctx, cred.AnonymousID)
	s.Require().NoError(err)
	s.Equal(cred.PublicKey, found.PublicKey)
	s.Equal(cred.Factors, found.Factors)
	s.False(found.Revoked)

	byKey, err := s.store.LookupByPublicKey(ctx, cred.PublicKey)
	s.Require().NoError(err)
	s.Equal(cred.AnonymousID, byKey.AnonymousID)
}

func (s *PostgresStoreSuite) TestUniqueConstraints() {
	ctx := context.Background()
	cred := newTestCredential()
	s.Require().NoError(s.store.Register(ctx, cred))

	dupID := newTestCredential()
	dupID.AnonymousID = cred.AnonymousID
	s.Require().ErrorIs(s.store.Register(ctx, dupID), sentinel.ErrConflict)

	dupKey := newTestCredential()
	dupKey.PublicKey = cred.PublicKey
	s.Require().ErrorIs(s.store.Register(ctx, dupKey), sentinel.ErrConflict)
}

// TestConcurrentRegistration verifies the database-level uniqueness race:
// many concurrent inserts sharing one public key, exactly one winner.
func (s *PostgresStoreSuite) TestConcurrentRegistration() {
	ctx := context.Background()
	publicKey := uuid.NewString()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cred := newTestCredential()
			cred.PublicKey = publicKey
			err := s.store.Register(ctx, cred)
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one registration should win")
	s.Equal(int32(goroutines-1), conflictCount.Load())
}

func (s *PostgresStoreSuite) TestRevocationAndCounts() {
	ctx := context.Background()

	kept := newTestCredential()
	revoked := newTestCredential()
	s.Require().NoError(s.store.Register(ctx, kept))
	s.Require().NoError(s.store.Register(ctx, revoked))

	found, err := s.store.Revoke(ctx, revoked.AnonymousID)
	s.Require().NoError(err)
	s.True(found)

	found, err = s.store.Revoke(ctx, revoked.AnonymousID)
	s.Require().NoError(err)
	s.True(found, "revoke is idempotent")

	active, err := s.store.IsActive(ctx, revoked.AnonymousID)
	s.Require().NoError(err)
	s.False(active)

	active, err = s.store.IsActive(ctx, kept.AnonymousID)
	s.Require().NoError(err)
	s.True(active)

	count, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(2, count)

	activeCount, err := s.store.ActiveCount(ctx)
	s.Require().NoError(err)
	s.Equal(1, activeCount)
}
