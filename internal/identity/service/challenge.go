package service

import (
	"context"

	"github.com/google/uuid"

	"agora/internal/identity/crypto"
	"agora/internal/identity/metrics"
	"agora/internal/identity/models"
	dErrors "agora/pkg/domain-errors"
	audit "agora/pkg/platform/audit"
)

// IssueChallenge mints a single-use, time-boxed nonce for an enrolled
// participant to sign. Challenges for unknown or revoked participants are
// refused up front; issuing them would only invite probing.
func (s *Service) IssueChallenge(ctx context.Context, anonymousID string) (models.Challenge, error) {
	active, err := s.registry.IsActive(ctx, anonymousID)
	if err != nil {
		return models.Challenge{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check enrollment")
	}
	if !active {
		return models.Challenge{}, dErrors.New(dErrors.CodeNotFound, "participant not enrolled")
	}

	nonce, err := crypto.NewNonce()
	if err != nil {
		return models.Challenge{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate nonce")
	}

	ch := models.Challenge{
		ID:       uuid.NewString(),
		Nonce:    nonce,
		IssuedAt: s.now(),
		TTL:      s.challengeTTL,
	}
	if err := s.challenges.Save(ctx, ch); err != nil {
		return models.Challenge{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store challenge")
	}

	metrics.ChallengesIssuedTotal.Inc()
	s.audit(ctx, audit.Event{
		Category:    audit.CategoryOperations,
		AnonymousID: anonymousID,
		Action:      string(audit.EventChallengeIssued),
	})
	return ch, nil
}
