package service

import (
	"context"
	"errors"

	"agora/internal/identity/metrics"
	"agora/internal/identity/models"
	dErrors "agora/pkg/domain-errors"
	audit "agora/pkg/platform/audit"
	"agora/pkg/platform/sentinel"
)

// Verification failure reasons. These are protocol outcomes consumed by
// callers, not errors; only a structurally broken call (unknown challenge
// ID) surfaces as an error.
const (
	ReasonConsumed         = "challenge already consumed"
	ReasonExpired          = "challenge expired"
	ReasonUnknown          = "unknown participant"
	ReasonRevoked          = "enrollment revoked"
	ReasonInvalidSignature = "invalid signature"
)

// Verify checks a signed challenge response. The checks run in a fixed
// order, short-circuiting on the first failure: consumed, expired, unknown
// participant, revoked, invalid signature. The challenge is consumed only on
// the success path; a wrong signature does not burn it, so the legitimate
// device keeps its chance until the TTL runs out. Consumption itself is
// atomic per challenge: when two correct signatures race, exactly one call
// returns verified.
func (s *Service) Verify(ctx context.Context, challengeID, signature, claimedID string) (models.VerificationResult, error) {
	ctx, span := startSpan(ctx, "identity.verify")
	defer span.End()

	ch, err := s.challenges.Find(ctx, challengeID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.VerificationResult{}, dErrors.New(dErrors.CodeNotFound, "challenge not found")
	}
	if err != nil {
		return models.VerificationResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load challenge")
	}

	if ch.Consumed {
		return s.fail(ctx, claimedID, ReasonConsumed), nil
	}
	if ch.Expired(s.now()) {
		return s.fail(ctx, claimedID, ReasonExpired), nil
	}

	cred, err := s.registry.Lookup(ctx, claimedID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return s.fail(ctx, claimedID, ReasonUnknown), nil
	}
	if err != nil {
		return models.VerificationResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credential")
	}
	if cred.Revoked {
		return s.fail(ctx, claimedID, ReasonRevoked), nil
	}

	if !s.verifier.Verify(cred.PublicKey, ch.Nonce, signature) {
		return s.fail(ctx, claimedID, ReasonInvalidSignature), nil
	}

	// All checks passed; consumption decides the race. The store re-checks
	// freshness under its own lock, so two verifiers with correct signatures
	// cannot both succeed.
	if _, err := s.challenges.Consume(ctx, challengeID, s.now()); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return s.fail(ctx, claimedID, ReasonConsumed), nil
		case errors.Is(err, sentinel.ErrExpired), errors.Is(err, sentinel.ErrNotFound):
			return s.fail(ctx, claimedID, ReasonExpired), nil
		default:
			return models.VerificationResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume challenge")
		}
	}

	metrics.VerificationsTotal.WithLabelValues("success").Inc()
	s.audit(ctx, audit.Event{
		Category:    audit.CategorySecurity,
		AnonymousID: claimedID,
		Action:      string(audit.EventVerificationSucceeded),
	})

	return models.VerificationResult{
		Verified:        true,
		AnonymousID:     claimedID,
		FactorsVerified: cred.Factors,
		VerifiedAt:      s.now(),
	}, nil
}

func (s *Service) fail(ctx context.Context, claimedID, reason string) models.VerificationResult {
	metrics.VerificationsTotal.WithLabelValues(metricResult(reason)).Inc()
	s.logger.InfoContext(ctx, "verification failed",
		"anonymous_id", claimedID,
		"reason", reason,
	)
	s.audit(ctx, audit.Event{
		Category:    audit.CategorySecurity,
		AnonymousID: claimedID,
		Action:      string(audit.EventVerificationFailed),
		Reason:      reason,
	})
	return models.VerificationResult{
		Verified:    false,
		AnonymousID: claimedID,
		Reason:      reason,
	}
}

func metricResult(reason string) string {
	switch reason {
	case ReasonConsumed:
		return "consumed"
	case ReasonExpired:
		return "expired"
	case ReasonUnknown:
		return "unknown_participant"
	case ReasonRevoked:
		return "revoked"
	case ReasonInvalidSignature:
		return "invalid_signature"
	default:
		return "other"
	}
}
