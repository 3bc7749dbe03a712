package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"agora/internal/identity/metrics"
	"agora/internal/identity/models"
	dErrors "agora/pkg/domain-errors"
	audit "agora/pkg/platform/audit"
	"agora/pkg/platform/sentinel"
)

// MinFactors is the number of distinct biometric factors an enrollment must
// assert. A single factor is too easy to spoof for one-person-one-credential.
const MinFactors = 2

// Enroll validates the factor set, mints a credential, and registers it
// atomically. The secret material is returned for device-local storage and
// never persisted.
//
// The public-key pre-check is best effort; the registry's atomic Register is
// the actual enforcement point for duplicates, so two concurrent enrollments
// sharing a key cannot both slip past.
func (s *Service) Enroll(ctx context.Context, factors []models.FactorKind) (models.EnrolledCredential, error) {
	ctx, span := startSpan(ctx, "identity.enroll")
	defer span.End()

	if len(factors) < MinFactors {
		return models.EnrolledCredential{}, dErrors.New(dErrors.CodeInvalidInput, "insufficient factors")
	}
	seen := make(map[models.FactorKind]bool, len(factors))
	for _, f := range factors {
		if seen[f] {
			return models.EnrolledCredential{}, dErrors.New(dErrors.CodeInvalidInput, "duplicate factors")
		}
		seen[f] = true
	}

	secret, publicKey, err := s.keys.GenerateKeyPair()
	if err != nil {
		return models.EnrolledCredential{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint credential")
	}

	if _, err := s.registry.LookupByPublicKey(ctx, publicKey); err == nil {
		return models.EnrolledCredential{}, dErrors.New(dErrors.CodeConflict, "already enrolled")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return models.EnrolledCredential{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check enrollment")
	}

	cred := models.Credential{
		AnonymousID: uuid.NewString(),
		PublicKey:   publicKey,
		Factors:     factors,
		EnrolledAt:  s.now(),
	}
	if err := s.registry.Register(ctx, cred); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return models.EnrolledCredential{}, dErrors.New(dErrors.CodeConflict, "already enrolled")
		}
		return models.EnrolledCredential{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register credential")
	}

	metrics.EnrollmentsTotal.Inc()
	s.logger.InfoContext(ctx, "participant enrolled",
		"anonymous_id", cred.AnonymousID,
		"factors", len(factors),
	)
	s.audit(ctx, audit.Event{
		Category:    audit.CategoryCompliance,
		AnonymousID: cred.AnonymousID,
		Action:      string(audit.EventParticipantEnrolled),
	})

	return models.EnrolledCredential{Credential: cred, SecretMaterial: secret}, nil
}

// Revoke marks a credential revoked. The record stays in the registry so the
// revocation itself remains auditable and the public key stays burned.
func (s *Service) Revoke(ctx context.Context, anonymousID string) error {
	found, err := s.registry.Revoke(ctx, anonymousID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke enrollment")
	}
	if !found {
		return dErrors.New(dErrors.CodeNotFound, "participant not enrolled")
	}

	metrics.RevocationsTotal.Inc()
	s.logger.InfoContext(ctx, "enrollment revoked", "anonymous_id", anonymousID)
	s.audit(ctx, audit.Event{
		Category:    audit.CategoryCompliance,
		AnonymousID: anonymousID,
		Action:      string(audit.EventEnrollmentRevoked),
	})
	return nil
}
