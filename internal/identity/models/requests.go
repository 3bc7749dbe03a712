package models

import (
	"strings"

	dErrors "agora/pkg/domain-errors"
)

// EnrollRequest is the wire shape for POST /api/enroll.
type EnrollRequest struct {
	Factors []string `json:"factors"`
}

// Normalize trims and lower-cases factor names in place.
func (r *EnrollRequest) Normalize() {
	for i, f := range r.Factors {
		r.Factors[i] = strings.ToLower(strings.TrimSpace(f))
	}
}

// Validate checks factor names are known. Cardinality and duplicate rules are
// enforced by the enrollment service; the transport boundary only rejects
// names it cannot map.
func (r *EnrollRequest) Validate() ([]FactorKind, error) {
	kinds := make([]FactorKind, 0, len(r.Factors))
	for _, f := range r.Factors {
		kind, ok := ParseFactorKind(f)
		if !ok {
			return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown biometric factor: %q", f)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// EnrollResponse returns the credential plus the secret material the device
// stores locally.
type EnrollResponse struct {
	AnonymousID     string   `json:"anonymous_id"`
	PublicKey       string   `json:"public_key"`
	SecretMaterial  string   `json:"secret_material"`
	FactorsEnrolled []string `json:"factors_enrolled"`
}

// ChallengeRequest is the wire shape for POST /api/challenge.
type ChallengeRequest struct {
	AnonymousID string `json:"anonymous_id"`
}

type ChallengeResponse struct {
	ChallengeID string `json:"challenge_id"`
	Nonce       string `json:"nonce"`
}

// VerifyRequest is the wire shape for POST /api/verify.
type VerifyRequest struct {
	AnonymousID string `json:"anonymous_id"`
	ChallengeID string `json:"challenge_id"`
	Signature   string `json:"signature"`
}

type VerifyResponse struct {
	Verified bool   `json:"verified"`
	Reason   string `json:"reason"`
}

// RevokeRequest is the wire shape for POST /api/revoke.
type RevokeRequest struct {
	AnonymousID string `json:"anonymous_id"`
}
