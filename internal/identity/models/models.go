// Package models defines the identity-side domain types: credentials bound to
// anonymous participants, single-use challenges, and verification outcomes.
// The server never holds biometric data, only the public verification
// material and the list of factor kinds a device asserted locally.
package models

import "time"

// FactorKind is a biometric modality asserted on the participant's device.
type FactorKind string

const (
	FactorFingerprint FactorKind = "fingerprint"
	FactorFace        FactorKind = "face"
	FactorIris        FactorKind = "iris"
	FactorVoice       FactorKind = "voice"
)

// ParseFactorKind maps a wire-level factor name to a FactorKind.
func ParseFactorKind(name string) (FactorKind, bool) {
	switch FactorKind(name) {
	case FactorFingerprint, FactorFace, FactorIris, FactorVoice:
		return FactorKind(name), true
	}
	return "", false
}

// Credential is the server-side record for one enrolled participant: the
// public verification material plus metadata, keyed by an anonymous ID with
// no link to real-world identity. Revoked credentials are never deleted so
// the revocation remains auditable.
type Credential struct {
	AnonymousID string
	PublicKey   string
	Factors     []FactorKind
	EnrolledAt  time.Time
	Revoked     bool
}

// EnrolledCredential is returned to the caller at enrollment time. The secret
// material goes back to the device for local storage and is never persisted
// server-side.
type EnrolledCredential struct {
	Credential
	SecretMaterial string
}

// Challenge is a single-use, time-boxed nonce a device must sign to prove
// possession of the enrolled credential.
type Challenge struct {
	ID       string
	Nonce    string
	IssuedAt time.Time
	TTL      time.Duration
	Consumed bool
}

// Expired reports whether the challenge's TTL window has elapsed at now.
func (c Challenge) Expired(now time.Time) bool {
	return now.Sub(c.IssuedAt) > c.TTL
}

// VerificationResult is the value object produced by each verification call.
// It is never persisted; expected protocol outcomes (expiry, revocation, bad
// signature) are reported here rather than as errors.
type VerificationResult struct {
	Verified        bool
	AnonymousID     string
	FactorsVerified []FactorKind
	Reason          string
	VerifiedAt      time.Time
}
