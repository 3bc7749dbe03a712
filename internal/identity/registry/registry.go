// Package registry stores enrolled credentials. It is the sole owner of the
// one-public-key-per-person invariant: no two credentials may ever share a
// public key or an anonymous ID, including revoked ones.
package registry

import (
	"context"

	"agora/internal/identity/models"
)

// Store is the credential registry contract. Implementations must make
// Register atomic across the primary table and the public-key index: two
// concurrent registrations sharing either key must yield exactly one success
// and one sentinel.ErrConflict.
type Store interface {
	// Register adds a credential. Returns sentinel.ErrConflict if the
	// anonymous ID or the public key is already present.
	Register(ctx context.Context, cred models.Credential) error

	// Lookup returns the credential for an anonymous ID, or sentinel.ErrNotFound.
	Lookup(ctx context.Context, anonymousID string) (models.Credential, error)

	// LookupByPublicKey is used purely for duplicate detection at enrollment.
	LookupByPublicKey(ctx context.Context, publicKey string) (models.Credential, error)

	// Revoke marks a credential revoked, keeping the record as an audit
	// trail. Returns false if the ID is unknown. Idempotent.
	Revoke(ctx context.Context, anonymousID string) (bool, error)

	// IsActive reports whether the ID is enrolled and not revoked.
	IsActive(ctx context.Context, anonymousID string) (bool, error)

	// Count returns the number of credentials ever registered.
	Count(ctx context.Context) (int, error)

	// ActiveCount returns the number of non-revoked credentials.
	ActiveCount(ctx context.Context) (int, error)
}
