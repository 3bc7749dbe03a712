package registry

import (
	"context"
	"sync"

	"agora/internal/identity/models"
	"agora/pkg/platform/sentinel"
)

// InMemory keeps credentials for the process lifetime. One mutex spans the
// primary table and the public-key index so the duplicate check and the two
// inserts are a single atomic region (the uniqueness invariant crosses both
// maps, which rules out per-key sharding here).
type InMemory struct {
	mu       sync.RWMutex
	byID     map[string]models.Credential
	byPubKey map[string]string // public key -> anonymous ID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:     make(map[string]models.Credential),
		byPubKey: make(map[string]string),
	}
}

func (s *InMemory) Register(_ context.Context, cred models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[cred.AnonymousID]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.byPubKey[cred.PublicKey]; ok {
		return sentinel.ErrConflict
	}

	s.byID[cred.AnonymousID] = cred
	s.byPubKey[cred.PublicKey] = cred.AnonymousID
	return nil
}

func (s *InMemory) Lookup(_ context.Context, anonymousID string) (models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.byID[anonymousID]
	if !ok {
		return models.Credential{}, sentinel.ErrNotFound
	}
	return cred, nil
}

func (s *InMemory) LookupByPublicKey(_ context.Context, publicKey string) (models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	anonID, ok := s.byPubKey[publicKey]
	if !ok {
		return models.Credential{}, sentinel.ErrNotFound
	}
	return s.byID[anonID], nil
}

func (s *InMemory) Revoke(_ context.Context, anonymousID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.byID[anonymousID]
	if !ok {
		return false, nil
	}
	cred.Revoked = true
	s.byID[anonymousID] = cred
	return true, nil
}

func (s *InMemory) IsActive(_ context.Context, anonymousID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.byID[anonymousID]
	return ok && !cred.Revoked, nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

func (s *InMemory) ActiveCount(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, cred := range s.byID {
		if !cred.Revoked {
			n++
		}
	}
	return n, nil
}
