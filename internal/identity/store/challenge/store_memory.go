// Package challenge holds the transient table of issued challenges. A
// challenge lives here from issuance until consumption or post-expiry
// garbage collection.
package challenge

import (
	"context"
	"sync"
	"time"

	"agora/internal/identity/models"
	"agora/pkg/platform/sentinel"
)

// entry wraps a stored challenge with its own lock so consumption of one
// challenge never serializes verification of unrelated participants. The
// table-level RWMutex only guards map membership.
type entry struct {
	mu sync.Mutex
	ch models.Challenge
}

// InMemory is the process-lifetime challenge table.
type InMemory struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[string]*entry)}
}

func (s *InMemory) Save(_ context.Context, ch models.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[ch.ID]; ok {
		return sentinel.ErrConflict
	}
	s.entries[ch.ID] = &entry{ch: ch}
	return nil
}

func (s *InMemory) Find(_ context.Context, id string) (models.Challenge, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return models.Challenge{}, sentinel.ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ch, nil
}

// Consume atomically transitions a challenge to consumed. The freshness
// checks and the mark happen under the challenge's own lock, so two racing
// verification attempts observe exactly one success.
func (s *InMemory) Consume(_ context.Context, id string, now time.Time) (models.Challenge, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return models.Challenge{}, sentinel.ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ch.Consumed {
		return models.Challenge{}, sentinel.ErrAlreadyUsed
	}
	if e.ch.Expired(now) {
		return models.Challenge{}, sentinel.ErrExpired
	}
	e.ch.Consumed = true
	return e.ch, nil
}

// PurgeExpired drops challenges whose TTL window has elapsed and returns how
// many were removed.
func (s *InMemory) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		e.mu.Lock()
		expired := e.ch.Expired(now)
		e.mu.Unlock()
		if expired {
			delete(s.entries, id)
			removed++
		}
	}
	return removed, nil
}
