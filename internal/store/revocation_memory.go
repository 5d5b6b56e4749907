// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"sync"
	"time"
)

// memoryRevocationStore keeps revoked token ids in process memory. It is
// used when no Redis instance is configured; revocations are lost on
// restart and not shared between instances.
type memoryRevocationStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevocationStore constructs an in-memory [TokenRevocationStore].
func NewMemoryRevocationStore() TokenRevocationStore {
	return &memoryRevocationStore{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Revoke marks tokenID as revoked until the given time and drops entries
// that expired meanwhile.
func (s *memoryRevocationStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, exp := range s.revoked {
		if !exp.After(now) {
			delete(s.revoked, id)
		}
	}

	if until.After(now) {
		s.revoked[tokenID] = until
	}
	return nil
}

// IsRevoked reports whether tokenID was revoked and is not yet expired.
func (s *memoryRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.revoked[tokenID]
	return ok && exp.After(s.now()), nil
}
