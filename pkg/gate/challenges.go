// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-authgate.
//
// go-authgate is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package gate

import (
	"sync"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
)

// ChallengeKind distinguishes the two WebAuthn ceremonies. A challenge
// issued for one kind can never be consumed for the other.
type ChallengeKind string

const (
	// ChallengeRegistration marks a challenge issued for credential enrollment.
	ChallengeRegistration ChallengeKind = "registration"

	// ChallengeAuthentication marks a challenge issued for login.
	ChallengeAuthentication ChallengeKind = "authentication"
)

type challengeEntry struct {
	kind      ChallengeKind
	data      *webauthn.SessionData
	expiresAt time.Time
}

// ChallengeStore issues single-use, time-bounded ceremony challenges and
// consumes them exactly once. Consumption is an atomic remove-and-return
// under the store mutex so two concurrent consumers of the same reference
// see exactly one success.
type ChallengeStore struct {
	mu      sync.Mutex
	entries map[string]*challengeEntry
	ttl     time.Duration
}

// NewChallengeStore creates a challenge store whose entries expire after ttl.
func NewChallengeStore(ttl time.Duration) *ChallengeStore {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &ChallengeStore{
		entries: make(map[string]*challengeEntry),
		ttl:     ttl,
	}
}

// Issue stores ceremony session data under a fresh opaque reference and
// returns the reference. Expired entries are reaped lazily on each issue.
func (s *ChallengeStore) Issue(kind ChallengeKind, data *webauthn.SessionData) string {
	ref := uuid.NewString()
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, key)
		}
	}

	s.entries[ref] = &challengeEntry{
		kind:      kind,
		data:      data,
		expiresAt: now.Add(s.ttl),
	}
	return ref
}

// Consume atomically removes and returns the session data for the given
// reference. A second Consume with the same reference always fails.
// Expired entries, unknown references, and kind mismatches all return
// ErrChallengeExpiredOrUnknown without further distinction.
func (s *ChallengeStore) Consume(ref string, kind ChallengeKind) (*webauthn.SessionData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[ref]
	if !ok {
		return nil, ErrChallengeExpiredOrUnknown
	}
	delete(s.entries, ref)

	if entry.kind != kind || time.Now().After(entry.expiresAt) {
		return nil, ErrChallengeExpiredOrUnknown
	}
	return entry.data, nil
}

// Len returns the number of outstanding challenges.
func (s *ChallengeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
