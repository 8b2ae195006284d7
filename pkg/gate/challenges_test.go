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
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChallengeStore_IssueAndConsume(t *testing.T) {
	store := NewChallengeStore(time.Minute)

	data := &webauthn.SessionData{Challenge: "test-challenge"}
	ref := store.Issue(ChallengeRegistration, data)
	require.NotEmpty(t, ref)
	assert.Equal(t, 1, store.Len())

	got, err := store.Consume(ref, ChallengeRegistration)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, 0, store.Len())
}

func TestChallengeStore_ConsumeTwice(t *testing.T) {
	store := NewChallengeStore(time.Minute)

	ref := store.Issue(ChallengeAuthentication, &webauthn.SessionData{Challenge: "c"})

	_, err := store.Consume(ref, ChallengeAuthentication)
	require.NoError(t, err)

	_, err = store.Consume(ref, ChallengeAuthentication)
	assert.ErrorIs(t, err, ErrChallengeExpiredOrUnknown)
}

func TestChallengeStore_UnknownReference(t *testing.T) {
	store := NewChallengeStore(time.Minute)

	_, err := store.Consume("does-not-exist", ChallengeAuthentication)
	assert.ErrorIs(t, err, ErrChallengeExpiredOrUnknown)
}

// A challenge issued for one ceremony kind must not satisfy the other,
// and the mismatch still burns the challenge.
func TestChallengeStore_KindMismatch(t *testing.T) {
	store := NewChallengeStore(time.Minute)

	ref := store.Issue(ChallengeRegistration, &webauthn.SessionData{Challenge: "c"})

	_, err := store.Consume(ref, ChallengeAuthentication)
	assert.ErrorIs(t, err, ErrChallengeExpiredOrUnknown)

	_, err = store.Consume(ref, ChallengeRegistration)
	assert.ErrorIs(t, err, ErrChallengeExpiredOrUnknown)
}

func TestChallengeStore_Expiry(t *testing.T) {
	store := NewChallengeStore(10 * time.Millisecond)

	ref := store.Issue(ChallengeAuthentication, &webauthn.SessionData{Challenge: "c"})
	time.Sleep(30 * time.Millisecond)

	_, err := store.Consume(ref, ChallengeAuthentication)
	assert.ErrorIs(t, err, ErrChallengeExpiredOrUnknown)
}

func TestChallengeStore_ExpiredEntriesReaped(t *testing.T) {
	store := NewChallengeStore(10 * time.Millisecond)

	store.Issue(ChallengeAuthentication, &webauthn.SessionData{Challenge: "a"})
	store.Issue(ChallengeAuthentication, &webauthn.SessionData{Challenge: "b"})
	time.Sleep(30 * time.Millisecond)

	// The next issue reaps everything that has expired.
	store.Issue(ChallengeAuthentication, &webauthn.SessionData{Challenge: "c"})
	assert.Equal(t, 1, store.Len())
}

// Concurrent consumers of the same reference must see exactly one
// success.
func TestChallengeStore_ConsumeExactlyOnce(t *testing.T) {
	store := NewChallengeStore(time.Minute)
	ref := store.Issue(ChallengeAuthentication, &webauthn.SessionData{Challenge: "c"})

	const consumers = 32
	var successes atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < consumers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := store.Consume(ref, ChallengeAuthentication); err == nil {
				successes.Add(1)
			}
		}()
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
}
