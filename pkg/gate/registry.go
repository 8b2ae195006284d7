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
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/jeremyhahn/go-authgate/pkg/storage"
)

// credentialKeyPrefix namespaces registry records inside the storage backend.
const credentialKeyPrefix = "credentials/"

// Registry is the durable store of enrolled credentials, keyed 1:1 by
// credential ID with names unique across the registry. An in-memory index
// fronts the storage backend; all mutation is serialized behind the
// registry mutex so counter advancement cannot lose updates.
type Registry struct {
	mu      sync.RWMutex
	backend storage.Backend
	byID    map[string]*Credential
	byName  map[string]string // name -> id key
}

// NewRegistry creates a credential registry persisting through the given
// storage backend.
func NewRegistry(backend storage.Backend) *Registry {
	return &Registry{
		backend: backend,
		byID:    make(map[string]*Credential),
		byName:  make(map[string]string),
	}
}

// Load rehydrates the in-memory index from the storage backend. It must
// be called once before the registry is used.
func (r *Registry) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys, err := r.backend.List(credentialKeyPrefix)
	if err != nil {
		return WrapError("load credentials", err)
	}

	for _, key := range keys {
		data, err := r.backend.Get(key)
		if err != nil {
			return WrapError("load credentials", err)
		}
		var cred Credential
		if err := json.Unmarshal(data, &cred); err != nil {
			return WrapError("load credentials", fmt.Errorf("decode %q: %w", key, err))
		}
		idKey := credentialKey(cred.ID)
		r.byID[idKey] = &cred
		r.byName[cred.Name] = idKey
	}
	return nil
}

// Insert durably persists a new credential. The name uniqueness check
// happens here, under the registry lock, so two concurrent registrations
// with the same name resolve to one winner and one DuplicateCredentialName.
func (r *Registry) Insert(ctx context.Context, cred *Credential) error {
	if cred.Name == "" {
		return ErrInvalidName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byName[cred.Name]; taken {
		return ErrDuplicateCredentialName
	}

	idKey := credentialKey(cred.ID)
	if existing, ok := r.byID[idKey]; ok {
		return WrapError("insert credential",
			fmt.Errorf("credential %s already enrolled as %q", idKey, existing.Name))
	}

	if err := r.persist(cred); err != nil {
		return err
	}

	r.byID[idKey] = cred
	r.byName[cred.Name] = idKey
	return nil
}

// List returns the id/name summaries of all enrolled credentials, sorted
// by name. Public keys and counters are never exposed.
func (r *Registry) List(ctx context.Context) []CredentialSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]CredentialSummary, 0, len(r.byID))
	for idKey, cred := range r.byID {
		summaries = append(summaries, CredentialSummary{
			ID:   idKey,
			Name: cred.Name,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Name < summaries[j].Name
	})
	return summaries
}

// Delete removes the credential with the given name. Deleting the last
// remaining credential is permitted; the operator accepts the lockout risk.
func (r *Registry) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idKey, ok := r.byName[name]
	if !ok {
		return ErrCredentialNotFound
	}

	if err := r.backend.Delete(credentialKeyPrefix + idKey); err != nil && err != storage.ErrNotFound {
		return WrapError("delete credential", err)
	}

	delete(r.byID, idKey)
	delete(r.byName, name)
	return nil
}

// VerifyAndAdvance advances the stored signature counter for the
// credential after a cryptographically verified assertion. The presented
// counter must be >= the stored counter; authenticators without counter
// support report 0 on both sides. A regression leaves the stored counter
// untouched and returns ErrCounterRegression.
func (r *Registry) VerifyAndAdvance(ctx context.Context, id []byte, presented uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idKey := credentialKey(id)
	cred, ok := r.byID[idKey]
	if !ok {
		return ErrCredentialNotFound
	}

	if presented < cred.Authenticator.SignCount {
		return ErrCounterRegression
	}

	updated := *cred
	updated.Authenticator.SignCount = presented
	updated.LastUsedAt = time.Now().UTC()

	if err := r.persist(&updated); err != nil {
		return err
	}

	r.byID[idKey] = &updated
	return nil
}

// Count returns the number of enrolled credentials.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// webauthnCredentials returns a snapshot of all credentials in the
// go-webauthn library's type, sorted by enrollment time.
func (r *Registry) webauthnCredentials() []webauthn.Credential {
	r.mu.RLock()
	defer r.mu.RUnlock()

	creds := make([]*Credential, 0, len(r.byID))
	for _, cred := range r.byID {
		creds = append(creds, cred)
	}
	sort.Slice(creds, func(i, j int) bool {
		return creds[i].CreatedAt.Before(creds[j].CreatedAt)
	})

	result := make([]webauthn.Credential, len(creds))
	for i, cred := range creds {
		result[i] = cred.ToWebAuthn()
	}
	return result
}

// persist writes a credential record through the storage backend.
// Callers must hold the registry lock.
func (r *Registry) persist(cred *Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return WrapError("encode credential", err)
	}
	idKey := credentialKey(cred.ID)
	if err := r.backend.Put(credentialKeyPrefix+idKey, data, storage.DefaultOptions()); err != nil {
		return WrapError("persist credential", err)
	}
	return nil
}

// credentialKey encodes a raw credential ID for use as a map and storage key.
func credentialKey(id []byte) string {
	return base64.RawURLEncoding.EncodeToString(id)
}
