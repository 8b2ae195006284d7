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
	"encoding/binary"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// Credential represents an enrolled WebAuthn credential stored by the
// gateway. This wraps the go-webauthn Credential type with the
// human-chosen name and usage metadata.
type Credential struct {
	// ID is the credential identifier assigned by the authenticator.
	ID []byte `json:"id"`

	// Name is the human-chosen label, unique across the registry.
	Name string `json:"name"`

	// PublicKey is the credential's public key in COSE format.
	PublicKey []byte `json:"public_key"`

	// AttestationType indicates the type of attestation used.
	AttestationType string `json:"attestation_type"`

	// Transport lists the transports supported by the authenticator.
	Transport []protocol.AuthenticatorTransport `json:"transport,omitempty"`

	// Flags contains authenticator flags.
	Flags CredentialFlags `json:"flags"`

	// Authenticator contains authenticator-specific data.
	Authenticator AuthenticatorData `json:"authenticator"`

	// CreatedAt is when the credential was registered.
	CreatedAt time.Time `json:"created_at"`

	// LastUsedAt is when the credential was last used for authentication.
	LastUsedAt time.Time `json:"last_used_at,omitempty"`
}

// CredentialFlags contains authenticator capability flags.
type CredentialFlags struct {
	// UserPresent indicates the user was present during the operation.
	UserPresent bool `json:"user_present"`

	// UserVerified indicates the user was verified (e.g., biometric, PIN).
	UserVerified bool `json:"user_verified"`

	// BackupEligible indicates the credential can be backed up.
	BackupEligible bool `json:"backup_eligible"`

	// BackupState indicates the credential is currently backed up.
	BackupState bool `json:"backup_state"`
}

// AuthenticatorData contains authenticator-specific information.
type AuthenticatorData struct {
	// AAGUID is the authenticator's unique identifier.
	AAGUID []byte `json:"aaguid"`

	// SignCount is the signature counter for clone detection.
	SignCount uint32 `json:"sign_count"`
}

// CredentialSummary is the externally visible shape of a credential.
// Key material and counters are never exposed.
type CredentialSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ToWebAuthn converts a Credential to the go-webauthn library's Credential type.
func (c *Credential) ToWebAuthn() webauthn.Credential {
	return webauthn.Credential{
		ID:              c.ID,
		PublicKey:       c.PublicKey,
		AttestationType: c.AttestationType,
		Transport:       c.Transport,
		Flags: webauthn.CredentialFlags{
			UserPresent:    c.Flags.UserPresent,
			UserVerified:   c.Flags.UserVerified,
			BackupEligible: c.Flags.BackupEligible,
			BackupState:    c.Flags.BackupState,
		},
		Authenticator: webauthn.Authenticator{
			AAGUID:    c.Authenticator.AAGUID,
			SignCount: c.Authenticator.SignCount,
		},
	}
}

// FromWebAuthnCredential creates a Credential from the go-webauthn
// library's type, labeled with the given name.
func FromWebAuthnCredential(name string, wc *webauthn.Credential) *Credential {
	return &Credential{
		ID:              wc.ID,
		Name:            name,
		PublicKey:       wc.PublicKey,
		AttestationType: wc.AttestationType,
		Transport:       wc.Transport,
		Flags: CredentialFlags{
			UserPresent:    wc.Flags.UserPresent,
			UserVerified:   wc.Flags.UserVerified,
			BackupEligible: wc.Flags.BackupEligible,
			BackupState:    wc.Flags.BackupState,
		},
		Authenticator: AuthenticatorData{
			AAGUID:    wc.Authenticator.AAGUID,
			SignCount: wc.Authenticator.SignCount,
		},
		CreatedAt: time.Now().UTC(),
	}
}

// account is the single gateway identity presented to the WebAuthn
// library. The gateway guards one account with any number of enrolled
// authenticators, so there is exactly one user handle, derived
// deterministically from the RP ID.
type account struct {
	id          []byte
	name        string
	credentials []webauthn.Credential
}

// accountID generates the stable 8-byte user handle for the gateway
// account from the RP ID.
func accountID(rpID string) []byte {
	// FNV-1a for a deterministic, stable handle
	var h uint64 = 14695981039346656037 // FNV offset basis
	for _, b := range []byte(rpID) {
		h ^= uint64(b)
		h *= 1099511628211 // FNV prime
	}
	id := make([]byte, 8)
	binary.BigEndian.PutUint64(id, h)
	return id
}

// WebAuthnID returns the account's WebAuthn ID (user handle).
func (a *account) WebAuthnID() []byte {
	return a.id
}

// WebAuthnName returns the account's username.
func (a *account) WebAuthnName() string {
	return a.name
}

// WebAuthnDisplayName returns the account's display name.
func (a *account) WebAuthnDisplayName() string {
	return a.name
}

// WebAuthnIcon returns an empty string; icons are deprecated in the
// WebAuthn spec and unused by the library.
func (a *account) WebAuthnIcon() string {
	return ""
}

// WebAuthnCredentials returns the account's registered credentials.
func (a *account) WebAuthnCredentials() []webauthn.Credential {
	return a.credentials
}
