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

package rest

import (
	"github.com/go-webauthn/webauthn/protocol"

	"github.com/jeremyhahn/go-authgate/pkg/gate"
)

// SessionCookie carries the signed session token. The cookie is scoped
// to the RP ID so the reverse proxy forwards it from every protected
// virtual host.
const SessionCookie = "authgate_session"

// CeremonyCookie carries the opaque challenge reference between the GET
// and POST halves of a ceremony.
const CeremonyCookie = "authgate_ceremony"

// AuthenticateStartResponse is the response for GET /api/authenticate.
// Challenge is null when there is nothing to authenticate against:
// either no credentials are enrolled yet or the caller already holds a
// valid session.
type AuthenticateStartResponse struct {
	Challenge *protocol.CredentialAssertion `json:"challenge"`
}

// AuthenticateFinishResponse is the response for POST /api/authenticate.
type AuthenticateFinishResponse struct {
	RedirectURL string `json:"redirectUrl"`
}

// RegisterFinishRequest is the request body for POST /api/register.
type RegisterFinishRequest struct {
	// Name is the human-chosen label for the new credential (required,
	// unique).
	Name string `json:"name"`

	// Credential is the attestation response produced by the browser.
	Credential protocol.CredentialCreationResponse `json:"credential"`
}

// CredentialsResponse is the response for GET /api/credentials.
type CredentialsResponse struct {
	Data []gate.CredentialSummary `json:"data"`
}

// ErrorResponse is the response format for errors.
type ErrorResponse struct {
	// Error is the error code.
	Error string `json:"error"`

	// Message is a human-readable error message.
	Message string `json:"message"`
}

// Error codes returned in ErrorResponse. Ceremony failures all collapse
// into ErrorCodeAuthenticationFailed so callers learn nothing about why
// verification failed.
const (
	ErrorCodeInvalidRequest       = "invalid_request"
	ErrorCodeUnauthenticated      = "unauthenticated"
	ErrorCodeAuthenticationFailed = "authentication_failed"
	ErrorCodeDuplicateName        = "duplicate_name"
	ErrorCodeNotFound             = "not_found"
	ErrorCodeInternalError        = "internal_error"
)
