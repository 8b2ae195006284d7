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
	"fmt"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
)

// Service orchestrates the WebAuthn registration and authentication
// ceremonies for the single gateway account, and owns session issuance.
// Attestation and assertion verification is delegated to the go-webauthn
// library; this service supplies the challenge lifecycle, the credential
// registry, and the counter discipline around it.
type Service struct {
	webauthn   *webauthn.WebAuthn
	config     *Config
	registry   *Registry
	challenges *ChallengeStore
	sessions   *SessionService
	configured bool
}

// ServiceParams contains dependencies for creating a gateway service.
type ServiceParams struct {
	// Config is the gateway configuration (required).
	Config *Config

	// Registry is the credential persistence layer (required).
	Registry *Registry

	// Sessions is the session token issuer/validator (required).
	Sessions *SessionService
}

// NewService creates a new gateway service with the provided dependencies.
func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if params.Registry == nil {
		return nil, fmt.Errorf("credential registry is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session service is required")
	}

	params.Config.SetDefaults()
	if err := params.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	wa, err := webauthn.New(params.Config.ToWebAuthnConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create webauthn instance: %w", err)
	}

	return &Service{
		webauthn:   wa,
		config:     params.Config,
		registry:   params.Registry,
		challenges: NewChallengeStore(params.Config.ChallengeTimeout),
		sessions:   params.Sessions,
		configured: true,
	}, nil
}

// BeginRegistration starts the credential enrollment ceremony. Already
// enrolled credential IDs are excluded so an authenticator cannot be
// registered twice. Returns the creation options for the browser and the
// opaque challenge reference for FinishRegistration.
func (s *Service) BeginRegistration(ctx context.Context) (*protocol.CredentialCreation, string, error) {
	if !s.configured {
		return nil, "", ErrNotConfigured
	}

	acct := s.account()

	excludeList := make([]protocol.CredentialDescriptor, len(acct.credentials))
	for i, cred := range acct.credentials {
		excludeList[i] = protocol.CredentialDescriptor{
			Type:         protocol.PublicKeyCredentialType,
			CredentialID: cred.ID,
			Transport:    cred.Transport,
		}
	}

	options, session, err := s.webauthn.BeginRegistration(acct,
		webauthn.WithExclusions(excludeList),
	)
	if err != nil {
		return nil, "", WrapError("begin registration", err)
	}

	ref := s.challenges.Issue(ChallengeRegistration, session)
	return options, ref, nil
}

// FinishRegistration completes the enrollment ceremony. The challenge is
// consumed before the attestation is examined, so a failed verification
// still burns the challenge. The registry is only mutated after the
// attestation verifies and the name is available.
func (s *Service) FinishRegistration(ctx context.Context, ref, name string, response *protocol.ParsedCredentialCreationData) error {
	if !s.configured {
		return ErrNotConfigured
	}
	if name == "" {
		return ErrInvalidName
	}

	session, err := s.challenges.Consume(ref, ChallengeRegistration)
	if err != nil {
		return err
	}

	credential, err := s.webauthn.CreateCredential(s.account(), *session, response)
	if err != nil {
		return WrapError("verify attestation", ErrVerificationFailed)
	}

	if err := s.registry.Insert(ctx, FromWebAuthnCredential(name, credential)); err != nil {
		return err
	}
	return nil
}

// BeginAuthentication starts the login ceremony, scoped to all currently
// enrolled credentials. With zero enrolled credentials there is nothing
// to authenticate against: the distinguished (nil, "", nil) result tells
// the caller that no challenge exists, which is not an error.
func (s *Service) BeginAuthentication(ctx context.Context) (*protocol.CredentialAssertion, string, error) {
	if !s.configured {
		return nil, "", ErrNotConfigured
	}

	if s.registry.Count() == 0 {
		return nil, "", nil
	}

	options, session, err := s.webauthn.BeginLogin(s.account())
	if err != nil {
		return nil, "", WrapError("begin authentication", err)
	}

	ref := s.challenges.Issue(ChallengeAuthentication, session)
	return options, ref, nil
}

// FinishAuthentication completes the login ceremony: consume the
// challenge, verify the assertion signature and origin/RP binding via the
// WebAuthn library, then advance the stored signature counter. A counter
// regression rejects the login without advancing anything.
func (s *Service) FinishAuthentication(ctx context.Context, ref string, response *protocol.ParsedCredentialAssertionData) error {
	if !s.configured {
		return ErrNotConfigured
	}

	session, err := s.challenges.Consume(ref, ChallengeAuthentication)
	if err != nil {
		return err
	}

	credential, err := s.webauthn.ValidateLogin(s.account(), *session, response)
	if err != nil {
		return WrapError("verify assertion", ErrVerificationFailed)
	}

	// On a regressed counter the library leaves the stored value in the
	// returned credential and only sets CloneWarning, so the presented
	// counter must be read from the raw authenticator data. The registry
	// enforces monotonicity against the stored value and persists the
	// advance.
	presented := response.Response.AuthenticatorData.Counter
	if err := s.registry.VerifyAndAdvance(ctx, credential.ID, presented); err != nil {
		return err
	}
	return nil
}

// Credentials lists the enrolled credentials as id/name pairs.
func (s *Service) Credentials(ctx context.Context) []CredentialSummary {
	return s.registry.List(ctx)
}

// DeleteCredential removes a credential by its human-chosen name.
func (s *Service) DeleteCredential(ctx context.Context, name string) error {
	if !s.configured {
		return ErrNotConfigured
	}
	return s.registry.Delete(ctx, name)
}

// HasCredentials reports whether any credential is enrolled.
func (s *Service) HasCredentials() bool {
	return s.registry.Count() > 0
}

// IssueSession mints a signed session token.
func (s *Service) IssueSession() (string, time.Time, error) {
	if !s.configured {
		return "", time.Time{}, ErrNotConfigured
	}
	return s.sessions.Issue()
}

// ValidateSession checks a presented session token.
func (s *Service) ValidateSession(token string) error {
	if !s.configured {
		return ErrNotConfigured
	}
	return s.sessions.Validate(token)
}

// ResolveReturnURL returns the candidate post-login URL if it passes the
// open-redirect check against the allowed origins, otherwise the default
// credential management page on the gateway's own origin.
func (s *Service) ResolveReturnURL(candidate string) string {
	if candidate != "" && SafeReturnURL(s.config.RPOrigins, candidate) {
		return candidate
	}
	return s.config.RPOrigins[0] + "/credentials"
}

// Config returns the service configuration.
func (s *Service) Config() *Config {
	return s.config
}

// account materializes the gateway identity with a snapshot of the
// current credential set.
func (s *Service) account() *account {
	return &account{
		id:          accountID(s.config.RPID),
		name:        s.config.RPDisplayName,
		credentials: s.registry.webauthnCredentials(),
	}
}
