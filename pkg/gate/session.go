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
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// sessionIssuer is the iss claim on all gateway session tokens.
const sessionIssuer = "go-authgate"

// minSessionSecretLen rejects secrets too short to resist brute force.
const minSessionSecretLen = 32

// SessionService mints and validates the stateless session tokens the
// reverse proxy checks on every protected request. A token is a JWT
// signed HS256 with the process-wide secret; validity is signature plus
// expiry, nothing else. There is no revocation list: sessions die by
// expiry or by rotating the secret.
type SessionService struct {
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
}

// NewSessionService creates a session service from the signing secret
// loaded at startup. The secret is read-only for the life of the process.
func NewSessionService(secret []byte, ttl time.Duration) (*SessionService, error) {
	if len(secret) < minSessionSecretLen {
		return nil, fmt.Errorf("session secret must be at least %d bytes", minSessionSecretLen)
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionService{
		secret: secret,
		ttl:    ttl,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(sessionIssuer),
			jwt.WithExpirationRequired(),
		),
	}, nil
}

// Issue mints a new session token carrying only an expiry and a unique
// token ID, signed with the current key material.
func (s *SessionService) Issue() (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(s.ttl)

	claims := jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, WrapError("sign session token", err)
	}
	return signed, expires, nil
}

// Validate checks a presented token against current key material and the
// clock. The HMAC comparison inside the JWT library is constant time;
// callers must collapse both failure modes into one generic
// "unauthenticated" signal externally.
func (s *SessionService) Validate(token string) error {
	if token == "" {
		return ErrSessionInvalid
	}

	_, err := s.parser.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrSessionExpired
		}
		return ErrSessionInvalid
	}
	return nil
}

// TTL returns the configured session lifetime.
func (s *SessionService) TTL() time.Duration {
	return s.ttl
}
