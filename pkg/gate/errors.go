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
)

// Sentinel errors for gateway operations.
var (
	// ErrChallengeExpiredOrUnknown is returned when a challenge reference
	// cannot be consumed. Expired, already-consumed, and never-issued
	// references are deliberately indistinguishable.
	ErrChallengeExpiredOrUnknown = errors.New("challenge expired or unknown")

	// ErrCredentialNotFound is returned when a credential cannot be found.
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrDuplicateCredentialName is returned when a credential name is
	// already taken.
	ErrDuplicateCredentialName = errors.New("credential name already in use")

	// ErrCounterRegression is returned when an assertion presents a
	// signature counter lower than the stored one. This is a strong
	// signal of credential cloning and is never retried.
	ErrCounterRegression = errors.New("signature counter regression")

	// ErrVerificationFailed is returned when attestation or assertion
	// verification fails.
	ErrVerificationFailed = errors.New("verification failed")

	// ErrNoCredentials is returned when no credentials are registered.
	ErrNoCredentials = errors.New("no registered credentials")

	// ErrSessionInvalid is returned when a session token fails signature
	// or structural validation.
	ErrSessionInvalid = errors.New("invalid session token")

	// ErrSessionExpired is returned when a session token has expired.
	ErrSessionExpired = errors.New("session token expired")

	// ErrInvalidName is returned when a credential name is empty.
	ErrInvalidName = errors.New("credential name is required")

	// ErrNotConfigured is returned when the service is not properly configured.
	ErrNotConfigured = errors.New("gate service not configured")
)

// GateError wraps an error with the operation that produced it.
type GateError struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

// Error returns the error message.
func (e *GateError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *GateError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches.
func (e *GateError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates a new GateError with the given operation and error.
func NewError(op string, err error) error {
	return &GateError{
		Op:  op,
		Err: err,
	}
}

// WrapError wraps an error with an operation name if it's not nil.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(op, err)
}

// IsChallengeExpiredOrUnknown returns true if the error indicates an
// unusable challenge reference.
func IsChallengeExpiredOrUnknown(err error) bool {
	return errors.Is(err, ErrChallengeExpiredOrUnknown)
}

// IsCredentialNotFound returns true if the error indicates a credential was not found.
func IsCredentialNotFound(err error) bool {
	return errors.Is(err, ErrCredentialNotFound)
}

// IsDuplicateCredentialName returns true if the error indicates a name collision.
func IsDuplicateCredentialName(err error) bool {
	return errors.Is(err, ErrDuplicateCredentialName)
}

// IsCounterRegression returns true if the error indicates a counter regression.
func IsCounterRegression(err error) bool {
	return errors.Is(err, ErrCounterRegression)
}

// IsVerificationFailed returns true if the error indicates verification failed.
func IsVerificationFailed(err error) bool {
	return errors.Is(err, ErrVerificationFailed)
}

// IsSessionInvalid returns true if the error indicates an unusable session
// token for any reason, expiry included.
func IsSessionInvalid(err error) bool {
	return errors.Is(err, ErrSessionInvalid) || errors.Is(err, ErrSessionExpired)
}
