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

// Package gate implements the core of the authentication gateway: the
// WebAuthn registration and authentication ceremonies, the credential
// registry, single-use challenge management, and stateless session
// tokens verified by the fronting reverse proxy on every request.
//
// This package wraps the go-webauthn/webauthn library and provides:
//   - A single-tenant credential registry persisted through a pluggable
//     storage backend, with per-credential signature counters
//   - Exactly-once challenge consumption for both ceremonies
//   - HS256-signed session tokens with no server-side session state
//   - An open-redirect check for post-login return URLs
//
// # Architecture
//
//  1. Service layer (Service) - Ceremony orchestration
//  2. Registry layer (Registry) - Durable credential persistence
//  3. Session layer (SessionService) - Stateless token issue/verify
//  4. HTTP layer (internal/rest) - chi router exposing the gateway API
//
// # Usage
//
//	registry := gate.NewRegistry(storage.NewMemory())
//	sessions, _ := gate.NewSessionService(secret, time.Hour)
//	svc, err := gate.NewService(gate.ServiceParams{
//	    Config: &gate.Config{
//	        RPID:          "example.com",
//	        RPDisplayName: "Example",
//	        RPOrigins:     []string{"https://auth.example.com"},
//	    },
//	    Registry: registry,
//	    Sessions: sessions,
//	})
//
// Note: WebAuthn requires HTTPS for all operations. Browsers will only
// expose the WebAuthn API in secure contexts.
package gate
