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
	"testing"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid",
			config: Config{
				RPID:          "example.com",
				RPDisplayName: "Example",
				RPOrigins:     []string{"https://example.com"},
			},
			wantErr: false,
		},
		{
			name: "missing rp id",
			config: Config{
				RPDisplayName: "Example",
				RPOrigins:     []string{"https://example.com"},
			},
			wantErr: true,
		},
		{
			name: "missing display name",
			config: Config{
				RPID:      "example.com",
				RPOrigins: []string{"https://example.com"},
			},
			wantErr: true,
		},
		{
			name: "no origins",
			config: Config{
				RPID:          "example.com",
				RPDisplayName: "Example",
			},
			wantErr: true,
		},
		{
			name: "origin without scheme",
			config: Config{
				RPID:          "example.com",
				RPDisplayName: "Example",
				RPOrigins:     []string{"example.com"},
			},
			wantErr: true,
		},
		{
			name: "bad user verification",
			config: Config{
				RPID:             "example.com",
				RPDisplayName:    "Example",
				RPOrigins:        []string{"https://example.com"},
				UserVerification: "maybe",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	assert.Equal(t, 60*time.Second, cfg.ChallengeTimeout)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, "preferred", cfg.UserVerification)
}

func TestConfig_ToWebAuthnConfig(t *testing.T) {
	cfg := &Config{
		RPID:             "example.com",
		RPDisplayName:    "Example",
		RPOrigins:        []string{"https://example.com"},
		ChallengeTimeout: 30 * time.Second,
		UserVerification: "required",
	}
	require.NoError(t, cfg.Validate())

	wc := cfg.ToWebAuthnConfig()
	assert.Equal(t, "example.com", wc.RPID)
	assert.Equal(t, []string{"https://example.com"}, wc.RPOrigins)
	assert.Equal(t, protocol.VerificationRequired, wc.AuthenticatorSelection.UserVerification)
	assert.True(t, wc.Timeouts.Login.Enforce)
	assert.Equal(t, 30*time.Second, wc.Timeouts.Registration.Timeout)
}
