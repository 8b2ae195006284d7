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

// Package config loads and validates the gateway server configuration
// from a YAML file with environment variable overrides.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/go-authgate/pkg/gate"
)

// Config represents the complete server configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Gate    GateConfig    `yaml:"gate"`
}

// ServerConfig contains server-level settings
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// MetricsConfig controls Prometheus exposition
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// GateConfig contains the authentication gateway settings
type GateConfig struct {
	// RPID is the Relying Party identifier (the cookie/credential domain)
	RPID string `yaml:"rp_id"`

	// RPDisplayName is shown by authenticator prompts
	RPDisplayName string `yaml:"rp_display_name"`

	// RPOrigin is the gateway's own origin, e.g. "https://auth.example.com"
	RPOrigin string `yaml:"rp_origin"`

	// ExtraAllowedOrigins are additional origins accepted for WebAuthn
	// operations and post-login return URLs
	ExtraAllowedOrigins []string `yaml:"extra_allowed_origins"`

	// SessionSecretFile is the path to the file holding the session
	// signing secret. The process refuses to start without it.
	SessionSecretFile string `yaml:"session_secret_file"`

	// SessionTTL is the lifetime of issued session tokens
	SessionTTL time.Duration `yaml:"session_ttl"`

	// ChallengeTimeout bounds both WebAuthn ceremonies
	ChallengeTimeout time.Duration `yaml:"challenge_timeout"`

	// DataDir is where enrolled credentials are persisted
	DataDir string `yaml:"data_dir"`

	// UserVerification: "required", "preferred", or "discouraged"
	UserVerification string `yaml:"user_verification"`
}

// Load reads the configuration file, applies environment overrides and
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets the deployment layer override file settings
// without rewriting the file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("AUTHGATE_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("AUTHGATE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("AUTHGATE_RP_ID"); v != "" {
		c.Gate.RPID = v
	}
	if v := os.Getenv("AUTHGATE_RP_ORIGIN"); v != "" {
		c.Gate.RPOrigin = v
	}
	if v := os.Getenv("AUTHGATE_EXTRA_ALLOWED_ORIGINS"); v != "" {
		c.Gate.ExtraAllowedOrigins = splitAndTrim(v)
	}
	if v := os.Getenv("AUTHGATE_SESSION_SECRET_FILE"); v != "" {
		c.Gate.SessionSecretFile = v
	}
	if v := os.Getenv("AUTHGATE_DATA_DIR"); v != "" {
		c.Gate.DataDir = v
	}
	if v := os.Getenv("AUTHGATE_DEBUG"); v != "" {
		if debug, err := strconv.ParseBool(v); err == nil {
			c.Logging.Debug = debug
		}
	}
}

// setDefaults fills unset fields with production defaults.
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "::"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Gate.RPDisplayName == "" {
		c.Gate.RPDisplayName = c.Gate.RPID
	}
	if c.Gate.SessionTTL == 0 {
		c.Gate.SessionTTL = time.Hour
	}
	if c.Gate.ChallengeTimeout == 0 {
		c.Gate.ChallengeTimeout = 60 * time.Second
	}
	if c.Gate.DataDir == "" {
		c.Gate.DataDir = "/var/lib/authgate"
	}
}

// Validate returns an error describing the first invalid setting found.
func (c *Config) Validate() error {
	if c.Gate.RPID == "" {
		return fmt.Errorf("config: gate.rp_id is required")
	}
	if c.Gate.RPOrigin == "" {
		return fmt.Errorf("config: gate.rp_origin is required")
	}
	if c.Gate.SessionSecretFile == "" {
		return fmt.Errorf("config: gate.session_secret_file is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	return nil
}

// Origins returns the full allowed-origin list: the gateway's own origin
// first, then the extras.
func (c *Config) Origins() []string {
	origins := make([]string, 0, 1+len(c.Gate.ExtraAllowedOrigins))
	origins = append(origins, c.Gate.RPOrigin)
	origins = append(origins, c.Gate.ExtraAllowedOrigins...)
	return origins
}

// ReadSessionSecret loads the session signing secret. The error is fatal
// at startup: serving without key material is never acceptable.
func (c *Config) ReadSessionSecret() ([]byte, error) {
	data, err := os.ReadFile(c.Gate.SessionSecretFile)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read session secret %s: %w",
			c.Gate.SessionSecretFile, err)
	}
	secret := bytes.TrimSpace(data)
	if len(secret) == 0 {
		return nil, fmt.Errorf("config: session secret %s is empty", c.Gate.SessionSecretFile)
	}
	return secret, nil
}

// ToGateConfig converts the loaded settings into the core service config.
func (c *Config) ToGateConfig() *gate.Config {
	return &gate.Config{
		RPID:             c.Gate.RPID,
		RPDisplayName:    c.Gate.RPDisplayName,
		RPOrigins:        c.Origins(),
		ChallengeTimeout: c.Gate.ChallengeTimeout,
		SessionTTL:       c.Gate.SessionTTL,
		UserVerification: c.Gate.UserVerification,
		Debug:            c.Logging.Debug,
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
