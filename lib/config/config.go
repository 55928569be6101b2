// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for Warden.
//
// Configuration is loaded from a single file specified by:
//   - WARDEN_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable configuration with no hidden overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/warden/lib/ref"
)

// Config is the master configuration for a Warden deployment.
type Config struct {
	// Matrix configures the homeserver connection and credentials.
	Matrix MatrixConfig `yaml:"matrix"`

	// Moderation configures admin identities and role handling.
	Moderation ModerationConfig `yaml:"moderation"`

	// Store configures the persistent state file.
	Store StoreConfig `yaml:"store"`

	// Health configures the liveness HTTP endpoint.
	Health HealthConfig `yaml:"health"`

	// Messages is the path to the JSONC message template file.
	// Empty means built-in templates.
	Messages string `yaml:"messages"`
}

// MatrixConfig configures the homeserver connection. Either
// AccessToken+UserID or Username+Password must be set; when both are
// present the token pair wins and no login request is made.
type MatrixConfig struct {
	// HomeserverURL is the base URL of the homeserver, e.g.
	// https://matrix.example.org.
	HomeserverURL string `yaml:"homeserver_url"`

	// UserID is the bot's full Matrix user ID. Required alongside
	// AccessToken; ignored for password login (the server reports the
	// resulting user ID).
	UserID string `yaml:"user_id"`

	// AccessToken authenticates requests directly, skipping login.
	AccessToken string `yaml:"access_token"`

	// Username is the localpart used for password login.
	Username string `yaml:"username"`

	// Password is the password used for password login.
	Password string `yaml:"password"`

	// DisplayName is set on the bot's profile at startup when
	// non-empty. Failure to set it is logged, not fatal.
	DisplayName string `yaml:"display_name"`
}

// ModerationConfig configures who the bot treats as an administrator
// and how unverified members are handled.
type ModerationConfig struct {
	// Admins are administrator identifiers: full user IDs or bare
	// localparts. Matching is resolved at event time against both
	// forms.
	Admins []string `yaml:"admins"`

	// DefaultRole is the role assigned to members with no explicit
	// role record. Members holding it cannot send messages. Default:
	// "unverified".
	DefaultRole string `yaml:"default_role"`

	// VerifiedRole is the role granted by verification. Default:
	// "verified".
	VerifiedRole string `yaml:"verified_role"`

	// VerificationContacts are the identities (admin names, links)
	// substituted into welcome messages telling new members whom to
	// contact for verification.
	VerificationContacts []string `yaml:"verification_contacts"`

	// IgnoredRooms are room IDs the bot leaves unmoderated. Events
	// from these rooms are dropped before any processing.
	IgnoredRooms []string `yaml:"ignored_rooms"`
}

// StoreConfig configures moderation state persistence.
type StoreConfig struct {
	// Path is the JSON state file. Created on first write if absent.
	// Default: ${HOME}/.local/state/warden/state.json.
	Path string `yaml:"path"`
}

// HealthConfig configures the liveness HTTP endpoint.
type HealthConfig struct {
	// ListenAddress is the address the health server binds, e.g.
	// ":8080". Empty disables the endpoint.
	ListenAddress string `yaml:"listen_address"`
}

// Default returns the default configuration. These defaults ensure all
// fields have sensible zero-values, not a substitute for the required
// config file.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Matrix: MatrixConfig{
			DisplayName: "Warden",
		},
		Moderation: ModerationConfig{
			DefaultRole:  "unverified",
			VerifiedRole: "verified",
		},
		Store: StoreConfig{
			Path: filepath.Join(homeDir, ".local", "state", "warden", "state.json"),
		},
		Health: HealthConfig{
			ListenAddress: ":8080",
		},
	}
}

// Load loads configuration from the WARDEN_CONFIG environment variable.
//
// There are no fallbacks - if WARDEN_CONFIG is not set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("WARDEN_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("WARDEN_CONFIG environment variable not set; " +
			"set it to the path of your warden.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. The config
// file is the single source of truth; environment variables do not
// override its values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Matrix.HomeserverURL == "" {
		errs = append(errs, fmt.Errorf("matrix.homeserver_url is required"))
	} else if u, err := url.Parse(c.Matrix.HomeserverURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("matrix.homeserver_url %q is not an absolute URL", c.Matrix.HomeserverURL))
	}

	hasToken := c.Matrix.AccessToken != ""
	hasPassword := c.Matrix.Username != "" && c.Matrix.Password != ""
	switch {
	case hasToken:
		if c.Matrix.UserID == "" {
			errs = append(errs, fmt.Errorf("matrix.user_id is required with matrix.access_token"))
		} else if _, err := ref.ParseUserID(c.Matrix.UserID); err != nil {
			errs = append(errs, fmt.Errorf("matrix.user_id: %w", err))
		}
	case hasPassword:
		// Login resolves the user ID.
	default:
		errs = append(errs, fmt.Errorf("matrix credentials required: either access_token+user_id or username+password"))
	}

	if len(c.Moderation.Admins) == 0 {
		errs = append(errs, fmt.Errorf("moderation.admins must list at least one administrator"))
	}
	for _, admin := range c.Moderation.Admins {
		if strings.TrimSpace(admin) == "" {
			errs = append(errs, fmt.Errorf("moderation.admins contains a blank entry"))
		}
	}

	if c.Moderation.DefaultRole == "" {
		errs = append(errs, fmt.Errorf("moderation.default_role is required"))
	}
	if c.Moderation.VerifiedRole == "" {
		errs = append(errs, fmt.Errorf("moderation.verified_role is required"))
	}
	if c.Moderation.DefaultRole == c.Moderation.VerifiedRole {
		errs = append(errs, fmt.Errorf("moderation.default_role and moderation.verified_role must differ"))
	}

	for _, room := range c.Moderation.IgnoredRooms {
		if _, err := ref.ParseRoomID(room); err != nil {
			errs = append(errs, fmt.Errorf("moderation.ignored_rooms: %w", err))
		}
	}

	if c.Store.Path == "" {
		errs = append(errs, fmt.Errorf("store.path is required"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// IgnoredRoomSet returns the ignored rooms as a lookup set. Validate
// must have succeeded first.
func (c *Config) IgnoredRoomSet() map[ref.RoomID]bool {
	set := make(map[ref.RoomID]bool, len(c.Moderation.IgnoredRooms))
	for _, room := range c.Moderation.IgnoredRooms {
		set[ref.MustParseRoomID(room)] = true
	}
	return set
}
