// Copyright 2026 The Lagoon Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Production is for release builds.
	Production Environment = "production"
)

// Config is the master configuration for the Lagoon client core.
type Config struct {
	// Environment identifies the deployment type.
	Environment Environment `yaml:"environment"`

	// Server configures the remote chat service.
	Server ServerConfig `yaml:"server"`

	// Paths configures on-device storage locations.
	Paths PathsConfig `yaml:"paths"`

	// Sync configures the background sync schedule.
	Sync SyncConfig `yaml:"sync"`

	// Per-environment overrides, applied after the base config loads.
	Development *Overrides `yaml:"development,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides contains fields that can be overridden per environment.
type Overrides struct {
	Server *ServerConfig `yaml:"server,omitempty"`
	Paths  *PathsConfig  `yaml:"paths,omitempty"`
	Sync   *SyncConfig   `yaml:"sync,omitempty"`
}

// ServerConfig configures the remote chat service connection.
type ServerConfig struct {
	// URL is the base URL of the chat service
	// (e.g., "https://chat.example.org").
	URL string `yaml:"url"`
}

// PathsConfig configures on-device storage locations.
type PathsConfig struct {
	// StateDir is the directory for runtime state: the saved session
	// file and the SQLite database. Created on first run.
	StateDir string `yaml:"state_dir"`

	// Database is the SQLite database path. Empty means
	// StateDir/lagoon.db.
	Database string `yaml:"database"`
}

// SyncConfig configures the background sync schedule.
type SyncConfig struct {
	// SettingsInterval is how often the settings sync engine pulls
	// configuration deltas. Zero means the default of 5 minutes.
	SettingsInterval time.Duration `yaml:"settings_interval"`
}

// Default returns a Config with development defaults.
func Default() *Config {
	return &Config{
		Environment: Development,
		Server: ServerConfig{
			URL: "http://localhost:3000",
		},
		Paths: PathsConfig{
			StateDir: "${HOME}/.local/state/lagoon",
		},
		Sync: SyncConfig{
			SettingsInterval: 5 * time.Minute,
		},
	}
}

// Load reads configuration from the file named by the LAGOON_CONFIG
// environment variable. Returns Default() if the variable is unset.
func Load() (*Config, error) {
	path := os.Getenv("LAGOON_CONFIG")
	if path == "" {
		cfg := Default()
		cfg.expand()
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile reads configuration from the given YAML file, applies the
// matching environment override section, and expands path variables.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.applyOverrides()
	cfg.expand()

	if cfg.Server.URL == "" {
		return nil, fmt.Errorf("config: %s: server.url is required", path)
	}
	return cfg, nil
}

// DatabasePath returns the resolved SQLite database path.
func (c *Config) DatabasePath() string {
	if c.Paths.Database != "" {
		return c.Paths.Database
	}
	return filepath.Join(c.Paths.StateDir, "lagoon.db")
}

// SessionFilePath returns the path of the saved session state file.
func (c *Config) SessionFilePath() string {
	return filepath.Join(c.Paths.StateDir, "session.cbor")
}

// applyOverrides merges the override section matching c.Environment
// into the base configuration.
func (c *Config) applyOverrides() {
	var overrides *Overrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}

	if overrides.Server != nil && overrides.Server.URL != "" {
		c.Server.URL = overrides.Server.URL
	}
	if overrides.Paths != nil {
		if overrides.Paths.StateDir != "" {
			c.Paths.StateDir = overrides.Paths.StateDir
		}
		if overrides.Paths.Database != "" {
			c.Paths.Database = overrides.Paths.Database
		}
	}
	if overrides.Sync != nil && overrides.Sync.SettingsInterval != 0 {
		c.Sync.SettingsInterval = overrides.Sync.SettingsInterval
	}
}

// variablePattern matches ${VAR} and ${VAR:-default}.
var variablePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// expand performs environment variable expansion on path fields.
func (c *Config) expand() {
	c.Paths.StateDir = expandVariables(c.Paths.StateDir)
	c.Paths.Database = expandVariables(c.Paths.Database)
}

func expandVariables(s string) string {
	return variablePattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := variablePattern.FindStringSubmatch(match)
		if value, ok := os.LookupEnv(groups[1]); ok {
			return value
		}
		return groups[2]
	})
}
