// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for mirrorchat.
//
// Configuration is TOML with environment variable overrides and built-in
// defaults. File location: ~/.mirrorchat/config.toml.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete mirrorchat configuration.
type Config struct {
	// Server settings
	Server ServerConfig `toml:"server"`

	// Session list settings
	Sessions SessionsConfig `toml:"sessions"`

	// UI settings
	UI UIConfig `toml:"ui"`

	// Logging settings
	Log LogConfig `toml:"log"`
}

// ServerConfig identifies the remote chat-session service.
type ServerConfig struct {
	// URL is the base URL of the service, without a trailing slash.
	URL string `toml:"url"`
	// APIKey is the opaque bearer credential sent on every request.
	APIKey string `toml:"api_key"`
	// ChatID selects the assistant/agent whose sessions are addressed.
	ChatID string `toml:"chat_id"`
}

// SessionsConfig controls session list queries.
type SessionsConfig struct {
	// PageSize is the number of sessions fetched per list refresh.
	PageSize int `toml:"page_size"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark" or "light".
	Theme string `toml:"theme"`
	// CompactMode uses a narrower sidebar.
	CompactMode bool `toml:"compact_mode"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `toml:"level"`
}

// =============================================================================
// DEFAULTS AND PATHS
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Sessions: SessionsConfig{PageSize: 30},
		UI:       UIConfig{Theme: "dark"},
		Log:      LogConfig{Level: "info"},
	}
}

// Dir returns the configuration directory (~/.mirrorchat).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".mirrorchat"), nil
}

// Path returns the configuration file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration file, applies environment overrides, and
// validates the result. A missing file is not an error; defaults apply.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from an explicit file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides applies MIRRORCHAT_* environment variables on top of the
// file values. Environment always wins.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("MIRRORCHAT_SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("MIRRORCHAT_API_KEY"); v != "" {
		c.Server.APIKey = v
	}
	if v := os.Getenv("MIRRORCHAT_CHAT_ID"); v != "" {
		c.Server.ChatID = v
	}
	if v := os.Getenv("MIRRORCHAT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("MIRRORCHAT_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Sessions.PageSize = n
		}
	}
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration to the default path, creating the directory
// if needed. The file is written atomically via a temp file rename.
func Save(cfg *Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	path, err := Path()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "config-*.toml")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Server.URL != "" {
		u, err := url.Parse(c.Server.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "server.url",
				Message: fmt.Sprintf("invalid URL '%s', must be http(s)://host", c.Server.URL),
			})
		}
	}

	if c.Sessions.PageSize < 1 || c.Sessions.PageSize > 1000 {
		errs = append(errs, ValidationError{
			Field:   "sessions.page_size",
			Message: fmt.Sprintf("invalid page size %d, must be 1-1000", c.Sessions.PageSize),
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light", c.UI.Theme),
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// IsConfigured reports whether the server connection is fully specified.
func (c *Config) IsConfigured() bool {
	return c.Server.URL != "" && c.Server.APIKey != "" && c.Server.ChatID != ""
}
