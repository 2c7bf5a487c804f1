// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 30, cfg.Sessions.PageSize)
	assert.Equal(t, "dark", cfg.UI.Theme)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.IsConfigured())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromPathMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Sessions.PageSize)
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
url = "https://chat.example.com"
api_key = "ragflow-abc123"
chat_id = "agent-7"

[sessions]
page_size = 50

[ui]
theme = "light"
`), 0o600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "https://chat.example.com", cfg.Server.URL)
	assert.Equal(t, "agent-7", cfg.Server.ChatID)
	assert.Equal(t, 50, cfg.Sessions.PageSize)
	assert.Equal(t, "light", cfg.UI.Theme)
	assert.True(t, cfg.IsConfigured())
}

func TestEnvOverridesWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
url = "https://file.example.com"
`), 0o600))

	t.Setenv("MIRRORCHAT_SERVER_URL", "https://env.example.com")
	t.Setenv("MIRRORCHAT_API_KEY", "env-key")
	t.Setenv("MIRRORCHAT_PAGE_SIZE", "12")

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.Server.URL)
	assert.Equal(t, "env-key", cfg.Server.APIKey)
	assert.Equal(t, 12, cfg.Sessions.PageSize)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Server.URL = "not a url"
	cfg.Sessions.PageSize = 0
	cfg.UI.Theme = "solarized"
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)

	var errs ValidateErrors
	require.ErrorAs(t, err, &errs)
	assert.Len(t, errs, 4)
	assert.Contains(t, err.Error(), "server.url")
	assert.Contains(t, err.Error(), "sessions.page_size")
}
