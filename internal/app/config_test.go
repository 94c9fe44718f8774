package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := NewConfig(DefaultConfig())

	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
}

func TestNewConfig_Normalizes(t *testing.T) {
	t.Parallel()

	in := DefaultConfig()
	in.LogLevel = " DEBUG "
	in.LogFormat = "JSON"

	cfg, err := NewConfig(in)

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestNewConfig_Invalid(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		mutate   func(*Config)
		expected string
	}{
		{"log level", func(c *Config) { c.LogLevel = "verbose" }, "LogLevel must be one of"},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, "LogFormat must be one of"},
		{"fill policy", func(c *Config) { c.FillPolicy = "forward_fill" }, "FillPolicy must be one of"},
		{"listen addr", func(c *Config) { c.ListenAddr = "8080" }, "ListenAddr must be host:port"},
		{"store backend", func(c *Config) { c.Store.Backend = "redis" }, "Backend must be one of"},
		{"badger without path", func(c *Config) { c.Store.Backend = StoreBadger }, "Path is required"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tc.mutate(&cfg)

			_, err := NewConfig(cfg)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expected)
		})
	}
}

func TestNewConfig_BadgerInMemoryNeedsNoPath(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Store = StoreConfig{Backend: StoreBadger, InMemory: true}

	_, err := NewConfig(cfg)

	require.NoError(t, err)
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()
	// Arrange
	path := filepath.Join(t.TempDir(), "recipegrid.yaml")
	content := "log_level: warn\nfill_policy: zero_fill\nstore:\n  backend: badger\n  path: /var/lib/recipegrid\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	// Act
	cfg, err := LoadConfigFile(path, DefaultConfig())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "zero_fill", cfg.FillPolicy)
	assert.Equal(t, "text", cfg.LogFormat, "keys missing from the file keep their default")
	assert.Equal(t, StoreConfig{Backend: StoreBadger, Path: "/var/lib/recipegrid"}, cfg.Store)
}

func TestLoadConfigFile_Errors(t *testing.T) {
	t.Parallel()

	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"), DefaultConfig())
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: [unterminated"), 0o600))
	_, err = LoadConfigFile(path, DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}
