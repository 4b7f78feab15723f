package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 60*time.Second, cfg.Render.Revalidate)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blogster.yaml")
	err := os.WriteFile(path, []byte(`
api:
  base_url: http://localhost:3000
render:
  revalidate: 5s
log:
  format: json
`), 0o600)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Render.Revalidate)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blogster.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9000\"\n"), 0o600))
	t.Setenv("BLOGSTER_SERVER_ADDR", ":7000")
	t.Setenv("BLOGSTER_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := map[string]func(*Config){
		"relative base url":   func(c *Config) { c.API.BaseURL = "/posts" },
		"negative rate limit": func(c *Config) { c.API.RateLimit = -1 },
		"negative revalidate": func(c *Config) { c.Render.Revalidate = -time.Second },
		"unknown level":       func(c *Config) { c.Log.Level = "loud" },
		"unknown format":      func(c *Config) { c.Log.Format = "xml" },
		"telemetry without endpoint": func(c *Config) {
			c.Telemetry.Enabled = true
			c.Telemetry.Endpoint = ""
		},
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}
