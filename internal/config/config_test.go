package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/ZanzyTHEbar/hacs-api/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, int64(1<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "./model", cfg.Model.Dir)
	assert.Equal(t, 5, cfg.Explain.TopN)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("HACS_SERVER_PORT", "9090")
	t.Setenv("HACS_MODEL_DIR", "/srv/artifacts")
	t.Setenv("HACS_EXPLAIN_TOP_N", "3")
	t.Setenv("HACS_SERVER_REQUEST_TIMEOUT", "5s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "/srv/artifacts", cfg.Model.Dir)
	assert.Equal(t, 3, cfg.Explain.TopN)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hacs.yaml")
	content := `
server:
  port: "7000"
  allowed_origins:
    - http://localhost:5173
model:
  dir: ./artifacts
logging:
  level: debug
  format: text
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "./artifacts", cfg.Model.Dir)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 5, cfg.Explain.TopN)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConfiguration))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty port", func(c *Config) { c.Server.Port = "" }},
		{"zero timeout", func(c *Config) { c.Server.RequestTimeout = 0 }},
		{"zero upload size", func(c *Config) { c.Server.MaxUploadBytes = 0 }},
		{"zero rate limit", func(c *Config) { c.Server.RateLimitPerMin = 0 }},
		{"no origins", func(c *Config) { c.Server.AllowedOrigins = nil }},
		{"empty model dir", func(c *Config) { c.Model.Dir = "" }},
		{"zero top n", func(c *Config) { c.Explain.TopN = 0 }},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConfiguration))
		})
	}
}
