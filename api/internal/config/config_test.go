package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8001, cfg.Server.Port)
	assert.Zero(t, cfg.Server.WriteTimeout, "write timeout must stay zero or SSE streams die")
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Contains(t, cfg.CORS.AllowedOrigins, "http://localhost:5173")
	assert.Equal(t, 30*time.Second, cfg.Analytics.CacheTTL)
	assert.True(t, cfg.Migrations.Enabled)
	assert.Equal(t, "migrations", cfg.Migrations.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: 9001
auth:
  jwt_secret: file-secret
  token_ttl: 1h
migrations:
  enabled: false
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, "file-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.False(t, cfg.Migrations.Enabled)
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}
