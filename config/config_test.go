package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "stub", cfg.Payment.Gateway)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Database.Driver = "oracle"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Payment.Gateway = "paystack"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Payment.SuccessRate = 1.5
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.RateLimit.Requests = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateProductionSecrets(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"default access secret", func(c *Config) { c.JWT.AccessSecret = Default().JWT.AccessSecret }, false},
		{"default refresh secret", func(c *Config) { c.JWT.RefreshSecret = Default().JWT.RefreshSecret }, false},
		{"no webhook secret", func(c *Config) { c.Payment.WebhookSecret = "" }, false},
		{"all secrets set", func(*Config) {}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Server.Env = "production"
			cfg.JWT.AccessSecret = "access-secret"
			cfg.JWT.RefreshSecret = "refresh-secret"
			cfg.Payment.WebhookSecret = "whsec"
			tt.modify(cfg)
			if tt.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}

	dev := Default()
	require.Empty(t, dev.Payment.WebhookSecret)
	assert.NoError(t, dev.Validate())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: "9000"
  readtimeout: 5s
payment:
  successrate: 1
ratelimit:
  requests: 10
  window: 1m
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("APP_SERVER_PORT", "9100")
	t.Setenv("APP_JWT_ISSUER", "test-issuer")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 1.0, cfg.Payment.SuccessRate)
	assert.Equal(t, 10, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "test-issuer", cfg.JWT.Issuer)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Port, cfg.Server.Port)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "server.readtimeout", envKey("APP_SERVER_READTIMEOUT"))
	assert.Equal(t, "database.dsn", envKey("APP_DATABASE_DSN"))
}
