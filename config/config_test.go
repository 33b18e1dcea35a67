package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfigFile(t, `
nats:
  url: nats://localhost:4222
  user: relay
  password: secret
jwt:
  secret: file-secret
  default_ttl: 1h
auth_callout:
  enabled: true
  issuer_seed: SAANDLKMXLKCAJKDDD
  issuer_account: ABCACCOUNT
http:
  address: ":9090"
observability:
  metrics_address: ":2112"
  environment: production
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "relay", cfg.NATS.User)
	assert.Equal(t, "file-secret", cfg.JWT.Secret)
	assert.Equal(t, time.Hour, cfg.JWT.DefaultTTL)
	assert.True(t, cfg.AuthCallout.Enabled)
	assert.Equal(t, ":9090", cfg.HTTP.Address)
	assert.Equal(t, "production", cfg.Observability.Environment)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
nats:
  url: nats://file:4222
jwt:
  secret: file-secret
`)

	t.Setenv("NATS_URL", "nats://env:4222")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("JWT_DEFAULT_TTL", "30m")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "nats://env:4222", cfg.NATS.URL)
	assert.Equal(t, "env-secret", cfg.JWT.Secret)
	assert.Equal(t, 30*time.Minute, cfg.JWT.DefaultTTL)
}

func TestLoadConfigFromEnvOnly(t *testing.T) {
	t.Setenv("NATS_URL", "nats://env:4222")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("NATS_SYSTEM_USER", "sys")
	t.Setenv("NATS_SYSTEM_PASSWORD", "sys-pw")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "nats://env:4222", cfg.NATS.URL)
	assert.Equal(t, "sys", cfg.NATS.SystemUser)
	assert.Equal(t, "sys-pw", cfg.NATS.SystemPassword)
	assert.Equal(t, 24*time.Hour, cfg.JWT.DefaultTTL)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, "development", cfg.Observability.Environment)
}

func TestLoadConfigValidation(t *testing.T) {
	t.Run("missing broker URL", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s")
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorContains(t, err, "NATS_URL")
	})

	t.Run("missing token secret", func(t *testing.T) {
		t.Setenv("NATS_URL", "nats://env:4222")
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorContains(t, err, "JWT_SECRET")
	})

	t.Run("callout enabled without issuer seed", func(t *testing.T) {
		t.Setenv("NATS_URL", "nats://env:4222")
		t.Setenv("JWT_SECRET", "s")
		t.Setenv("AUTH_CALLOUT_ENABLED", "true")
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorContains(t, err, "AUTH_CALLOUT_ISSUER_SEED")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeConfigFile(t, "nats: [broken")
		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "unmarshal")
	})
}
