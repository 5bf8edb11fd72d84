package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "development", cfg.Server.Env)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, 20*time.Minute, cfg.Auth.ResetTokenTTL)
	assert.Equal(t, 10.0, cfg.Payment.ShippingCost)
	assert.Equal(t, "INR", cfg.Payment.Currency)
	assert.Equal(t, "@every 30m", cfg.Jobs.StaleOrderSchedule)
	assert.False(t, cfg.MySQL.Enabled())
	assert.False(t, cfg.IsProduction())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  env: production
  allowed_origins: [https://shop.example.com]
auth:
  access_ttl: 5m
mysql:
  host: db
  username: shop
  password: secret
  database: ledger
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://shop.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTTL)
	assert.True(t, cfg.MySQL.Enabled())
	assert.Equal(t, "shop:secret@tcp(db:3306)/ledger?charset=utf8mb4&parseTime=True&loc=Local", cfg.MySQL.DSN())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("STOREFRONT_AUTH_ACCESS_SECRET", "from-env-access-secret")
	t.Setenv("STOREFRONT_SERVER_PORT", "7070")

	cfg, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)

	assert.Equal(t, "from-env-access-secret", cfg.Auth.AccessSecret)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.access_secret is required")
	assert.Contains(t, err.Error(), "auth.refresh_secret is required")

	cfg.Auth.AccessSecret = "same-secret-value"
	cfg.Auth.RefreshSecret = "same-secret-value"
	assert.ErrorContains(t, cfg.Validate(), "must differ")

	cfg.Auth.RefreshSecret = "another-secret-value"
	assert.NoError(t, cfg.Validate())
}
