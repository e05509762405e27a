package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, "refreshToken", cfg.Cookie.Name)
	assert.Equal(t, "/metrics", cfg.Metrics.PrometheusPath)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("CLINSTUDY_API_PORT", "9090")
	t.Setenv("CLINSTUDY_AUTH_ACCESS_TOKEN_TTL", "5m")
	t.Setenv("CLINSTUDY_REFRESH_COOKIE_SECURE", "yes")
	t.Setenv("POSTGRES_SSL_MODE", "REQUIRE")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.True(t, cfg.Cookie.Secure)
	assert.Contains(t, cfg.Postgres.DSN(), "sslmode=require")
}

func TestLoadRejectsSharedSecrets(t *testing.T) {
	t.Setenv("CLINSTUDY_JWT_SECRET", "same")
	t.Setenv("CLINSTUDY_JWT_REFRESH_SECRET", "same")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsShortRefreshTTL(t *testing.T) {
	t.Setenv("CLINSTUDY_AUTH_ACCESS_TOKEN_TTL", "1h")
	t.Setenv("CLINSTUDY_AUTH_REFRESH_TOKEN_TTL", "30m")

	_, err := Load()
	assert.Error(t, err)
}

func TestInvalidBcryptCostFallsBack(t *testing.T) {
	t.Setenv("CLINSTUDY_AUTH_BCRYPT_COST", "99")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
}

func TestLoadRejectsHalfConfiguredBootstrapAdmin(t *testing.T) {
	t.Setenv("CLINSTUDY_BOOTSTRAP_ADMIN_EMAIL", "root@example.com")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("CLINSTUDY_BOOTSTRAP_ADMIN_PASSWORD", "StrongPass1!")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "root@example.com", cfg.Auth.BootstrapAdminEmail)
}
