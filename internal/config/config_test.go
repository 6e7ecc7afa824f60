package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ACCESS_TOKEN_TTL", "")
	t.Setenv("REFRESH_TOKEN_TTL", "")
	t.Setenv("ADMIN_EMAIL", "")
	t.Setenv("ADMIN_PASSWORD", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, 168*time.Hour, cfg.Auth.RefreshTTL)
	assert.Equal(t, "access_token", cfg.Auth.AccessCookieName)
	assert.Equal(t, "refresh_token", cfg.Auth.RefreshCookieName)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Empty(t, cfg.Bootstrap.AdminEmail)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingJWTSecret)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("REFRESH_TOKEN_TTL", "3600")
	t.Setenv("ADMIN_EMAIL", "root@x.com")
	t.Setenv("ADMIN_PASSWORD", "admin-password")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_PASSWORD", "pw")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, time.Hour, cfg.Auth.RefreshTTL)
	assert.Equal(t, "root@x.com", cfg.Bootstrap.AdminEmail)
	assert.Contains(t, cfg.Database.URL, "postgres://")
	assert.Contains(t, cfg.Database.URL, ":pw@")
}

func TestValidateRejectsSharedCookieName(t *testing.T) {
	cfg := &Config{
		JWT: JWTConfig{Secret: "s"},
		Auth: AuthConfig{
			AccessTTL:         time.Minute,
			RefreshTTL:        time.Hour,
			AccessCookieName:  "token",
			RefreshCookieName: "token",
		},
	}
	assert.Error(t, cfg.Validate())
}
