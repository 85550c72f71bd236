package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"7d", 7 * 24 * time.Hour},
		{"30d", 30 * 24 * time.Hour},
		{"1h", time.Hour},
		{"90m", 90 * time.Minute},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseDuration("xd")
	assert.Error(t, err)
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL", "")
	t.Setenv("HTTP_MAX_BODY_MB", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultAccessTokenTTL, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, DefaultRefreshTokenTTL, cfg.Auth.RefreshTokenTTL)
	assert.Equal(t, DefaultPasswordResetTTL, cfg.Auth.PasswordResetTTL)
	assert.Equal(t, DefaultIssuer, cfg.Auth.Issuer)
	assert.Equal(t, 10*1024*1024, cfg.App.MaxBodyBytes())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL", "15m")
	t.Setenv("AUTH_JWT_SECRET", "rotated-secret")
	t.Setenv("HTTP_MAX_BODY_MB", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL)
	assert.Equal(t, "rotated-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 2*1024*1024, cfg.App.MaxBodyBytes())
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("AUTH_REFRESH_TOKEN_TTL", "soon")

	_, err := Load()
	assert.ErrorContains(t, err, "AUTH_REFRESH_TOKEN_TTL")
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}
