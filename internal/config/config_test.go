package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/stretchr/testify/require"
)

func TestEnvVars(t *testing.T) {
	cfg := config.New()

	t.Run("identity service URL", func(t *testing.T) {
		t.Setenv("IDENTITY_SERVICE_URL", "https://id.example.com")
		require.Equal(t, "https://id.example.com", cfg.GetIdentityServiceURL())
	})

	t.Run("refresh threshold from seconds", func(t *testing.T) {
		t.Setenv("REFRESH_THRESHOLD_SECONDS", "120")
		require.Equal(t, 2*time.Minute, cfg.GetRefreshThreshold())
	})

	t.Run("invalid threshold falls back to default", func(t *testing.T) {
		t.Setenv("REFRESH_THRESHOLD_SECONDS", "not-a-number")
		require.Equal(t, time.Hour, cfg.GetRefreshThreshold())
	})

	t.Run("negative threshold falls back to default", func(t *testing.T) {
		t.Setenv("REFRESH_THRESHOLD_SECONDS", "-5")
		require.Equal(t, time.Hour, cfg.GetRefreshThreshold())
	})

	t.Run("client identity is stable when configured", func(t *testing.T) {
		t.Setenv("CLIENT_IDENTITY", "client-1")
		require.Equal(t, "client-1", cfg.GetClientIdentity())
		require.Equal(t, "client-1", cfg.GetClientIdentity())
	})

	t.Run("client identity is generated when unset", func(t *testing.T) {
		t.Setenv("CLIENT_IDENTITY", "")
		require.NotEmpty(t, cfg.GetClientIdentity())
	})
}
