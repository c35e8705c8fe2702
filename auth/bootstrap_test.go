package auth_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-auth-client/auth"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNewFromConfig(t *testing.T) {
	t.Setenv("IDENTITY_SERVICE_URL", "http://localhost:9")
	t.Setenv("FOLDER", t.TempDir())
	t.Setenv("CLIENT_IDENTITY", testClientIdentity)
	t.Setenv("REFRESH_THRESHOLD_SECONDS", "60")

	service, closeStore, err := auth.NewFromConfig(config.New())
	require.NoError(t, err)
	defer func() { require.NoError(t, closeStore()) }()

	// Already initialized from config; re-initializing with the same
	// identity is a no-op.
	require.NoError(t, service.Initialize(testClientIdentity))

	_, err = service.GetCurrentUser(context.Background())
	require.ErrorIs(t, err, auth.NotLoggedInErr)
}
