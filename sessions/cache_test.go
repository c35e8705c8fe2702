package sessions_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-client/sessions"
	"github.com/jrsteele09/go-auth-client/sessions/repofakes"
	"github.com/stretchr/testify/require"
)

func testUser(idToken string) *sessions.User {
	return &sessions.User{
		Session: sessions.Session{
			IDToken:        idToken,
			RefreshToken:   "refresh-" + idToken,
			IssuedAt:       time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
			ClientIdentity: "client-1",
		},
		Profile: sessions.Profile{
			UserID:   "user-1",
			Username: "john.doe",
			Email:    "john.doe@example.com",
		},
	}
}

func TestCache(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		cache := sessions.NewCache(repofakes.NewFakeCredentialRepo(), "client-1")
		user := testUser("token-1")

		require.NoError(t, cache.Set(user))
		require.Equal(t, user, cache.Get())
		require.Equal(t, user, cache.Get())
	})

	t.Run("empty cache returns nil", func(t *testing.T) {
		cache := sessions.NewCache(repofakes.NewFakeCredentialRepo(), "client-1")
		require.Nil(t, cache.Get())
	})

	t.Run("set overwrites the previous user", func(t *testing.T) {
		cache := sessions.NewCache(repofakes.NewFakeCredentialRepo(), "client-1")

		require.NoError(t, cache.Set(testUser("token-1")))
		second := testUser("token-2")
		require.NoError(t, cache.Set(second))
		require.Equal(t, second, cache.Get())
	})

	t.Run("set mirrors the session to the durable store", func(t *testing.T) {
		repo := repofakes.NewFakeCredentialRepo()
		cache := sessions.NewCache(repo, "client-1")
		user := testUser("token-1")

		require.NoError(t, cache.Set(user))

		saved, err := repo.Load("client-1")
		require.NoError(t, err)
		require.NotNil(t, saved)
		require.Equal(t, user.Session, *saved)
	})

	t.Run("clear wipes memory and store", func(t *testing.T) {
		repo := repofakes.NewFakeCredentialRepo()
		cache := sessions.NewCache(repo, "client-1")

		require.NoError(t, cache.Set(testUser("token-1")))
		require.NoError(t, cache.Clear())
		require.Nil(t, cache.Get())

		saved, err := repo.Load("client-1")
		require.NoError(t, err)
		require.Nil(t, saved)
	})

	t.Run("persistence failure surfaces", func(t *testing.T) {
		repo := repofakes.NewFakeCredentialRepo()
		repo.SetErrors(nil, errors.New("disk full"), nil)
		cache := sessions.NewCache(repo, "client-1")

		require.Error(t, cache.Set(testUser("token-1")))
	})
}

func TestSessionExpired(t *testing.T) {
	issuedAt := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	session := sessions.Session{IssuedAt: issuedAt}

	t.Run("younger than threshold", func(t *testing.T) {
		require.False(t, session.Expired(issuedAt.Add(30*time.Minute), time.Hour))
	})

	t.Run("exactly at threshold", func(t *testing.T) {
		require.True(t, session.Expired(issuedAt.Add(time.Hour), time.Hour))
	})

	t.Run("older than threshold", func(t *testing.T) {
		require.True(t, session.Expired(issuedAt.Add(2*time.Hour), time.Hour))
	})

	t.Run("zero threshold is always expired", func(t *testing.T) {
		require.True(t, session.Expired(issuedAt, 0))
	})
}
