// Package identity defines the contract with the remote identity provider
// and ships two implementations: a plain JSON-over-HTTP client and an
// OIDC/OAuth2 adapter.
package identity

import (
	"context"

	"github.com/jrsteele09/go-auth-client/sessions"
)

// Strategy selects how Login authenticates.
type Strategy string

// StrategyUserPass authenticates with a username and password.
const StrategyUserPass Strategy = "user-pass"

// Credentials for the user-pass strategy.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegistrationDetails describe a new account.
type RegistrationDetails struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// Client performs the network calls against the identity provider. Sessions
// returned from Login and Refresh carry the token pair only; the coordinator
// stamps IssuedAt and the client identity when it accepts them.
type Client interface {
	// Register creates an account. Fails with RegistrationFailedErr on a
	// duplicate username or invalid input.
	Register(ctx context.Context, details RegistrationDetails) (*sessions.Profile, error)
	// Login authenticates and returns a new token pair. Fails with
	// AuthenticationFailedErr on bad credentials.
	Login(ctx context.Context, strategy Strategy, creds Credentials) (*sessions.Session, error)
	// FetchProfile resolves the profile behind an identity token. Fails with
	// AuthenticationFailedErr on an invalid or expired token.
	FetchProfile(ctx context.Context, idToken string) (*sessions.Profile, error)
	// Refresh exchanges a refresh token for a new token pair. Fails with
	// RefreshFailedErr on an invalid or revoked refresh token.
	Refresh(ctx context.Context, refreshToken string) (*sessions.Session, error)
	// DeleteCurrentUser removes the account behind the identity token.
	DeleteCurrentUser(ctx context.Context, idToken string) error
}
