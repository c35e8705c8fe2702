package identity

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-auth-client/sessions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

var _ Client = (*OIDCClient)(nil)

// OIDCClient adapts a standard OIDC/OAuth2 provider to the Client contract
// using the resource-owner password grant for Login and the token endpoint
// for Refresh. The bearer carried in Session.IDToken is the provider's
// access token, so FetchProfile can call the UserInfo endpoint with it.
//
// Account registration and deletion are not part of OIDC; providers manage
// those out of band, and the corresponding methods report unsupported.
type OIDCClient struct {
	provider *oidc.Provider
	oauth    oauth2.Config
}

// NewOIDCClient discovers the provider at issuerURL and prepares a
// password-grant configuration for it.
func NewOIDCClient(ctx context.Context, issuerURL, clientID, clientSecret string, scopes []string) (*OIDCClient, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, errors.Wrap(err, "[NewOIDCClient] provider discovery")
	}

	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email", "offline_access"}
	}

	return &OIDCClient{
		provider: provider,
		oauth: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     provider.Endpoint(),
			Scopes:       scopes,
		},
	}, nil
}

func (c *OIDCClient) Register(ctx context.Context, details RegistrationDetails) (*sessions.Profile, error) {
	return nil, errors.Wrap(RegistrationFailedErr, "[OIDCClient.Register] provider does not support direct registration")
}

func (c *OIDCClient) Login(ctx context.Context, strategy Strategy, creds Credentials) (*sessions.Session, error) {
	if strategy != StrategyUserPass {
		return nil, errors.Wrapf(AuthenticationFailedErr, "[OIDCClient.Login] unsupported strategy %q", strategy)
	}

	token, err := c.oauth.PasswordCredentialsToken(ctx, creds.Username, creds.Password)
	if err != nil {
		return nil, errors.Wrapf(AuthenticationFailedErr, "[OIDCClient.Login] password grant: %v", err)
	}

	if idToken, ok := token.Extra("id_token").(string); ok {
		if claims, err := Claims(idToken); err == nil {
			log.Debug().Str("sub", claims.Subject).Msg("oidc login")
		}
	}

	return &sessions.Session{
		IDToken:      token.AccessToken,
		RefreshToken: token.RefreshToken,
	}, nil
}

func (c *OIDCClient) FetchProfile(ctx context.Context, idToken string) (*sessions.Profile, error) {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: idToken, TokenType: "Bearer"})
	userInfo, err := c.provider.UserInfo(ctx, source)
	if err != nil {
		return nil, errors.Wrapf(AuthenticationFailedErr, "[OIDCClient.FetchProfile] userinfo: %v", err)
	}

	var extra struct {
		PreferredUsername string `json:"preferred_username"`
		GivenName         string `json:"given_name"`
		FamilyName        string `json:"family_name"`
	}
	if err := userInfo.Claims(&extra); err != nil {
		return nil, errors.Wrap(err, "[OIDCClient.FetchProfile] decoding claims")
	}

	return &sessions.Profile{
		UserID:     userInfo.Subject,
		Username:   extra.PreferredUsername,
		Email:      userInfo.Email,
		GivenName:  extra.GivenName,
		FamilyName: extra.FamilyName,
	}, nil
}

func (c *OIDCClient) Refresh(ctx context.Context, refreshToken string) (*sessions.Session, error) {
	token, err := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, errors.Wrapf(RefreshFailedErr, "[OIDCClient.Refresh] token endpoint: %v", err)
	}

	// Providers that do not rotate refresh tokens return an empty one.
	rotated := token.RefreshToken
	if rotated == "" {
		rotated = refreshToken
	}

	return &sessions.Session{
		IDToken:      token.AccessToken,
		RefreshToken: rotated,
	}, nil
}

func (c *OIDCClient) DeleteCurrentUser(ctx context.Context, idToken string) error {
	return errors.New("[OIDCClient.DeleteCurrentUser] provider does not support account deletion")
}
