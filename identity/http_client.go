package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-client/sessions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const defaultHTTPTimeout = 30 * time.Second

var _ Client = (*HTTPClient)(nil)

// HTTPClient talks JSON to an identity service exposing the endpoints
// /register, /login, /refresh, /userinfo and /user.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// HTTPClientOption modifies the HTTPClient.
type HTTPClientOption func(*HTTPClient)

// WithHTTPClient overrides the underlying http.Client (primarily for tests
// and custom transports).
func WithHTTPClient(httpClient *http.Client) HTTPClientOption {
	return func(c *HTTPClient) {
		c.httpClient = httpClient
	}
}

// NewHTTPClient creates a client for the identity service at baseURL.
func NewHTTPClient(baseURL string, options ...HTTPClientOption) (*HTTPClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("[NewHTTPClient] baseURL is required")
	}

	client := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range options {
		opt(client)
	}
	return client, nil
}

// tokenResponse is the wire shape of /login and /refresh responses.
type tokenResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
}

// profileResponse mirrors the standard OIDC UserInfo claim names.
type profileResponse struct {
	Sub               string `json:"sub"`
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	GivenName         string `json:"given_name"`
	FamilyName        string `json:"family_name"`
}

func (p profileResponse) profile() *sessions.Profile {
	return &sessions.Profile{
		UserID:     p.Sub,
		Username:   p.PreferredUsername,
		Email:      p.Email,
		GivenName:  p.GivenName,
		FamilyName: p.FamilyName,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *HTTPClient) Register(ctx context.Context, details RegistrationDetails) (*sessions.Profile, error) {
	var resp profileResponse
	status, err := c.doJSON(ctx, http.MethodPost, "/register", details, "", &resp)
	if err != nil {
		return nil, errors.Wrap(err, "[HTTPClient.Register]")
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return nil, errors.Wrapf(RegistrationFailedErr, "[HTTPClient.Register] status %d", status)
	}
	return resp.profile(), nil
}

func (c *HTTPClient) Login(ctx context.Context, strategy Strategy, creds Credentials) (*sessions.Session, error) {
	request := struct {
		Strategy Strategy `json:"strategy"`
		Credentials
	}{Strategy: strategy, Credentials: creds}

	var resp tokenResponse
	status, err := c.doJSON(ctx, http.MethodPost, "/login", request, "", &resp)
	if err != nil {
		return nil, errors.Wrap(err, "[HTTPClient.Login]")
	}
	if status != http.StatusOK {
		return nil, errors.Wrapf(AuthenticationFailedErr, "[HTTPClient.Login] status %d", status)
	}

	if claims, err := Claims(resp.IDToken); err == nil {
		log.Debug().Str("sub", claims.Subject).Time("token_expiry", claims.ExpiresAt).Msg("identity login")
	}
	return &sessions.Session{IDToken: resp.IDToken, RefreshToken: resp.RefreshToken}, nil
}

func (c *HTTPClient) FetchProfile(ctx context.Context, idToken string) (*sessions.Profile, error) {
	var resp profileResponse
	status, err := c.doJSON(ctx, http.MethodGet, "/userinfo", nil, idToken, &resp)
	if err != nil {
		return nil, errors.Wrap(err, "[HTTPClient.FetchProfile]")
	}
	if status != http.StatusOK {
		return nil, errors.Wrapf(AuthenticationFailedErr, "[HTTPClient.FetchProfile] status %d", status)
	}
	return resp.profile(), nil
}

func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*sessions.Session, error) {
	request := struct {
		RefreshToken string `json:"refresh_token"`
	}{RefreshToken: refreshToken}

	var resp tokenResponse
	status, err := c.doJSON(ctx, http.MethodPost, "/refresh", request, "", &resp)
	if err != nil {
		return nil, errors.Wrap(err, "[HTTPClient.Refresh]")
	}
	if status != http.StatusOK {
		return nil, errors.Wrapf(RefreshFailedErr, "[HTTPClient.Refresh] status %d", status)
	}
	return &sessions.Session{IDToken: resp.IDToken, RefreshToken: resp.RefreshToken}, nil
}

func (c *HTTPClient) DeleteCurrentUser(ctx context.Context, idToken string) error {
	status, err := c.doJSON(ctx, http.MethodDelete, "/user", nil, idToken, nil)
	if err != nil {
		return errors.Wrap(err, "[HTTPClient.DeleteCurrentUser]")
	}
	if status != http.StatusNoContent && status != http.StatusOK {
		return errors.Wrapf(AuthenticationFailedErr, "[HTTPClient.DeleteCurrentUser] status %d", status)
	}
	return nil
}

// doJSON performs a request and decodes a 2xx response body into out (when
// non-nil). Non-2xx statuses are returned to the caller for taxonomy
// mapping; the service's error message, if any, is logged.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, bearer string, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusMultipleChoices {
		var serviceErr errorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&serviceErr); decodeErr == nil && serviceErr.Error != "" {
			log.Debug().Int("status", resp.StatusCode).Str("path", path).Str("error", serviceErr.Error).Msg("identity service error")
		}
		return resp.StatusCode, nil
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
