// Package clientfakes provides an in-process identity provider double: real
// bcrypt credential checks and real (HS256) id tokens, with call counters
// and scriptable failures for exercising the coordinator.
package clientfakes

import (
	"context"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-client/identity"
	"github.com/jrsteele09/go-auth-client/sessions"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const idTokenLifetime = time.Hour

var _ identity.Client = (*FakeIdentityClient)(nil)

type registeredUser struct {
	profile      sessions.Profile
	passwordHash string
}

// FakeIdentityClient is a thread-safe in-memory identity provider.
type FakeIdentityClient struct {
	lock          sync.Mutex
	signingKey    []byte
	users         map[string]*registeredUser // keyed by username
	refreshTokens map[string]string          // refresh token -> username

	loginCalls        int
	fetchProfileCalls int
	refreshCalls      int

	refreshErr     error
	refreshLatency time.Duration
}

func NewFakeIdentityClient() *FakeIdentityClient {
	return &FakeIdentityClient{
		signingKey:    []byte(uuid.New().String()),
		users:         make(map[string]*registeredUser),
		refreshTokens: make(map[string]string),
	}
}

func (f *FakeIdentityClient) Register(_ context.Context, details identity.RegistrationDetails) (*sessions.Profile, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if details.Username == "" || details.Password == "" {
		return nil, errors.Wrap(identity.RegistrationFailedErr, "[FakeIdentityClient.Register] username and password are required")
	}
	if _, exists := f.users[details.Username]; exists {
		return nil, errors.Wrapf(identity.RegistrationFailedErr, "[FakeIdentityClient.Register] username %q taken", details.Username)
	}

	// MinCost keeps test suites fast; the check path is identical.
	hash, err := bcrypt.GenerateFromPassword([]byte(details.Password), bcrypt.MinCost)
	if err != nil {
		return nil, errors.Wrap(err, "[FakeIdentityClient.Register] hashing password")
	}

	user := &registeredUser{
		profile: sessions.Profile{
			UserID:     uuid.New().String(),
			Username:   details.Username,
			Email:      details.Email,
			GivenName:  details.GivenName,
			FamilyName: details.FamilyName,
		},
		passwordHash: string(hash),
	}
	f.users[details.Username] = user

	profile := user.profile
	return &profile, nil
}

func (f *FakeIdentityClient) Login(_ context.Context, strategy identity.Strategy, creds identity.Credentials) (*sessions.Session, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.loginCalls++

	if strategy != identity.StrategyUserPass {
		return nil, errors.Wrapf(identity.AuthenticationFailedErr, "[FakeIdentityClient.Login] unsupported strategy %q", strategy)
	}
	user, ok := f.users[creds.Username]
	if !ok {
		return nil, errors.Wrap(identity.AuthenticationFailedErr, "[FakeIdentityClient.Login] unknown user")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.passwordHash), []byte(creds.Password)) != nil {
		return nil, errors.Wrap(identity.AuthenticationFailedErr, "[FakeIdentityClient.Login] wrong password")
	}

	return f.mintSessionLocked(user)
}

func (f *FakeIdentityClient) FetchProfile(_ context.Context, idToken string) (*sessions.Profile, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.fetchProfileCalls++

	claims, err := identity.Claims(idToken)
	if err != nil {
		return nil, errors.Wrap(identity.AuthenticationFailedErr, "[FakeIdentityClient.FetchProfile] unparsable token")
	}
	user, ok := f.users[claims.Username]
	if !ok {
		return nil, errors.Wrap(identity.AuthenticationFailedErr, "[FakeIdentityClient.FetchProfile] unknown subject")
	}

	profile := user.profile
	return &profile, nil
}

func (f *FakeIdentityClient) Refresh(_ context.Context, refreshToken string) (*sessions.Session, error) {
	f.lock.Lock()
	f.refreshCalls++
	latency := f.refreshLatency
	refreshErr := f.refreshErr
	f.lock.Unlock()

	if latency > 0 {
		time.Sleep(latency)
	}
	if refreshErr != nil {
		return nil, refreshErr
	}

	f.lock.Lock()
	defer f.lock.Unlock()

	username, ok := f.refreshTokens[refreshToken]
	if !ok {
		return nil, errors.Wrap(identity.RefreshFailedErr, "[FakeIdentityClient.Refresh] unknown refresh token")
	}
	user, ok := f.users[username]
	if !ok {
		return nil, errors.Wrap(identity.RefreshFailedErr, "[FakeIdentityClient.Refresh] account gone")
	}

	// One refresh token per user: rotate on every refresh.
	delete(f.refreshTokens, refreshToken)
	return f.mintSessionLocked(user)
}

func (f *FakeIdentityClient) DeleteCurrentUser(_ context.Context, idToken string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	claims, err := identity.Claims(idToken)
	if err != nil {
		return errors.Wrap(identity.AuthenticationFailedErr, "[FakeIdentityClient.DeleteCurrentUser] unparsable token")
	}
	if _, ok := f.users[claims.Username]; !ok {
		return errors.Wrap(identity.AuthenticationFailedErr, "[FakeIdentityClient.DeleteCurrentUser] unknown subject")
	}
	delete(f.users, claims.Username)
	return nil
}

// mintSessionLocked issues a fresh HS256 id token and refresh token for the
// user. Callers must hold the lock.
func (f *FakeIdentityClient) mintSessionLocked(user *registeredUser) (*sessions.Session, error) {
	now := time.Now()
	claims := jwtlib.MapClaims{
		"iss":                "fake-identity",
		"sub":                user.profile.UserID,
		"preferred_username": user.profile.Username,
		"email":              user.profile.Email,
		"given_name":         user.profile.GivenName,
		"family_name":        user.profile.FamilyName,
		"iat":                now.Unix(),
		"exp":                now.Add(idTokenLifetime).Unix(),
		"jti":                uuid.New().String(),
	}
	idToken, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(f.signingKey)
	if err != nil {
		return nil, errors.Wrap(err, "[FakeIdentityClient] signing id token")
	}

	refreshToken := uuid.New().String()
	f.refreshTokens[refreshToken] = user.profile.Username

	return &sessions.Session{IDToken: idToken, RefreshToken: refreshToken}, nil
}

// SetRefreshError scripts Refresh to fail with err until cleared with nil.
func (f *FakeIdentityClient) SetRefreshError(err error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.refreshErr = err
}

// SetRefreshLatency makes every Refresh take at least d, so concurrent
// callers pile up behind one in-flight refresh.
func (f *FakeIdentityClient) SetRefreshLatency(d time.Duration) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.refreshLatency = d
}

func (f *FakeIdentityClient) LoginCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.loginCalls
}

func (f *FakeIdentityClient) FetchProfileCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.fetchProfileCalls
}

func (f *FakeIdentityClient) RefreshCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.refreshCalls
}
