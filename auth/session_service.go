// Package auth coordinates login, logout and current-user access against a
// remote identity provider, with an in-memory session cache, durable
// credential mirroring and single-flight refresh: any number of concurrent
// current-user calls share one network round-trip.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-auth-client/identity"
	"github.com/jrsteele09/go-auth-client/sessions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DefaultRefreshThreshold is the session age after which GetCurrentUser
// refreshes the token pair before returning it.
const DefaultRefreshThreshold = time.Hour

// currentUserKey is the singleflight key; one coordinator has at most one
// refresh/hydrate in flight.
const currentUserKey = "current-user"

// Repos holds the collaborator dependencies of the SessionService.
type Repos struct {
	Identity    identity.Client         // Network calls to the identity provider
	Credentials sessions.CredentialRepo // Durable persistence of the last-known session
}

// SessionService is the per-process session coordinator. It must be
// Initialized with a client identity before any other operation. Independent
// instances share no state unless wired to the same CredentialRepo.
type SessionService struct {
	repos            Repos
	refreshThreshold time.Duration
	nowTime          func() time.Time
	log              zerolog.Logger

	lock           sync.RWMutex
	initialized    bool
	clientIdentity string
	cache          *sessions.Cache
	restored       *sessions.Session // persisted session awaiting profile hydration

	flight singleflight.Group
}

// SessionServiceOption modifies the SessionService instance.
type SessionServiceOption func(*SessionService)

// WithNowTime sets the now time function (primarily for testing).
func WithNowTime(nowFunc func() time.Time) SessionServiceOption {
	return func(s *SessionService) {
		s.nowTime = nowFunc
	}
}

// WithRefreshThreshold overrides the session age at which GetCurrentUser
// refreshes instead of returning the cached session.
func WithRefreshThreshold(threshold time.Duration) SessionServiceOption {
	return func(s *SessionService) {
		s.refreshThreshold = threshold
	}
}

// WithLogger sets the service logger. The default discards everything.
func WithLogger(logger zerolog.Logger) SessionServiceOption {
	return func(s *SessionService) {
		s.log = logger
	}
}

// NewSessionService initializes a new SessionService with required
// dependencies. Optional configuration can be provided via options.
func NewSessionService(repos Repos, options ...SessionServiceOption) (*SessionService, error) {
	if repos.Identity == nil {
		return nil, errors.New("[NewSessionService] Identity client is required")
	}
	if repos.Credentials == nil {
		return nil, errors.New("[NewSessionService] Credentials repo is required")
	}

	service := &SessionService{
		repos:            repos,
		refreshThreshold: DefaultRefreshThreshold,
		nowTime:          time.Now,
		log:              zerolog.Nop(),
	}
	for _, opt := range options {
		opt(service)
	}
	return service, nil
}

// Initialize binds the client identity and loads any persisted session.
// It must be called before any other operation. Calling it again with the
// same identity is a no-op; a different identity is an error.
func (s *SessionService) Initialize(clientIdentity string) error {
	if clientIdentity == "" {
		return errors.New("[Initialize] clientIdentity is required")
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.initialized {
		if s.clientIdentity == clientIdentity {
			return nil
		}
		return errors.Errorf("[Initialize] already initialized for %q", s.clientIdentity)
	}

	s.clientIdentity = clientIdentity
	s.cache = sessions.NewCache(s.repos.Credentials, clientIdentity)

	// Best effort: a corrupt or unreadable store means starting logged out,
	// not failing initialization.
	restored, err := s.repos.Credentials.Load(clientIdentity)
	if err != nil {
		s.log.Warn().Err(err).Msg("loading persisted session")
	} else if restored != nil {
		s.restored = restored
		s.log.Debug().Time("issued_at", restored.IssuedAt).Msg("restored persisted session")
	}

	s.initialized = true
	return nil
}

// Register creates an account with the provider and logs it straight in.
func (s *SessionService) Register(ctx context.Context, details identity.RegistrationDetails) (*sessions.User, error) {
	if err := s.ensureInitialized(); err != nil {
		return nil, err
	}

	if _, err := s.repos.Identity.Register(ctx, details); err != nil {
		return nil, errors.Wrap(err, "[Register] provider registration")
	}

	return s.Login(ctx, identity.StrategyUserPass, identity.Credentials{
		Username: details.Username,
		Password: details.Password,
	})
}

// Login authenticates, hydrates the profile and caches the resulting user.
// On any failure the cache is left unchanged.
func (s *SessionService) Login(ctx context.Context, strategy identity.Strategy, creds identity.Credentials) (*sessions.User, error) {
	if err := s.ensureInitialized(); err != nil {
		return nil, err
	}

	session, err := s.repos.Identity.Login(ctx, strategy, creds)
	if err != nil {
		return nil, errors.Wrap(err, "[Login] identity login")
	}

	profile, err := s.repos.Identity.FetchProfile(ctx, session.IDToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Login] fetching profile")
	}

	user := &sessions.User{
		Session: s.acceptSession(session),
		Profile: *profile,
	}
	if err := s.cache.Set(user); err != nil {
		return nil, errors.Wrap(err, "[Login] caching user")
	}
	s.setRestored(nil)

	s.log.Debug().Str("username", user.Profile.Username).Msg("logged in")
	return user, nil
}

// Logout clears the cached user and the persisted credentials. Logging out
// while logged out succeeds.
func (s *SessionService) Logout() error {
	if err := s.ensureInitialized(); err != nil {
		return err
	}

	s.setRestored(nil)
	if err := s.cache.Clear(); err != nil {
		return errors.Wrap(err, "[Logout] clearing session")
	}
	return nil
}

// EnsureLoggedIn succeeds when a session is available after an attempt to
// resolve the current user, and fails with NotLoggedInErr otherwise.
func (s *SessionService) EnsureLoggedIn(ctx context.Context) error {
	if err := s.ensureInitialized(); err != nil {
		return err
	}

	if _, err := s.GetCurrentUser(ctx); err != nil {
		s.log.Debug().Err(err).Msg("ensure logged in: current user unavailable")
	}
	if s.cache.Get() == nil {
		return NotLoggedInErr
	}
	return nil
}

// GetCurrentUser returns the current user, refreshing the session when it
// has aged past the refresh threshold.
//
// The fast path (cached, fresh session) performs no network calls. The slow
// path runs under a single-flight guard: concurrent callers attach to the
// one in-flight refresh and all receive the identical user or the identical
// error. The cache is updated inside the flight, before the guard releases,
// so no caller can observe a cleared guard with a stale cache.
func (s *SessionService) GetCurrentUser(ctx context.Context) (*sessions.User, error) {
	if err := s.ensureInitialized(); err != nil {
		return nil, err
	}

	user := s.cache.Get()
	if user == nil && s.getRestored() == nil {
		return nil, NotLoggedInErr
	}
	if user != nil && !user.Session.Expired(s.nowTime(), s.refreshThreshold) {
		return user, nil
	}

	result, err, _ := s.flight.Do(currentUserKey, func() (interface{}, error) {
		return s.refreshCurrentUser(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.(*sessions.User), nil
}

// DeleteCurrentUser removes the account behind the current session and logs
// out. The remote deletion is best effort: a failure is logged and local
// state is still torn down.
func (s *SessionService) DeleteCurrentUser(ctx context.Context) error {
	user, err := s.GetCurrentUser(ctx)
	if err != nil {
		return err
	}

	if err := s.repos.Identity.DeleteCurrentUser(ctx, user.Session.IDToken); err != nil {
		s.log.Warn().Err(err).Msg("remote account deletion failed")
	}
	return s.Logout()
}

// refreshCurrentUser is the slow path, always executed inside the
// single-flight guard.
func (s *SessionService) refreshCurrentUser(ctx context.Context) (*sessions.User, error) {
	// A flight that completed between our cache read and joining the group
	// may already have produced a fresh session.
	if user := s.cache.Get(); user != nil {
		if !user.Session.Expired(s.nowTime(), s.refreshThreshold) {
			return user, nil
		}
		return s.refreshCachedUser(ctx, user)
	}
	return s.hydrateRestoredSession(ctx)
}

// refreshCachedUser exchanges the cached refresh token for a new pair,
// reusing the cached profile. A failed refresh leaves the cache untouched so
// a transient fault does not destroy an otherwise valid session.
func (s *SessionService) refreshCachedUser(ctx context.Context, user *sessions.User) (*sessions.User, error) {
	session, err := s.repos.Identity.Refresh(ctx, user.Session.RefreshToken)
	if err != nil {
		return nil, errors.Wrap(err, "[GetCurrentUser] refreshing session")
	}

	next := &sessions.User{
		Session: s.acceptSession(session),
		Profile: user.Profile,
	}
	if err := s.cache.Set(next); err != nil {
		return nil, errors.Wrap(err, "[GetCurrentUser] caching refreshed user")
	}
	return next, nil
}

// hydrateRestoredSession turns a persisted session (loaded at Initialize,
// no profile yet) into a full user. The restored session is only consumed on
// success; failures keep it for the next attempt.
func (s *SessionService) hydrateRestoredSession(ctx context.Context) (*sessions.User, error) {
	session := s.getRestored()
	if session == nil {
		return nil, NotLoggedInErr
	}

	current := *session
	if current.Expired(s.nowTime(), s.refreshThreshold) {
		refreshed, err := s.repos.Identity.Refresh(ctx, current.RefreshToken)
		if err != nil {
			return nil, errors.Wrap(err, "[GetCurrentUser] refreshing restored session")
		}
		current = s.acceptSession(refreshed)
	}

	profile, err := s.repos.Identity.FetchProfile(ctx, current.IDToken)
	if err != nil {
		return nil, errors.Wrap(err, "[GetCurrentUser] hydrating restored session")
	}

	user := &sessions.User{Session: current, Profile: *profile}
	if err := s.cache.Set(user); err != nil {
		return nil, errors.Wrap(err, "[GetCurrentUser] caching hydrated user")
	}
	s.setRestored(nil)
	return user, nil
}

// acceptSession stamps a provider-issued token pair with the local issue
// time and the bound client identity.
func (s *SessionService) acceptSession(session *sessions.Session) sessions.Session {
	return sessions.Session{
		IDToken:        session.IDToken,
		RefreshToken:   session.RefreshToken,
		IssuedAt:       s.nowTime(),
		ClientIdentity: s.clientIdentityValue(),
	}
}

func (s *SessionService) ensureInitialized() error {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if !s.initialized {
		return NotInitializedErr
	}
	return nil
}

func (s *SessionService) clientIdentityValue() string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.clientIdentity
}

func (s *SessionService) getRestored() *sessions.Session {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.restored
}

func (s *SessionService) setRestored(session *sessions.Session) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.restored = session
}
