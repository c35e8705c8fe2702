package auth

import (
	"path/filepath"

	"github.com/jrsteele09/go-auth-client/identity"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/sessions/boltrepo"
	"github.com/pkg/errors"
)

const credentialsFileName = "credentials.db"

// NewFromConfig wires a ready-to-use SessionService from environment
// configuration: a bbolt credential store under the data folder and an HTTP
// identity client at the configured URL. The returned close function
// releases the store and must be called when the service is done.
func NewFromConfig(cfg config.Config, options ...SessionServiceOption) (*SessionService, func() error, error) {
	identityClient, err := identity.NewHTTPClient(cfg.GetIdentityServiceURL())
	if err != nil {
		return nil, nil, errors.Wrap(err, "[NewFromConfig] identity client")
	}

	credentials, err := boltrepo.New(filepath.Join(cfg.GetDataFolder(), credentialsFileName))
	if err != nil {
		return nil, nil, errors.Wrap(err, "[NewFromConfig] credential store")
	}

	options = append([]SessionServiceOption{WithRefreshThreshold(cfg.GetRefreshThreshold())}, options...)
	service, err := NewSessionService(Repos{
		Identity:    identityClient,
		Credentials: credentials,
	}, options...)
	if err != nil {
		_ = credentials.Close()
		return nil, nil, err
	}

	if err := service.Initialize(cfg.GetClientIdentity()); err != nil {
		_ = credentials.Close()
		return nil, nil, errors.Wrap(err, "[NewFromConfig] initialize")
	}

	return service, credentials.Close, nil
}
