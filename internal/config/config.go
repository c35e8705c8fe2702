package config

import "time"

// Config is everything the client library reads from its environment.
type Config interface {
	EnvConfig
	SessionConfig
}

type EnvConfig interface {
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
}

type SessionConfig interface {
	GetIdentityServiceURL() string
	GetClientIdentity() string
	GetRefreshThreshold() time.Duration
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	return mainConfig{}
}
