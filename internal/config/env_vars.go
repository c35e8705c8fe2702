package config

import (
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	appNameVar          = "APP_NAME"
	folderEnvVar        = "FOLDER"
	identityURLVar      = "IDENTITY_SERVICE_URL"
	clientIdentityVar   = "CLIENT_IDENTITY"
	refreshThresholdVar = "REFRESH_THRESHOLD_SECONDS"
)

const defaultRefreshThresholdSeconds = 3600

type EnvVars struct{}

var _ Config = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Go Auth Client")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func (EnvVars) GetIdentityServiceURL() string {
	return GetEnv(identityURLVar, "http://localhost:8080")
}

// GetClientIdentity returns the configured client identity, generating a
// fresh one when unset. Callers that need a stable identity across restarts
// must set the variable.
func (EnvVars) GetClientIdentity() string {
	return GetEnv(clientIdentityVar, uuid.New().String())
}

func (EnvVars) GetRefreshThreshold() time.Duration {
	seconds, err := strconv.Atoi(GetEnv(refreshThresholdVar, ""))
	if err != nil || seconds < 0 {
		seconds = defaultRefreshThresholdSeconds
	}
	return time.Duration(seconds) * time.Second
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
