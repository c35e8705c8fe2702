package identity

import "errors"

var (
	AuthenticationFailedErr = errors.New("authentication failed")
	RefreshFailedErr        = errors.New("token refresh failed")
	RegistrationFailedErr   = errors.New("registration failed")
)
