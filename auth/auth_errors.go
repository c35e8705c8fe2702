package auth

import "errors"

var (
	// NotInitializedErr is returned when an operation runs before Initialize.
	NotInitializedErr = errors.New("session service not initialized")
	// NotLoggedInErr is returned when there is no session and no way to
	// obtain one. The message is user-visible.
	NotLoggedInErr = errors.New("Not logged in")
)
