package sessions

import (
	"time"
)

// Session holds the token pair issued by the identity provider together with
// the moment this process accepted it. IssuedAt is always stamped locally by
// the coordinator, never taken from the provider, so expiry checks work even
// when provider and client clocks disagree.
type Session struct {
	IDToken        string    `json:"id_token"`        // Opaque identity token presented on API calls
	RefreshToken   string    `json:"refresh_token"`   // Opaque token exchanged for a fresh pair
	IssuedAt       time.Time `json:"issued_at"`       // When the coordinator accepted this session
	ClientIdentity string    `json:"client_identity"` // Which client installation this session belongs to
}

// Expired reports whether the session is older than the refresh threshold.
func (s Session) Expired(now time.Time, threshold time.Duration) bool {
	return now.Sub(s.IssuedAt) >= threshold
}

// Profile carries the human-identity attributes reported by the provider.
type Profile struct {
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// User is the externally visible unit: a session combined with the profile
// it belongs to. Users are only ever handed out fully populated — a token
// pair without profile data stays internal until it has been hydrated.
type User struct {
	Session Session `json:"session"`
	Profile Profile `json:"profile"`
}
