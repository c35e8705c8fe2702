package sessions

// CredentialRepo persists the last-known session for a client identity so a
// login survives process restarts. Implementations must be safe for
// concurrent use.
type CredentialRepo interface {
	// Load returns the persisted session for the client identity, or
	// (nil, nil) when nothing has been saved.
	Load(clientIdentity string) (*Session, error)
	// Save durably stores the session, replacing any previous one.
	Save(clientIdentity string, session *Session) error
	// Clear removes the persisted session. Clearing an absent entry is not
	// an error.
	Clear(clientIdentity string) error
}
