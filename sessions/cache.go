package sessions

import (
	"sync"

	"github.com/pkg/errors"
)

// Cache is the in-memory holder of the current user, mirrored to a
// CredentialRepo so the session survives restarts. The durable store is
// written on Set and Clear but never read here — loading happens once, at
// coordinator initialisation.
type Cache struct {
	repo           CredentialRepo
	clientIdentity string

	lock sync.RWMutex
	user *User
}

// NewCache creates a cache bound to one client identity.
func NewCache(repo CredentialRepo, clientIdentity string) *Cache {
	return &Cache{
		repo:           repo,
		clientIdentity: clientIdentity,
	}
}

// Set stores the user in memory and persists its session. Overwrites any
// prior user.
func (c *Cache) Set(user *User) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.user = user
	if err := c.repo.Save(c.clientIdentity, &user.Session); err != nil {
		return errors.Wrap(err, "[Cache.Set] persisting session")
	}
	return nil
}

// Get returns the cached user, or nil when nothing is cached. No I/O.
func (c *Cache) Get() *User {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.user
}

// Clear drops the in-memory user and wipes the persisted session.
func (c *Cache) Clear() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.user = nil
	if err := c.repo.Clear(c.clientIdentity); err != nil {
		return errors.Wrap(err, "[Cache.Clear] clearing persisted session")
	}
	return nil
}
