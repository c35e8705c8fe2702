package repofakes

import (
	"sync"

	"github.com/jrsteele09/go-auth-client/sessions"
)

var _ sessions.CredentialRepo = (*FakeCredentialRepo)(nil)

// FakeCredentialRepo is an in-memory CredentialRepo for tests. It keeps
// per-operation counters so tests can assert how often the durable store
// was touched.
type FakeCredentialRepo struct {
	lock     sync.RWMutex
	records  map[string]sessions.Session
	saves    int
	clears   int
	loadErr  error
	saveErr  error
	clearErr error
}

func NewFakeCredentialRepo() *FakeCredentialRepo {
	return &FakeCredentialRepo{
		records: make(map[string]sessions.Session),
	}
}

func (r *FakeCredentialRepo) Load(clientIdentity string) (*sessions.Session, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.loadErr != nil {
		return nil, r.loadErr
	}
	session, ok := r.records[clientIdentity]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (r *FakeCredentialRepo) Save(clientIdentity string, session *sessions.Session) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.saveErr != nil {
		return r.saveErr
	}
	r.records[clientIdentity] = *session
	r.saves++
	return nil
}

func (r *FakeCredentialRepo) Clear(clientIdentity string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.clearErr != nil {
		return r.clearErr
	}
	delete(r.records, clientIdentity)
	r.clears++
	return nil
}

// SetErrors scripts failures for the next operations. Pass nil to clear.
func (r *FakeCredentialRepo) SetErrors(loadErr, saveErr, clearErr error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.loadErr = loadErr
	r.saveErr = saveErr
	r.clearErr = clearErr
}

func (r *FakeCredentialRepo) Saves() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.saves
}

func (r *FakeCredentialRepo) Clears() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.clears
}
