// Package boltrepo persists credentials in a local bbolt database — a
// single bucket keyed by client identity, one JSON-encoded session per key.
package boltrepo

import (
	"encoding/json"
	"time"

	"github.com/jrsteele09/go-auth-client/sessions"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var credentialsBucket = []byte("credentials")

var _ sessions.CredentialRepo = (*Repo)(nil)

// Repo is a bbolt-backed CredentialRepo.
type Repo struct {
	db *bolt.DB
}

// New opens (creating if necessary) the database at path and ensures the
// credentials bucket exists. The open timeout guards against a second
// process holding the file lock forever.
func New(path string) (*Repo, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "[boltrepo.New] opening database")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(credentialsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "[boltrepo.New] creating bucket")
	}

	return &Repo{db: db}, nil
}

// Close releases the underlying database file.
func (r *Repo) Close() error {
	return r.db.Close()
}

func (r *Repo) Load(clientIdentity string) (*sessions.Session, error) {
	var session *sessions.Session
	err := r.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(credentialsBucket).Get([]byte(clientIdentity))
		if data == nil {
			return nil
		}
		session = &sessions.Session{}
		return json.Unmarshal(data, session)
	})
	if err != nil {
		return nil, errors.Wrap(err, "[boltrepo.Load] reading session")
	}
	return session, nil
}

func (r *Repo) Save(clientIdentity string, session *sessions.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "[boltrepo.Save] encoding session")
	}
	err = r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(credentialsBucket).Put([]byte(clientIdentity), data)
	})
	return errors.Wrap(err, "[boltrepo.Save] writing session")
}

func (r *Repo) Clear(clientIdentity string) error {
	err := r.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(credentialsBucket).Delete([]byte(clientIdentity))
	})
	return errors.Wrap(err, "[boltrepo.Clear] deleting session")
}
