package cms

import (
	"time"

	"github.com/google/uuid"
)

// SessionStore maps opaque tokens to server-side session records with a
// fixed time-to-live. Records expire at an absolute deadline; reads do
// not extend the lifetime.
type SessionStore struct {
	store *Store
	ttl   time.Duration
	stop  chan struct{}
}

// NewSessionStore creates a SessionStore persisting into the given
// Store with the given TTL, and starts a background sweep of expired
// rows.
func NewSessionStore(store *Store, ttl time.Duration) *SessionStore {
	ss := &SessionStore{store: store, ttl: ttl, stop: make(chan struct{})}
	go ss.sweep()
	return ss
}

// Close stops the background sweep.
func (ss *SessionStore) Close() {
	close(ss.stop)
}

func (ss *SessionStore) sweep() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ss.store.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, formatTime(time.Now()))
		case <-ss.stop:
			return
		}
	}
}

// Create establishes a new session for the given identity and returns
// its record, including the freshly minted token.
func (ss *SessionStore) Create(userID, username string) (Session, error) {
	sess := Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		Username:  username,
		ExpiresAt: time.Now().UTC().Add(ss.ttl),
	}
	_, err := ss.store.db.Exec(`INSERT INTO sessions (token, user_id, username, expires_at) VALUES (?, ?, ?, ?)`,
		sess.Token, sess.UserID, sess.Username, formatTime(sess.ExpiresAt))
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Get resolves a token to a live session. Expired rows are removed on
// the way out and reported as ErrNotFound.
func (ss *SessionStore) Get(token string) (Session, error) {
	var sess Session
	var expires string
	err := ss.store.db.QueryRow(`SELECT token, user_id, username, expires_at FROM sessions WHERE token = ?`, token).
		Scan(&sess.Token, &sess.UserID, &sess.Username, &expires)
	if err != nil {
		return Session{}, mapErr(err)
	}
	sess.ExpiresAt = parseTime(expires)
	if !sess.ExpiresAt.After(time.Now()) {
		ss.store.db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
		return Session{}, ErrNotFound
	}
	return sess, nil
}

// Delete destroys a session. Deleting an absent token is not an error,
// so logout is idempotent.
func (ss *SessionStore) Delete(token string) error {
	_, err := ss.store.db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	return err
}
