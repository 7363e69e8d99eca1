package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrSessionNotFound is returned for unknown or expired session ids
var ErrSessionNotFound = errors.New("session not found")

type storeEntry struct {
	session  *Session
	lastUsed time.Time
}

// SessionStore holds the live editing sessions keyed by ULID
type SessionStore struct {
	mu       sync.Mutex
	sessions map[ulid.ULID]*storeEntry
	options  SessionOptions
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates a store whose sessions expire after ttl without use
func NewSessionStore(options SessionOptions, ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[ulid.ULID]*storeEntry),
		options:  options,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create adds a new, closed session
func (store *SessionStore) Create() *Session {
	session := NewSession(ulid.Make(), store.options)

	store.mu.Lock()
	defer store.mu.Unlock()
	store.sessions[session.ID] = &storeEntry{session: session, lastUsed: store.now()}
	Logger.Debug("Session created", "session", session.ID, "live", len(store.sessions))
	return session
}

// Get looks up a session by its string id and marks it as used
func (store *SessionStore) Get(id string) (*Session, error) {
	key, err := ulid.ParseStrict(id)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	entry, ok := store.sessions[key]
	if !ok {
		return nil, ErrSessionNotFound
	}
	entry.lastUsed = store.now()
	return entry.session, nil
}

// Remove closes and forgets a session
func (store *SessionStore) Remove(id string) error {
	key, err := ulid.ParseStrict(id)
	if err != nil {
		return ErrSessionNotFound
	}

	store.mu.Lock()
	entry, ok := store.sessions[key]
	delete(store.sessions, key)
	store.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	entry.session.Close()
	return nil
}

// Expire closes every session idle for longer than the store's ttl and returns how many went
func (store *SessionStore) Expire() int {
	cutoff := store.now().Add(-store.ttl)

	store.mu.Lock()
	var expired []*Session
	for key, entry := range store.sessions {
		if entry.lastUsed.Before(cutoff) {
			expired = append(expired, entry.session)
			delete(store.sessions, key)
		}
	}
	store.mu.Unlock()

	for _, session := range expired {
		Logger.Info("Expiring idle session", "session", session.ID)
		session.Close()
	}
	return len(expired)
}

// Len returns the number of live sessions
func (store *SessionStore) Len() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return len(store.sessions)
}

// CloseAll closes every session, used on shutdown
func (store *SessionStore) CloseAll() {
	store.mu.Lock()
	sessions := store.sessions
	store.sessions = make(map[ulid.ULID]*storeEntry)
	store.mu.Unlock()

	for _, entry := range sessions {
		entry.session.Close()
	}
}
