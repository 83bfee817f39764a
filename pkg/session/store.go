package session

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// Store owns every live session, keyed by sender identity.
//
// Concurrent events for the same sender are serialized through a per-sender
// mutex so platform retries cannot interleave cart or state updates. Events
// for different senders proceed in parallel. Sessions are created lazily on
// first contact and never expire.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	mu      sync.Mutex
	session *Session
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// WithLock runs fn with exclusive access to the sender's session, creating it
// in the initial state if the sender has not been seen before. Mutations made
// by fn are committed by the time WithLock returns, whether or not fn errors.
func (st *Store) WithLock(senderID string, fn func(*Session) error) error {
	senderID = strings.TrimSpace(senderID)
	if senderID == "" {
		return errors.New("sender id is required")
	}
	if fn == nil {
		return errors.New("fn is required")
	}

	e := st.entryFor(senderID)

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.session)
}

// Get returns a copy of the sender's session, creating it if absent. The
// copy is a read snapshot; mutations must go through WithLock.
func (st *Store) Get(senderID string) Session {
	e := st.entryFor(strings.TrimSpace(senderID))

	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := *e.session
	snapshot.Cart = make([]CartItem, len(e.session.Cart))
	copy(snapshot.Cart, e.session.Cart)
	return snapshot
}

// Len reports how many senders currently hold a session.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.entries)
}

// entryFor returns the sender's entry, lazily initializing it. Creation is
// double-checked so two first-contact events race to a single session.
func (st *Store) entryFor(senderID string) *entry {
	st.mu.RLock()
	e, ok := st.entries[senderID]
	st.mu.RUnlock()
	if ok {
		return e
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	e, ok = st.entries[senderID]
	if ok {
		return e
	}

	e = &entry{session: &Session{
		SenderID:            senderID,
		State:               StateWelcome,
		LastInteractionTime: time.Now().UTC(),
	}}
	st.entries[senderID] = e
	return e
}
