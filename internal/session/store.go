package session

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Store is the persistence abstraction for session state.
// The Repository uses Store for all reads and writes and serializes access to
// it, so implementations need no locking of their own.
type Store interface {
	GetSession(id SessionID) (*SessionState, bool)
	SetSession(s *SessionState)
	ListSessions() []*SessionState
}

// InMemoryStore is an unbounded in-memory implementation of Store.
type InMemoryStore struct {
	sessions map[SessionID]*SessionState
}

// NewInMemoryStore returns a new empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[SessionID]*SessionState),
	}
}

// GetSession implements Store.GetSession.
func (s *InMemoryStore) GetSession(id SessionID) (*SessionState, bool) {
	st, ok := s.sessions[id]
	return st, ok
}

// SetSession implements Store.SetSession.
func (s *InMemoryStore) SetSession(st *SessionState) {
	s.sessions[st.ID] = st
}

// ListSessions implements Store.ListSessions.
func (s *InMemoryStore) ListSessions() []*SessionState {
	out := make([]*SessionState, 0, len(s.sessions))
	for _, st := range s.sessions {
		out = append(out, st)
	}
	return out
}

// LRUStore keeps at most a fixed number of sessions, evicting the least
// recently used one when full. Players that disappear without ending their
// session are eventually dropped this way.
type LRUStore struct {
	cache *lru.Cache[SessionID, *SessionState]
}

// NewLRUStore returns a store holding up to size sessions.
func NewLRUStore(size int) (*LRUStore, error) {
	cache, err := lru.New[SessionID, *SessionState](size)
	if err != nil {
		return nil, err
	}
	return &LRUStore{cache: cache}, nil
}

// GetSession implements Store.GetSession and marks the session as recently used.
func (s *LRUStore) GetSession(id SessionID) (*SessionState, bool) {
	return s.cache.Get(id)
}

// SetSession implements Store.SetSession.
func (s *LRUStore) SetSession(st *SessionState) {
	s.cache.Add(st.ID, st)
}

// ListSessions implements Store.ListSessions, least recently used first.
// Listing does not change recency.
func (s *LRUStore) ListSessions() []*SessionState {
	return s.cache.Values()
}
