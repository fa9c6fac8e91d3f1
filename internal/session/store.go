package session

import (
	"slices"
	"sync"
)

// Store is the ordered session list plus the current-selection pointer.
// Order is the backend's (most recent first) with locally created sessions
// prepended. An empty current id means nothing is selected.
type Store struct {
	mu       sync.RWMutex
	sessions []Session
	current  string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Replace swaps the whole list for a freshly fetched one.
func (s *Store) Replace(sessions []Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = slices.Clone(sessions)
}

// Prepend inserts a newly created session at the head of the list. An entry
// with the same id is dropped so ids stay unique.
func (s *Store) Prepend(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rest := slices.DeleteFunc(slices.Clone(s.sessions), func(x Session) bool { return x.ID == sess.ID })
	s.sessions = append([]Session{sess}, rest...)
}

// List returns a copy of the sessions in display order.
func (s *Store) List() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.sessions)
}

// Get returns the session with the given id.
func (s *Store) Get(id string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		if sess.ID == id {
			return sess, nil
		}
	}
	return Session{}, ErrNotFound
}

// Current returns the selected session id, or "" when nothing is selected.
func (s *Store) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetCurrent moves the selection pointer. The id need not be in the list:
// a session may be selected before the list that contains it is fetched.
func (s *Store) SetCurrent(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = id
}

// Len returns the number of sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
