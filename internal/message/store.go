package message

import (
	"slices"
	"sync"
)

// Store is the chronological message list of the current session.
type Store struct {
	mu       sync.RWMutex
	messages []Message
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Replace swaps the whole list for a freshly fetched one.
func (s *Store) Replace(messages []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = slices.Clone(messages)
}

// Append adds messages to the end of the list in order.
func (s *Store) Append(msgs ...Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msgs...)
}

// Remove deletes the message with the given id and reports whether it existed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.messages, func(m Message) bool { return m.ID == id })
	if i < 0 {
		return false
	}
	s.messages = slices.Delete(s.messages, i, i+1)
	return true
}

// Clear empties the store.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}

// List returns a copy of the messages.
func (s *Store) List() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.messages)
}

// Len returns the number of messages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Contains reports whether a message with the given id is present.
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.ContainsFunc(s.messages, func(m Message) bool { return m.ID == id })
}

// HasPending reports whether an optimistic message is present.
func (s *Store) HasPending() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.ContainsFunc(s.messages, func(m Message) bool { return m.Pending })
}
