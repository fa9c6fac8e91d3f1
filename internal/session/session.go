// Package session holds the client-side view of the user's conversation sessions.
package session

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a session id is not in the store.
var ErrNotFound = errors.New("session not found")

// Session is a conversation session as returned by the backend.
// Values are immutable once constructed; the store replaces them wholesale.
type Session struct {
	ID           string
	UserID       string
	Title        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
	LastMessage  string
}

// DisplayTitle returns the title, or a fallback for untitled sessions.
func (s Session) DisplayTitle() string {
	if s.Title == "" {
		return "Untitled session"
	}
	return s.Title
}
