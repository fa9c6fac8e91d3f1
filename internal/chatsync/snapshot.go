package chatsync

import (
	"github.com/guilhermegouw/unwind/internal/message"
	"github.com/guilhermegouw/unwind/internal/session"
)

// Snapshot is a consistent copy of the controller's state for rendering.
type Snapshot struct {
	Sessions  []session.Session
	Messages  []message.Message
	CurrentID string
	Sending   bool
}

// Current returns the selected session, if it is in the list.
func (s Snapshot) Current() (session.Session, bool) {
	if s.CurrentID == "" {
		return session.Session{}, false
	}
	for _, sess := range s.Sessions {
		if sess.ID == s.CurrentID {
			return sess, true
		}
	}
	return session.Session{}, false
}

// Snapshot returns a copy of the stores and the sending flag.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Sessions:  c.sessions.List(),
		Messages:  c.messages.List(),
		CurrentID: c.sessions.Current(),
		Sending:   c.sending,
	}
}
