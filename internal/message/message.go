// Package message holds the messages of the currently selected session,
// including the single optimistic message of an in-flight send.
package message

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Sender identifies who wrote a message.
type Sender string

// Sender constants.
const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Message is one chat message. Pending marks an optimistic message whose id
// was generated locally and has not been confirmed by the backend.
type Message struct {
	ID        string
	UserID    string
	SessionID string
	Text      string
	Sender    Sender
	Timestamp time.Time
	Pending   bool
}

// IsUser reports whether the user wrote the message.
func (m Message) IsUser() bool {
	return m.Sender == SenderUser
}

// Confirmed returns a copy of m under a server-side id with Pending cleared.
func (m Message) Confirmed(id string) Message {
	m.ID = id
	m.Pending = false
	return m
}

// IDGenerator produces ids for optimistic messages. Ids combine a process-wide
// counter with a random token, so two ids created in the same clock tick differ.
// The counter is zero-padded so ids sort as strings in creation order.
type IDGenerator struct {
	seq atomic.Uint64
}

// Next returns a fresh local id.
func (g *IDGenerator) Next() string {
	n := g.seq.Add(1)
	return fmt.Sprintf("local-%020d-%s", n, uuid.NewString())
}
