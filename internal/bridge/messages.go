// Package bridge provides the connection between the pub/sub system and Bubble Tea.
package bridge

import (
	"github.com/guilhermegouw/unwind/internal/events"
	"github.com/guilhermegouw/unwind/internal/pubsub"
)

// SessionEventMsg wraps a session event for the TUI.
type SessionEventMsg struct {
	Event pubsub.Event[events.SessionEvent]
}

// MessageEventMsg wraps a message event for the TUI.
type MessageEventMsg struct {
	Event pubsub.Event[events.MessageEvent]
}

// AuthEventMsg wraps an auth event for the TUI.
type AuthEventMsg struct {
	Event pubsub.Event[events.AuthEvent]
}
