package pubsub

import (
	"github.com/guilhermegouw/unwind/internal/events"
)

// Hub is the container for the client's domain brokers.
type Hub struct { //nolint:govet // fieldalignment: preserving logical field order
	Session *Broker[events.SessionEvent]
	Message *Broker[events.MessageEvent]
	Auth    *Broker[events.AuthEvent]

	registry *Registry
	done     chan struct{}
}

// NewHub creates a new Hub with all domain brokers initialized.
func NewHub() *Hub {
	h := &Hub{
		Session:  NewBroker[events.SessionEvent]("session"),
		Message:  NewBroker[events.MessageEvent]("message"),
		Auth:     NewBroker[events.AuthEvent]("auth"),
		registry: NewRegistry(),
		done:     make(chan struct{}),
	}

	h.registry.Register(h.Session)
	h.registry.Register(h.Message)
	h.registry.Register(h.Auth)

	return h
}

// Shutdown shuts down all brokers. It is safe to call more than once.
func (h *Hub) Shutdown() {
	select {
	case <-h.done:
		return
	default:
		close(h.done)
	}

	h.Session.Shutdown()
	h.Message.Shutdown()
	h.Auth.Shutdown()
}

// IsShutdown returns true if the hub has been shut down.
func (h *Hub) IsShutdown() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Done returns a channel that's closed when the hub is shut down.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// DebugString returns a formatted debug string for all brokers.
func (h *Hub) DebugString() string {
	return h.registry.DebugString()
}
