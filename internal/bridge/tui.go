package bridge

import (
	"context"
	"sync"

	tea "charm.land/bubbletea/v2"

	"github.com/guilhermegouw/unwind/internal/debug"
	"github.com/guilhermegouw/unwind/internal/events"
	"github.com/guilhermegouw/unwind/internal/pubsub"
)

// Sender receives Bubble Tea messages. *tea.Program implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// TUIBridge subscribes to all Hub brokers and forwards events to the program.
type TUIBridge struct { //nolint:govet // fieldalignment: preserving logical field order
	hub     *pubsub.Hub
	program Sender

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.RWMutex
	sessionFilter string // only forward message events for this session
}

// TUIBridgeOption configures the TUIBridge.
type TUIBridgeOption func(*TUIBridge)

// WithSessionFilter only forwards message events for the specified session.
func WithSessionFilter(sessionID string) TUIBridgeOption {
	return func(b *TUIBridge) {
		b.sessionFilter = sessionID
	}
}

// NewTUIBridge creates a new TUI bridge.
func NewTUIBridge(hub *pubsub.Hub, program Sender, opts ...TUIBridgeOption) *TUIBridge {
	b := &TUIBridge{
		hub:     hub,
		program: program,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Start begins forwarding events to the TUI. Subscriptions are made before
// Start returns, so no event published afterwards is missed.
// Call Stop() to gracefully shut down.
func (b *TUIBridge) Start(ctx context.Context) {
	b.ctx, b.cancel = context.WithCancel(ctx)

	sessions := b.hub.Session.Subscribe(b.ctx)
	messages := b.hub.Message.Subscribe(b.ctx)
	auths := b.hub.Auth.Subscribe(b.ctx)

	b.wg.Add(3)
	go forward(b, sessions, func(e pubsub.Event[events.SessionEvent]) tea.Msg {
		return SessionEventMsg{Event: e}
	})
	go forward(b, messages, func(e pubsub.Event[events.MessageEvent]) tea.Msg {
		if f := b.filter(); f != "" && e.Payload.SessionID != f {
			return nil
		}
		return MessageEventMsg{Event: e}
	})
	go forward(b, auths, func(e pubsub.Event[events.AuthEvent]) tea.Msg {
		return AuthEventMsg{Event: e}
	})

	debug.Event("bridge", "start", "TUI bridge started")
}

// forward drains ch until the bridge stops or the broker shuts down.
// A nil message from convert drops the event.
func forward[T any](b *TUIBridge, ch <-chan pubsub.Event[T], convert func(pubsub.Event[T]) tea.Msg) {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if msg := convert(event); msg != nil {
				b.program.Send(msg)
			}
		}
	}
}

// Stop gracefully shuts down the bridge.
func (b *TUIBridge) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
	debug.Event("bridge", "stop", "TUI bridge stopped")
}

// SetSessionFilter updates the session filter at runtime.
func (b *TUIBridge) SetSessionFilter(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessionFilter = sessionID
}

// ClearSessionFilter removes the session filter.
func (b *TUIBridge) ClearSessionFilter() {
	b.SetSessionFilter("")
}

func (b *TUIBridge) filter() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sessionFilter
}
