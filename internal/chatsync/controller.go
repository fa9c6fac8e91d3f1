// Package chatsync keeps the session and message stores in step with the
// backend.
//
// The Controller is the only writer of both stores. Callers (the TUI, the
// one-shot CLI) dispatch intents and read Snapshots. Every operation may run
// on its own goroutine: the controller lock is held only between network
// calls, sends are serialized by an in-flight flag, and message fetches are
// tagged with a selection generation so that a late response for a session
// the user has already left is dropped.
package chatsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/guilhermegouw/unwind/internal/debug"
	"github.com/guilhermegouw/unwind/internal/events"
	"github.com/guilhermegouw/unwind/internal/gateway"
	"github.com/guilhermegouw/unwind/internal/message"
	"github.com/guilhermegouw/unwind/internal/pubsub"
	"github.com/guilhermegouw/unwind/internal/sendlog"
	"github.com/guilhermegouw/unwind/internal/session"
)

// DefaultSessionTitle names sessions created implicitly by a first message.
const DefaultSessionTitle = "New chat"

// Controller errors.
var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrSendInFlight = errors.New("a message is already being sent")
	ErrNoDraft      = errors.New("no failed draft to recall")
)

// SendLog journals send attempts. *sendlog.Store implements it.
type SendLog interface {
	Begin(ctx context.Context, localID, sessionID, text string) error
	Confirm(ctx context.Context, localID, replyID string) error
	Fail(ctx context.Context, localID string, cause error) error
	LastFailed(ctx context.Context, sessionID string) (sendlog.Entry, error)
	Recall(ctx context.Context, sessionID string) (sendlog.Entry, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithHub publishes state transitions to the hub.
func WithHub(hub *pubsub.Hub) Option {
	return func(c *Controller) {
		c.hub = hub
	}
}

// WithSendLog journals sends so failed drafts can be recalled.
func WithSendLog(log SendLog) Option {
	return func(c *Controller) {
		c.log = log
	}
}

// WithDefaultTitle overrides the title used for implicitly created sessions.
func WithDefaultTitle(title string) Option {
	return func(c *Controller) {
		if strings.TrimSpace(title) != "" {
			c.defaultTitle = title
		}
	}
}

// WithClock overrides the clock used for optimistic timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// Controller mediates every change to the session and message stores.
type Controller struct {
	backend  gateway.Backend
	sessions *session.Store
	messages *message.Store
	ids      *message.IDGenerator

	hub          *pubsub.Hub
	log          SendLog
	defaultTitle string
	now          func() time.Time

	mu         sync.Mutex
	sending    bool
	pending    *message.Message
	generation uint64 // bumped on every selection change
	listGen    uint64 // bumped on every session list fetch and create
}

// New creates a controller over empty stores.
func New(backend gateway.Backend, opts ...Option) *Controller {
	c := &Controller{
		backend:      backend,
		sessions:     session.NewStore(),
		messages:     message.NewStore(),
		ids:          &message.IDGenerator{},
		defaultTitle: DefaultSessionTitle,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize loads the session list and, when nothing is selected yet, selects
// the most recent session. On failure the session list is left empty; the
// returned error is informational.
func (c *Controller) Initialize(ctx context.Context) error {
	debug.Event("sync", "Initialize", "fetching sessions")

	gen := c.beginListFetch()
	list, err := c.backend.ListSessions(ctx)
	if err != nil {
		debug.Error("sync", err, "initial session fetch")
		c.applyList(gen, nil)
		c.publishSession(pubsub.EventFailed, events.NewSessionFetchFailedEvent("", err))
		return err
	}

	if c.applyList(gen, list) {
		c.publishSession(pubsub.EventUpdated, events.NewSessionListRefreshedEvent(len(list)))
	} else {
		// A newer fetch or a create already replaced the list.
		list = c.sessions.List()
	}

	if len(list) == 0 || c.sessions.Current() != "" {
		return nil
	}
	return c.SelectSession(ctx, list[0].ID)
}

// SelectSession points the selection at id, clears the message store and loads
// the session's messages. When several selections overlap, the last one wins.
func (c *Controller) SelectSession(ctx context.Context, id string) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.sessions.SetCurrent(id)
	c.messages.Clear()
	c.mu.Unlock()

	title := ""
	if s, err := c.sessions.Get(id); err == nil {
		title = s.Title
	}
	debug.Event("sync", "Select", fmt.Sprintf("session=%s gen=%d", id, gen))
	c.publishSession(pubsub.EventUpdated, events.NewSessionSwitchedEvent(id, title))

	msgs, err := c.backend.ListMessages(ctx, id)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		debug.Event("sync", "Stale", fmt.Sprintf("dropping messages of session=%s gen=%d", id, gen))
		return nil
	}
	if err != nil {
		c.mu.Unlock()
		debug.Error("sync", err, "fetching messages of session "+id)
		c.publishSession(pubsub.EventFailed, events.NewSessionFetchFailedEvent(id, err))
		return err
	}
	c.messages.Replace(msgs)
	// A send to this session may still be in flight.
	if c.pending != nil && c.pending.SessionID == id && !c.messages.Contains(c.pending.ID) {
		c.messages.Append(*c.pending)
	}
	c.mu.Unlock()

	c.publishMessage(pubsub.EventUpdated, events.NewMessagesLoadedEvent(id, len(msgs)))
	return nil
}

// CreateSession creates a session, puts it at the head of the list and selects
// it. On failure nothing changes. An empty title uses the default title.
func (c *Controller) CreateSession(ctx context.Context, title string) (session.Session, error) {
	if strings.TrimSpace(title) == "" {
		title = c.defaultTitle
	}

	s, err := c.backend.CreateSession(ctx, title)
	if err != nil {
		debug.Error("sync", err, "creating session")
		return session.Session{}, err
	}

	c.mu.Lock()
	c.generation++
	c.listGen++
	c.sessions.Prepend(s)
	c.sessions.SetCurrent(s.ID)
	c.messages.Clear()
	c.mu.Unlock()

	debug.Event("sync", "Create", "session="+s.ID)
	c.publishSession(pubsub.EventCreated, events.NewSessionCreatedEvent(s.ID, s.Title))
	return s, nil
}

// SendMessage sends text to the current session, creating one first when
// nothing is selected. The user's message is shown immediately as a pending
// entry; on success it is replaced by the confirmed message and the reply, on
// failure it is removed. Only one send may be in flight.
func (c *Controller) SendMessage(ctx context.Context, text string) (message.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return message.Message{}, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return message.Message{}, ErrSendInFlight
	}
	c.sending = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.sending = false
		c.pending = nil
		c.mu.Unlock()
	}()

	sessionID := c.sessions.Current()
	if sessionID == "" {
		s, err := c.CreateSession(ctx, c.defaultTitle)
		if err != nil {
			return message.Message{}, fmt.Errorf("starting a session: %w", err)
		}
		sessionID = s.ID
	}

	optimistic := message.Message{
		ID:        c.ids.Next(),
		SessionID: sessionID,
		Text:      text,
		Sender:    message.SenderUser,
		Timestamp: c.now(),
		Pending:   true,
	}

	c.mu.Lock()
	c.pending = &optimistic
	gen := c.generation
	if c.sessions.Current() == sessionID {
		c.messages.Append(optimistic)
	}
	c.mu.Unlock()

	debug.Event("sync", "Send", fmt.Sprintf("session=%s local=%s", sessionID, optimistic.ID))
	c.publishMessage(pubsub.EventStarted, events.NewOptimisticEvent(sessionID, optimistic.ID, text))
	c.journal(func(log SendLog) error { return log.Begin(ctx, optimistic.ID, sessionID, text) })

	res, err := c.backend.SendMessage(ctx, optimistic)
	if err != nil {
		c.mu.Lock()
		c.messages.Remove(optimistic.ID)
		c.pending = nil
		c.mu.Unlock()

		debug.Error("sync", err, "send "+optimistic.ID)
		c.publishMessage(pubsub.EventFailed, events.NewRolledBackEvent(sessionID, optimistic.ID, text, err))
		c.journal(func(log SendLog) error { return log.Fail(context.WithoutCancel(ctx), optimistic.ID, err) })
		return message.Message{}, err
	}

	user, reply := reconcile(optimistic, res)

	c.mu.Lock()
	c.messages.Remove(optimistic.ID)
	c.pending = nil
	// After leaving and re-entering the session the view came from a fetch
	// that may already hold this exchange under server ids.
	reload := c.sessions.Current() == sessionID && c.generation != gen
	if c.sessions.Current() == sessionID && !reload {
		c.appendConfirmed(user, reply)
	}
	c.mu.Unlock()

	if reload {
		c.reloadMessages(ctx, sessionID, user, reply)
	}

	c.publishMessage(pubsub.EventCompleted, events.NewConfirmedEvent(sessionID, reply.ID))
	c.journal(func(log SendLog) error { return log.Confirm(ctx, optimistic.ID, reply.ID) })

	// Refresh failures are logged and keep the current list.
	_ = c.RefreshSessions(ctx) //nolint:errcheck // Best effort.

	return reply, nil
}

// reconcile produces the confirmed user message and the reply. Without an echo
// from the backend the optimistic message is confirmed under an id derived
// from the reply id.
func reconcile(optimistic message.Message, res gateway.SendResult) (message.Message, message.Message) {
	reply := res.Reply
	if reply.ID == "" {
		reply.ID = optimistic.ID + ":reply"
	}
	if reply.SessionID == "" {
		reply.SessionID = optimistic.SessionID
	}
	if reply.Sender == "" {
		reply.Sender = message.SenderAI
	}
	reply.Pending = false

	var user message.Message
	if res.UserEcho != nil {
		user = *res.UserEcho
		user.Pending = false
		if user.ID == "" {
			user.ID = reply.ID + ":prompt"
		}
		if user.SessionID == "" {
			user.SessionID = optimistic.SessionID
		}
		if user.Sender == "" {
			user.Sender = message.SenderUser
		}
	} else {
		user = optimistic.Confirmed(reply.ID + ":prompt")
		if reply.UserID != "" {
			user.UserID = reply.UserID
		}
	}
	return user, reply
}

// appendConfirmed adds the confirmed pair of a send unless the reply is already
// shown. Callers hold c.mu.
func (c *Controller) appendConfirmed(user, reply message.Message) {
	if c.messages.Contains(reply.ID) {
		return
	}
	for _, m := range []message.Message{user, reply} {
		if !c.messages.Contains(m.ID) {
			c.messages.Append(m)
		}
	}
}

// reloadMessages replaces the view of session id with a fresh fetch. The fetch
// is dropped if the selection changes meanwhile; if it fails the confirmed
// pair is appended instead.
func (c *Controller) reloadMessages(ctx context.Context, id string, user, reply message.Message) {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	msgs, err := c.backend.ListMessages(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		debug.Event("sync", "Stale", fmt.Sprintf("dropping reload of session=%s gen=%d", id, gen))
		return
	}
	if err != nil {
		debug.Error("sync", err, "reloading messages of session "+id)
		c.appendConfirmed(user, reply)
		return
	}
	c.messages.Replace(msgs)
}

// beginListFetch tags a session list fetch.
func (c *Controller) beginListFetch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listGen++
	return c.listGen
}

// applyList replaces the session list unless a newer fetch or a create
// happened since the fetch tagged gen started.
func (c *Controller) applyList(gen uint64, list []session.Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.listGen {
		debug.Event("sync", "Stale", fmt.Sprintf("dropping session list gen=%d", gen))
		return false
	}
	c.sessions.Replace(list)
	return true
}

// RefreshSessions re-fetches the session list. On failure the previous list is
// kept.
func (c *Controller) RefreshSessions(ctx context.Context) error {
	gen := c.beginListFetch()
	list, err := c.backend.ListSessions(ctx)
	if err != nil {
		debug.Error("sync", err, "refreshing sessions")
		c.publishSession(pubsub.EventFailed, events.NewSessionFetchFailedEvent("", err))
		return err
	}
	if !c.applyList(gen, list) {
		return nil
	}
	c.publishSession(pubsub.EventUpdated, events.NewSessionListRefreshedEvent(len(list)))
	return nil
}

// IsSending reports whether a send is in flight.
func (c *Controller) IsSending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

// LastFailedDraft returns the text of the most recent failed send in the
// current session without consuming it.
func (c *Controller) LastFailedDraft(ctx context.Context) (string, error) {
	e, err := c.lastFailed(ctx)
	if err != nil {
		return "", err
	}
	return e.Text, nil
}

// RecallDraft returns the most recent failed draft of the current session and
// removes it from the log, so repeated recalls walk back through older drafts.
func (c *Controller) RecallDraft(ctx context.Context) (string, error) {
	if c.log == nil {
		return "", ErrNoDraft
	}
	cur := c.sessions.Current()
	if cur == "" {
		return "", ErrNoDraft
	}
	e, err := c.log.Recall(ctx, cur)
	if errors.Is(err, sendlog.ErrNotFound) {
		return "", ErrNoDraft
	}
	if err != nil {
		return "", fmt.Errorf("recalling draft: %w", err)
	}
	return e.Text, nil
}

func (c *Controller) lastFailed(ctx context.Context) (sendlog.Entry, error) {
	if c.log == nil {
		return sendlog.Entry{}, ErrNoDraft
	}
	cur := c.sessions.Current()
	if cur == "" {
		return sendlog.Entry{}, ErrNoDraft
	}
	e, err := c.log.LastFailed(ctx, cur)
	if errors.Is(err, sendlog.ErrNotFound) {
		return sendlog.Entry{}, ErrNoDraft
	}
	if err != nil {
		return sendlog.Entry{}, fmt.Errorf("reading drafts: %w", err)
	}
	return e, nil
}

func (c *Controller) journal(fn func(SendLog) error) {
	if c.log == nil {
		return
	}
	if err := fn(c.log); err != nil {
		debug.Error("sync", err, "send log")
	}
}

func (c *Controller) publishSession(t pubsub.EventType, ev events.SessionEvent) {
	if c.hub != nil {
		c.hub.Session.Publish(t, ev)
	}
}

func (c *Controller) publishMessage(t pubsub.EventType, ev events.MessageEvent) {
	if c.hub != nil {
		c.hub.Message.Publish(t, ev)
	}
}
