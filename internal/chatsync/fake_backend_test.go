package chatsync

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/guilhermegouw/unwind/internal/gateway"
	"github.com/guilhermegouw/unwind/internal/message"
	"github.com/guilhermegouw/unwind/internal/session"
)

// fakeBackend is an in-memory backend whose calls can be made to fail or to
// block until released.
type fakeBackend struct {
	mu       sync.Mutex
	sessions []session.Session
	messages map[string][]message.Message
	nextID   int

	listErr   error
	createErr error
	fetchErr  error
	sendErr   error
	replyText string
	echo      bool
	// saveFirst stores the exchange before waiting on the "send" gate, like
	// a server that has persisted the messages but not yet answered.
	saveFirst bool

	// gates block ListMessages for a session id (SendMessage for "send",
	// ListSessions for "sessions") until the channel is closed. started receives the key once the call
	// is waiting.
	gates   map[string]chan struct{}
	started chan string

	createdTitles []string
	sent          []message.Message
}

var _ gateway.Backend = (*fakeBackend)(nil)

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		messages:  make(map[string][]message.Message),
		nextID:    100,
		replyText: "Tell me more.",
		gates:     make(map[string]chan struct{}),
		started:   make(chan string, 16),
	}
}

func (f *fakeBackend) id() string {
	f.nextID++
	return strconv.Itoa(f.nextID)
}

func (f *fakeBackend) addSession(id, title string, msgs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = append(f.sessions, session.Session{ID: id, Title: title})
	for i, text := range msgs {
		sender := message.SenderUser
		if i%2 == 1 {
			sender = message.SenderAI
		}
		f.messages[id] = append(f.messages[id], message.Message{
			ID: f.id(), SessionID: id, Text: text, Sender: sender, Timestamp: time.Unix(int64(i), 0),
		})
	}
}

func (f *fakeBackend) gate(key string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[key] = ch
	return ch
}

func (f *fakeBackend) wait(ctx context.Context, key string) error {
	f.mu.Lock()
	ch, ok := f.gates[key]
	f.mu.Unlock()
	if !ok {
		return nil
	}
	f.started <- key
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ListSessions reads the list before waiting, so a gated call returns what
// the server held when the request arrived.
func (f *fakeBackend) ListSessions(ctx context.Context) ([]session.Session, error) {
	f.mu.Lock()
	listErr := f.listErr
	out := make([]session.Session, len(f.sessions))
	copy(out, f.sessions)
	f.mu.Unlock()

	if err := f.wait(ctx, "sessions"); err != nil {
		return nil, err
	}
	if listErr != nil {
		return nil, listErr
	}
	return out, nil
}

func (f *fakeBackend) CreateSession(_ context.Context, title string) (session.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return session.Session{}, f.createErr
	}
	s := session.Session{ID: f.id(), Title: title}
	f.sessions = append([]session.Session{s}, f.sessions...)
	f.createdTitles = append(f.createdTitles, title)
	return s, nil
}

func (f *fakeBackend) ListMessages(ctx context.Context, sessionID string) ([]message.Message, error) {
	if err := f.wait(ctx, sessionID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]message.Message, len(f.messages[sessionID]))
	copy(out, f.messages[sessionID])
	return out, nil
}

func (f *fakeBackend) SendMessage(ctx context.Context, msg message.Message) (gateway.SendResult, error) {
	f.mu.Lock()
	saveFirst := f.saveFirst
	f.mu.Unlock()

	if !saveFirst {
		if err := f.wait(ctx, "send"); err != nil {
			return gateway.SendResult{}, err
		}
	}

	f.mu.Lock()
	f.sent = append(f.sent, msg)
	if f.sendErr != nil {
		err := f.sendErr
		f.mu.Unlock()
		return gateway.SendResult{}, err
	}
	user := message.Message{ID: f.id(), SessionID: msg.SessionID, Text: msg.Text, Sender: message.SenderUser, Timestamp: msg.Timestamp}
	reply := message.Message{ID: f.id(), SessionID: msg.SessionID, Text: f.replyText, Sender: message.SenderAI, Timestamp: msg.Timestamp.Add(time.Second)}
	f.messages[msg.SessionID] = append(f.messages[msg.SessionID], user, reply)
	echo := f.echo
	f.mu.Unlock()

	if saveFirst {
		if err := f.wait(ctx, "send"); err != nil {
			return gateway.SendResult{}, err
		}
	}

	res := gateway.SendResult{Reply: reply}
	if echo {
		res.UserEcho = &user
	}
	return res, nil
}
