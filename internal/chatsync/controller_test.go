package chatsync

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/guilhermegouw/unwind/internal/db"
	"github.com/guilhermegouw/unwind/internal/events"
	"github.com/guilhermegouw/unwind/internal/message"
	"github.com/guilhermegouw/unwind/internal/pubsub"
	"github.com/guilhermegouw/unwind/internal/sendlog"
)

var errNetwork = errors.New("connection refused")

func texts(msgs []message.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, string(m.Sender)+":"+m.Text)
	}
	return out
}

func waitStarted(t *testing.T, f *fakeBackend, key string) {
	t.Helper()
	select {
	case got := <-f.started:
		if got != key {
			t.Fatalf("started %q, want %q", got, key)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %q call", key)
	}
}

func TestInitialize(t *testing.T) {
	t.Run("selects first session", func(t *testing.T) {
		f := newFakeBackend()
		f.addSession("9", "Recent", "hi", "hello")
		f.addSession("3", "Older", "old")

		c := New(f)
		if err := c.Initialize(context.Background()); err != nil {
			t.Fatalf("Initialize() error = %v", err)
		}

		snap := c.Snapshot()
		if snap.CurrentID != "9" {
			t.Errorf("CurrentID = %q, want 9", snap.CurrentID)
		}
		if len(snap.Sessions) != 2 {
			t.Errorf("len(Sessions) = %d, want 2", len(snap.Sessions))
		}
		if got := texts(snap.Messages); !slices.Equal(got, []string{"user:hi", "ai:hello"}) {
			t.Errorf("Messages = %v", got)
		}
	})

	t.Run("empty list selects nothing", func(t *testing.T) {
		c := New(newFakeBackend())
		if err := c.Initialize(context.Background()); err != nil {
			t.Fatalf("Initialize() error = %v", err)
		}
		if snap := c.Snapshot(); snap.CurrentID != "" || len(snap.Sessions) != 0 {
			t.Errorf("Snapshot() = %+v", snap)
		}
	})

	t.Run("keeps existing selection", func(t *testing.T) {
		f := newFakeBackend()
		f.addSession("9", "Recent")
		f.addSession("3", "Older", "old")

		c := New(f)
		if err := c.SelectSession(context.Background(), "3"); err != nil {
			t.Fatal(err)
		}
		if err := c.Initialize(context.Background()); err != nil {
			t.Fatal(err)
		}
		if got := c.Snapshot().CurrentID; got != "3" {
			t.Errorf("CurrentID = %q, want 3", got)
		}
	})

	t.Run("failure leaves empty session list", func(t *testing.T) {
		f := newFakeBackend()
		f.addSession("1", "One")
		c := New(f)
		if err := c.Initialize(context.Background()); err != nil {
			t.Fatal(err)
		}

		f.listErr = errNetwork
		err := c.Initialize(context.Background())
		if !errors.Is(err, errNetwork) {
			t.Fatalf("Initialize() error = %v, want %v", err, errNetwork)
		}
		if n := len(c.Snapshot().Sessions); n != 0 {
			t.Errorf("len(Sessions) = %d, want 0", n)
		}
	})
}

func TestSelectSession_Idempotent(t *testing.T) {
	f := newFakeBackend()
	f.addSession("5", "Five", "a", "b", "c")
	c := New(f)
	ctx := context.Background()

	if err := c.SelectSession(ctx, "5"); err != nil {
		t.Fatal(err)
	}
	once := c.Snapshot().Messages

	if err := c.SelectSession(ctx, "5"); err != nil {
		t.Fatal(err)
	}
	twice := c.Snapshot().Messages

	if !slices.Equal(texts(once), texts(twice)) {
		t.Errorf("second select changed messages: %v vs %v", texts(once), texts(twice))
	}
}

func TestSelectSession_LatestWins(t *testing.T) {
	f := newFakeBackend()
	f.addSession("5", "Five", "five-1")
	f.addSession("7", "Seven", "seven-1", "seven-2")
	release := f.gate("5")

	c := New(f)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.SelectSession(ctx, "5") }()
	waitStarted(t, f, "5")

	if err := c.SelectSession(ctx, "7"); err != nil {
		t.Fatalf("SelectSession(7) error = %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("stale SelectSession(5) error = %v", err)
	}

	snap := c.Snapshot()
	if snap.CurrentID != "7" {
		t.Errorf("CurrentID = %q, want 7", snap.CurrentID)
	}
	if got := texts(snap.Messages); !slices.Equal(got, []string{"user:seven-1", "ai:seven-2"}) {
		t.Errorf("Messages = %v, want session 7's", got)
	}
}

func TestSelectSession_FetchFailure(t *testing.T) {
	f := newFakeBackend()
	f.addSession("5", "Five", "x")
	f.fetchErr = errNetwork
	c := New(f)

	if err := c.SelectSession(context.Background(), "5"); !errors.Is(err, errNetwork) {
		t.Fatalf("SelectSession() error = %v", err)
	}
	snap := c.Snapshot()
	if snap.CurrentID != "5" || len(snap.Messages) != 0 {
		t.Errorf("Snapshot() = %+v", snap)
	}
}

func TestCreateSession(t *testing.T) {
	t.Run("prepends and selects", func(t *testing.T) {
		f := newFakeBackend()
		f.addSession("1", "Old", "hi")
		c := New(f)
		ctx := context.Background()
		if err := c.Initialize(ctx); err != nil {
			t.Fatal(err)
		}

		s, err := c.CreateSession(ctx, "")
		if err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}
		if s.Title != DefaultSessionTitle {
			t.Errorf("Title = %q, want default", s.Title)
		}

		snap := c.Snapshot()
		if snap.Sessions[0].ID != s.ID || snap.CurrentID != s.ID {
			t.Errorf("new session not at head/selected: %+v", snap)
		}
		if len(snap.Messages) != 0 {
			t.Errorf("Messages not cleared: %v", texts(snap.Messages))
		}
	})

	t.Run("failure changes nothing", func(t *testing.T) {
		f := newFakeBackend()
		f.addSession("1", "Old", "hi")
		c := New(f, WithDefaultTitle("Check-in"))
		ctx := context.Background()
		if err := c.Initialize(ctx); err != nil {
			t.Fatal(err)
		}
		before := c.Snapshot()

		f.createErr = errNetwork
		if _, err := c.CreateSession(ctx, "x"); !errors.Is(err, errNetwork) {
			t.Fatalf("CreateSession() error = %v", err)
		}

		after := c.Snapshot()
		if after.CurrentID != before.CurrentID || len(after.Sessions) != len(before.Sessions) ||
			!slices.Equal(texts(after.Messages), texts(before.Messages)) {
			t.Errorf("state changed: before=%+v after=%+v", before, after)
		}
	})
}

func TestSendMessage_Success(t *testing.T) {
	for _, echo := range []bool{false, true} {
		name := "reply only"
		if echo {
			name = "with echo"
		}
		t.Run(name, func(t *testing.T) {
			f := newFakeBackend()
			f.echo = echo
			f.addSession("5", "Five", "earlier", "earlier reply")
			c := New(f)
			ctx := context.Background()
			if err := c.Initialize(ctx); err != nil {
				t.Fatal(err)
			}
			before := c.Snapshot().Messages

			reply, err := c.SendMessage(ctx, "  hello  ")
			if err != nil {
				t.Fatalf("SendMessage() error = %v", err)
			}
			if reply.Text != "Tell me more." {
				t.Errorf("reply = %+v", reply)
			}

			after := c.Snapshot().Messages
			if len(after) != len(before)+2 {
				t.Fatalf("message count = %d, want %d", len(after), len(before)+2)
			}
			for _, m := range after {
				if m.Pending || strings.HasPrefix(m.ID, "local-") {
					t.Errorf("optimistic message left behind: %+v", m)
				}
			}
			got := texts(after[len(before):])
			if !slices.Equal(got, []string{"user:hello", "ai:Tell me more."}) {
				t.Errorf("appended = %v", got)
			}
			if c.IsSending() {
				t.Error("IsSending() = true after send")
			}
			if f.sent[0].SessionID != "5" || f.sent[0].Sender != message.SenderUser {
				t.Errorf("sent = %+v", f.sent[0])
			}
		})
	}
}

func TestSendMessage_Rollback(t *testing.T) {
	f := newFakeBackend()
	f.addSession("5", "Five", "earlier")
	f.sendErr = errNetwork
	c := New(f)
	ctx := context.Background()
	if err := c.Initialize(ctx); err != nil {
		t.Fatal(err)
	}
	before := texts(c.Snapshot().Messages)

	if _, err := c.SendMessage(ctx, "hello"); !errors.Is(err, errNetwork) {
		t.Fatalf("SendMessage() error = %v, want %v", err, errNetwork)
	}

	snap := c.Snapshot()
	if got := texts(snap.Messages); !slices.Equal(got, before) {
		t.Errorf("Messages = %v, want %v", got, before)
	}
	if snap.Sending {
		t.Error("Sending = true after failure")
	}
}

func TestSendMessage_EmptyText(t *testing.T) {
	f := newFakeBackend()
	c := New(f)
	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := c.SendMessage(context.Background(), text); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("SendMessage(%q) error = %v, want ErrEmptyMessage", text, err)
		}
	}
	if len(f.createdTitles) != 0 {
		t.Error("empty send created a session")
	}
}

func TestSendMessage_AutoCreatesSession(t *testing.T) {
	f := newFakeBackend()
	c := New(f)
	ctx := context.Background()
	if err := c.Initialize(ctx); err != nil {
		t.Fatal(err)
	}

	if _, err := c.SendMessage(ctx, "hi"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	if len(f.createdTitles) != 1 || f.createdTitles[0] != DefaultSessionTitle {
		t.Fatalf("created = %v, want one %q", f.createdTitles, DefaultSessionTitle)
	}
	snap := c.Snapshot()
	if len(snap.Sessions) != 1 || snap.CurrentID != snap.Sessions[0].ID {
		t.Errorf("Snapshot() = %+v", snap)
	}
}

func TestSendMessage_AnxiousScenario(t *testing.T) {
	f := newFakeBackend()
	c := New(f)
	ctx := context.Background()
	if err := c.Initialize(ctx); err != nil {
		t.Fatal(err)
	}

	if _, err := c.SendMessage(ctx, "I feel anxious"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	snap := c.Snapshot()
	if len(snap.Sessions) != 1 {
		t.Errorf("sessions = %d, want 1", len(snap.Sessions))
	}
	want := []string{"user:I feel anxious", "ai:Tell me more."}
	if got := texts(snap.Messages); !slices.Equal(got, want) {
		t.Errorf("Messages = %v, want %v", got, want)
	}
}

func TestSendMessage_AbortedAutoCreateClearsFlag(t *testing.T) {
	f := newFakeBackend()
	f.createErr = errNetwork
	c := New(f)
	ctx := context.Background()

	if _, err := c.SendMessage(ctx, "hi"); !errors.Is(err, errNetwork) {
		t.Fatalf("SendMessage() error = %v", err)
	}
	snap := c.Snapshot()
	if snap.Sending || len(snap.Messages) != 0 || snap.CurrentID != "" {
		t.Errorf("Snapshot() = %+v", snap)
	}

	f.createErr = nil
	if _, err := c.SendMessage(ctx, "hi again"); err != nil {
		t.Fatalf("retry SendMessage() error = %v", err)
	}
}

func TestSendMessage_Serialized(t *testing.T) {
	f := newFakeBackend()
	f.addSession("5", "Five")
	release := f.gate("send")
	c := New(f)
	ctx := context.Background()
	if err := c.Initialize(ctx); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := c.SendMessage(ctx, "first")
		done <- err
	}()
	waitStarted(t, f, "send")

	if !c.IsSending() {
		t.Error("IsSending() = false while in flight")
	}
	during := c.Snapshot().Messages
	if len(during) != 1 || !during[0].Pending || during[0].Text != "first" {
		t.Fatalf("optimistic message not shown: %+v", during)
	}

	if _, err := c.SendMessage(ctx, "second"); !errors.Is(err, ErrSendInFlight) {
		t.Fatalf("second SendMessage() error = %v, want ErrSendInFlight", err)
	}
	if got := c.Snapshot().Messages; !slices.Equal(texts(got), texts(during)) {
		t.Errorf("second send changed store: %v", texts(got))
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first SendMessage() error = %v", err)
	}
	if c.IsSending() {
		t.Error("IsSending() = true after completion")
	}
	if len(f.sent) != 1 {
		t.Errorf("backend received %d sends, want 1", len(f.sent))
	}
}

func TestSendMessage_SessionSwitchedMidFlight(t *testing.T) {
	f := newFakeBackend()
	f.addSession("5", "Five")
	f.addSession("7", "Seven", "seven")
	release := f.gate("send")
	c := New(f)
	ctx := context.Background()
	if err := c.SelectSession(ctx, "5"); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := c.SendMessage(ctx, "for five")
		done <- err
	}()
	waitStarted(t, f, "send")

	if err := c.SelectSession(ctx, "7"); err != nil {
		t.Fatal(err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	if got := texts(c.Snapshot().Messages); !slices.Equal(got, []string{"user:seven"}) {
		t.Errorf("session 7 view = %v", got)
	}

	if err := c.SelectSession(ctx, "5"); err != nil {
		t.Fatal(err)
	}
	if got := texts(c.Snapshot().Messages); !slices.Equal(got, []string{"user:for five", "ai:Tell me more."}) {
		t.Errorf("session 5 view = %v", got)
	}
}

func TestSendMessage_SwitchBackMidFlight(t *testing.T) {
	for _, echo := range []bool{false, true} {
		name := "reply only"
		if echo {
			name = "with echo"
		}
		t.Run(name, func(t *testing.T) {
			f := newFakeBackend()
			f.addSession("5", "Five")
			f.addSession("7", "Seven")
			f.saveFirst = true
			f.echo = echo
			release := f.gate("send")
			c := New(f)
			ctx := context.Background()
			if err := c.SelectSession(ctx, "7"); err != nil {
				t.Fatal(err)
			}

			done := make(chan error, 1)
			go func() {
				_, err := c.SendMessage(ctx, "still here")
				done <- err
			}()
			waitStarted(t, f, "send")

			// The server has stored the exchange; leave and come back.
			if err := c.SelectSession(ctx, "5"); err != nil {
				t.Fatal(err)
			}
			if err := c.SelectSession(ctx, "7"); err != nil {
				t.Fatal(err)
			}
			close(release)
			if err := <-done; err != nil {
				t.Fatalf("SendMessage() error = %v", err)
			}

			snap := c.Snapshot()
			if got := texts(snap.Messages); !slices.Equal(got, []string{"user:still here", "ai:Tell me more."}) {
				t.Errorf("session 7 view = %v", got)
			}
			for _, m := range snap.Messages {
				if m.Pending {
					t.Errorf("pending message left behind: %+v", m)
				}
			}
		})
	}
}

func TestInitialize_StaleListAfterCreate(t *testing.T) {
	f := newFakeBackend()
	f.addSession("1", "One")
	release := f.gate("sessions")
	c := New(f)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.Initialize(ctx) }()
	waitStarted(t, f, "sessions")

	created, err := c.CreateSession(ctx, "Fresh")
	if err != nil {
		t.Fatal(err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	snap := c.Snapshot()
	if snap.CurrentID != created.ID {
		t.Errorf("CurrentID = %q, want %q", snap.CurrentID, created.ID)
	}
	if cur, ok := snap.Current(); !ok || cur.Title != "Fresh" {
		t.Errorf("Current() = %+v, %v; created session missing from list", cur, ok)
	}
}

func TestRefreshSessions_StaleResultDropped(t *testing.T) {
	f := newFakeBackend()
	f.addSession("1", "One")
	release := f.gate("sessions")
	c := New(f)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.RefreshSessions(ctx) }()
	waitStarted(t, f, "sessions")

	created, err := c.CreateSession(ctx, "Fresh")
	if err != nil {
		t.Fatal(err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("RefreshSessions() error = %v", err)
	}

	if _, ok := c.Snapshot().Current(); !ok {
		t.Errorf("session %s dropped by an older list", created.ID)
	}
}

func TestRefreshSessions_FailureKeepsList(t *testing.T) {
	f := newFakeBackend()
	f.addSession("1", "One")
	f.addSession("2", "Two")
	c := New(f)
	ctx := context.Background()
	if err := c.RefreshSessions(ctx); err != nil {
		t.Fatal(err)
	}

	f.listErr = errNetwork
	if err := c.RefreshSessions(ctx); !errors.Is(err, errNetwork) {
		t.Fatalf("RefreshSessions() error = %v", err)
	}
	if n := len(c.Snapshot().Sessions); n != 2 {
		t.Errorf("len(Sessions) = %d, want 2", n)
	}
}

func TestDrafts(t *testing.T) {
	database, err := db.Open(filepath.Join(t.TempDir(), "unwind.db"))
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = database.Close() }) //nolint:errcheck // test cleanup

	f := newFakeBackend()
	f.addSession("5", "Five")
	c := New(f, WithSendLog(sendlog.New(database)))
	ctx := context.Background()
	if err := c.Initialize(ctx); err != nil {
		t.Fatal(err)
	}

	if _, err := c.LastFailedDraft(ctx); !errors.Is(err, ErrNoDraft) {
		t.Fatalf("LastFailedDraft() error = %v, want ErrNoDraft", err)
	}

	f.sendErr = errNetwork
	if _, err := c.SendMessage(ctx, "lost words"); err == nil {
		t.Fatal("SendMessage() succeeded")
	}

	draft, err := c.LastFailedDraft(ctx)
	if err != nil || draft != "lost words" {
		t.Fatalf("LastFailedDraft() = %q, %v", draft, err)
	}

	recalled, err := c.RecallDraft(ctx)
	if err != nil || recalled != "lost words" {
		t.Fatalf("RecallDraft() = %q, %v", recalled, err)
	}
	if _, err := c.RecallDraft(ctx); !errors.Is(err, ErrNoDraft) {
		t.Errorf("second RecallDraft() error = %v, want ErrNoDraft", err)
	}

	f.sendErr = nil
	if _, err := c.SendMessage(ctx, "kept"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.LastFailedDraft(ctx); !errors.Is(err, ErrNoDraft) {
		t.Errorf("confirmed send became a draft: %v", err)
	}
}

func TestEventsPublished(t *testing.T) {
	hub := pubsub.NewHub()
	t.Cleanup(hub.Shutdown)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	msgEvents := hub.Message.Subscribe(ctx)

	f := newFakeBackend()
	f.addSession("5", "Five")
	f.sendErr = errNetwork
	c := New(f, WithHub(hub))
	if err := c.SelectSession(ctx, "5"); err != nil {
		t.Fatal(err)
	}
	_, _ = c.SendMessage(ctx, "hello") //nolint:errcheck // failure expected

	var got []events.MessageEventType
	timeout := time.After(2 * time.Second)
	for len(got) < 3 {
		select {
		case ev := <-msgEvents:
			got = append(got, ev.Payload.Type)
		case <-timeout:
			t.Fatalf("events = %v", got)
		}
	}
	want := []events.MessageEventType{events.MessageEventLoaded, events.MessageEventOptimistic, events.MessageEventRolledBack}
	if !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}
