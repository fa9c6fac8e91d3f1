package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guilhermegouw/unwind/internal/auth"
	"github.com/guilhermegouw/unwind/internal/events"
	"github.com/guilhermegouw/unwind/internal/message"
	"github.com/guilhermegouw/unwind/internal/pubsub"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, auth.NewStaticProvider("tok"), opts...)
	require.NoError(t, err)
	return c
}

func TestNew_ValidatesURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "http", url: "http://localhost:8000"},
		{name: "https trailing slash", url: "https://api.example.com/"},
		{name: "empty", url: "", wantErr: true},
		{name: "no scheme", url: "localhost:8000", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.url, auth.NewStaticProvider("x"))
			assert.Equal(t, tt.wantErr, err != nil, "err = %v", err)
		})
	}
}

func TestClient_ListSessions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/sessions", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = io.WriteString(w, `[
			{"id": 7, "user_id": "u1", "title": "Evening", "created_at": "2026-03-01T10:00:00Z",
			 "updated_at": "2026-03-01T11:00:00.123456", "message_count": 4, "last_message": "ok"},
			{"id": "abc", "title": "Morning", "created_at": null, "message_count": 0, "last_message": null}
		]`)
	})

	got, err := c.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "7", got[0].ID)
	assert.Equal(t, "u1", got[0].UserID)
	assert.Equal(t, 4, got[0].MessageCount)
	assert.Equal(t, "ok", got[0].LastMessage)
	assert.Equal(t, 11, got[0].UpdatedAt.Hour())

	assert.Equal(t, "abc", got[1].ID)
	assert.Empty(t, got[1].LastMessage)
	assert.True(t, got[1].CreatedAt.IsZero())
}

func TestClient_CreateSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req CreateSessionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "New chat", req.Title)
		_, _ = io.WriteString(w, `{"id": 12, "title": "New chat", "message_count": 0}`)
	})

	s, err := c.CreateSession(context.Background(), "New chat")
	require.NoError(t, err)
	assert.Equal(t, "12", s.ID)
	assert.Equal(t, "New chat", s.Title)
}

func TestClient_ListMessages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sessions/5/messages", r.URL.Path)
		_, _ = io.WriteString(w, `[
			{"id": 1, "session_id": 5, "text": "hi", "sender": "user", "timestamp": "2026-03-01T10:00:00Z"},
			{"id": 2, "session_id": 5, "text": "hello", "sender": "ai", "timestamp": "2026-03-01T10:00:01Z"}
		]`)
	})

	msgs, err := c.ListMessages(context.Background(), "5")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, message.SenderUser, msgs[0].Sender)
	assert.Equal(t, message.SenderAI, msgs[1].Sender)
	assert.Equal(t, "5", msgs[1].SessionID)
	assert.False(t, msgs[0].Pending)
}

func TestClient_SendMessage(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	out := message.Message{ID: "local-1", SessionID: "5", Text: "I feel anxious", Sender: message.SenderUser, Timestamp: ts, Pending: true}

	t.Run("bare reply", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/messages", r.URL.Path)
			var raw map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
			assert.Equal(t, "I feel anxious", raw["text"])
			assert.Equal(t, "user", raw["sender"])
			assert.InDelta(t, 5, raw["session_id"], 0, "numeric session ids go out as numbers")
			assert.Equal(t, "2026-03-01T10:00:00.000Z", raw["timestamp"])
			_, _ = io.WriteString(w, `{"id": 99, "session_id": 5, "text": "That sounds hard.", "sender": "ai", "timestamp": "2026-03-01T10:00:02Z"}`)
		})

		res, err := c.SendMessage(context.Background(), out)
		require.NoError(t, err)
		assert.Nil(t, res.UserEcho)
		assert.Equal(t, "99", res.Reply.ID)
		assert.Equal(t, message.SenderAI, res.Reply.Sender)
	})

	t.Run("envelope with echo", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{
				"user_message": {"id": 98, "session_id": 5, "text": "I feel anxious", "sender": "user", "timestamp": "2026-03-01T10:00:00Z"},
				"ai_message": {"id": 99, "session_id": 5, "text": "That sounds hard.", "sender": "ai", "timestamp": "2026-03-01T10:00:02Z"}
			}`)
		})

		res, err := c.SendMessage(context.Background(), out)
		require.NoError(t, err)
		require.NotNil(t, res.UserEcho)
		assert.Equal(t, "98", res.UserEcho.ID)
		assert.Equal(t, "99", res.Reply.ID)
	})
}

func TestClient_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"detail":"boom"}`, http.StatusInternalServerError)
	})

	_, err := c.SendMessage(context.Background(), message.Message{Text: "x", SessionID: "1"})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Contains(t, se.Body, "boom")
	assert.True(t, se.Temporary())
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url, auth.NewStaticProvider("tok"))
	require.NoError(t, err)

	_, err = c.ListSessions(context.Background())
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.MethodGet, te.Method)
}

func TestClient_NoCredentialMakesNoRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(srv.Close)

	hub := pubsub.NewHub()
	t.Cleanup(hub.Shutdown)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	authEvents := hub.Auth.Subscribe(ctx)

	c, err := New(srv.URL, auth.NewStaticProvider(""), WithHub(hub))
	require.NoError(t, err)

	_, err = c.ListSessions(context.Background())
	require.ErrorIs(t, err, auth.ErrNoCredential)
	assert.Zero(t, hits.Load())

	select {
	case ev := <-authEvents:
		assert.Equal(t, events.AuthEventTokenMissing, ev.Payload.Type)
	case <-time.After(time.Second):
		t.Fatal("no auth event published")
	}
}

func TestClient_ExpiredTokenMakesNoRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(srv.Close)

	tok, err := auth.NewJWTVerifier([]byte("k")).Generate("u1", "", -time.Minute)
	require.NoError(t, err)

	c, err := New(srv.URL, auth.NewStaticProvider(tok))
	require.NoError(t, err)

	_, err = c.CreateSession(context.Background(), "t")
	require.ErrorIs(t, err, auth.ErrExpiredToken)
	require.ErrorIs(t, err, auth.ErrNoCredential)
	assert.Zero(t, hits.Load())
}

func TestClient_RetriesGets(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	}, WithRetry(3, time.Millisecond))

	got, err := c.ListSessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, int32(3), hits.Load())
}

func TestClient_NoRetryOnClientErrorOrPost(t *testing.T) {
	tests := []struct {
		name   string
		status int
		call   func(*Client) error
	}{
		{
			name:   "get 404",
			status: http.StatusNotFound,
			call:   func(c *Client) error { _, err := c.ListSessions(context.Background()); return err },
		},
		{
			name:   "post 503",
			status: http.StatusServiceUnavailable,
			call: func(c *Client) error {
				_, err := c.SendMessage(context.Background(), message.Message{Text: "x", SessionID: "1"})
				return err
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				hits.Add(1)
				w.WriteHeader(tt.status)
			}, WithRetry(3, time.Millisecond))

			err := tt.call(c)
			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, int32(1), hits.Load())
		})
	}
}

func TestClient_UnauthorizedPublishesRejected(t *testing.T) {
	hub := pubsub.NewHub()
	t.Cleanup(hub.Shutdown)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	authEvents := hub.Auth.Subscribe(ctx)

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, WithHub(hub))

	_, err := c.ListSessions(context.Background())
	assert.True(t, IsUnauthorized(err))

	select {
	case ev := <-authEvents:
		assert.Equal(t, events.AuthEventRejected, ev.Payload.Type)
	case <-time.After(time.Second):
		t.Fatal("no auth event published")
	}
}
