// Package gateway is the HTTP client for the chat backend.
//
// It covers four endpoints: list sessions, create session, list a session's
// messages, and send a message (which returns the AI reply). Every request
// carries the bearer token from an auth.Provider; without one no request is
// made.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/guilhermegouw/unwind/internal/auth"
	"github.com/guilhermegouw/unwind/internal/debug"
	"github.com/guilhermegouw/unwind/internal/events"
	"github.com/guilhermegouw/unwind/internal/message"
	"github.com/guilhermegouw/unwind/internal/pubsub"
	"github.com/guilhermegouw/unwind/internal/session"
)

const (
	// DefaultTimeout bounds a single request. The send call includes model
	// generation on the server, so it is generous.
	DefaultTimeout = 60 * time.Second

	// ExpiryWarning is how close to exp a token must be before an
	// expiring event is published.
	ExpiryWarning = 5 * time.Minute

	maxErrorBody = 512
)

// SendResult is the outcome of a successful send.
// UserEcho is set only when the backend returned the persisted user message.
type SendResult struct {
	UserEcho *message.Message
	Reply    message.Message
}

// Backend is the set of calls the sync controller makes.
type Backend interface {
	ListSessions(ctx context.Context) ([]session.Session, error)
	CreateSession(ctx context.Context, title string) (session.Session, error)
	ListMessages(ctx context.Context, sessionID string) ([]message.Message, error)
	SendMessage(ctx context.Context, msg message.Message) (SendResult, error)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithHub publishes credential events to the hub's auth broker.
func WithHub(hub *pubsub.Hub) Option {
	return func(c *Client) {
		c.hub = hub
	}
}

// WithRetry retries idempotent GETs up to attempts extra times with
// exponential backoff starting at base. Sends are never retried.
func WithRetry(attempts uint64, base time.Duration) Option {
	return func(c *Client) {
		c.retryAttempts = attempts
		c.retryBase = base
	}
}

// WithClock overrides the clock used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// Client talks to the backend over HTTP.
type Client struct {
	baseURL       *url.URL
	http          *http.Client
	creds         auth.Provider
	hub           *pubsub.Hub
	retryAttempts uint64
	retryBase     time.Duration
	now           func() time.Time

	warnedExpiry atomic.Bool
}

var _ Backend = (*Client)(nil)

// New creates a client for the backend at baseURL.
func New(baseURL string, creds auth.Provider, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL must be http or https, got %q", baseURL)
	}

	c := &Client{
		baseURL:   u,
		http:      &http.Client{Timeout: DefaultTimeout},
		creds:     creds,
		retryBase: 200 * time.Millisecond,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ListSessions fetches the user's sessions, most recent first.
func (c *Client) ListSessions(ctx context.Context) ([]session.Session, error) {
	var dtos []SessionDTO
	if err := c.get(ctx, "/sessions", &dtos); err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	out := make([]session.Session, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.Session())
	}
	return out, nil
}

// CreateSession creates a session with the given title.
func (c *Client) CreateSession(ctx context.Context, title string) (session.Session, error) {
	body, err := c.do(ctx, http.MethodPost, "/sessions", CreateSessionRequest{Title: title})
	if err != nil {
		return session.Session{}, fmt.Errorf("creating session: %w", err)
	}
	var dto SessionDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return session.Session{}, fmt.Errorf("creating session: decoding response: %w", err)
	}
	if dto.ID == "" {
		return session.Session{}, errors.New("creating session: response has no id")
	}
	return dto.Session(), nil
}

// ListMessages fetches a session's messages in chronological order.
func (c *Client) ListMessages(ctx context.Context, sessionID string) ([]message.Message, error) {
	var dtos []MessageDTO
	path := "/sessions/" + url.PathEscape(sessionID) + "/messages"
	if err := c.get(ctx, path, &dtos); err != nil {
		return nil, fmt.Errorf("listing messages of session %s: %w", sessionID, err)
	}
	out := make([]message.Message, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.Message())
	}
	return out, nil
}

// SendMessage posts the user's message and returns the AI reply.
func (c *Client) SendMessage(ctx context.Context, msg message.Message) (SendResult, error) {
	req := SendMessageRequest{
		Text:      msg.Text,
		Sender:    string(msg.Sender),
		SessionID: FlexID(msg.SessionID),
		Timestamp: FlexTime{msg.Timestamp},
	}
	body, err := c.do(ctx, http.MethodPost, "/messages", req)
	if err != nil {
		return SendResult{}, fmt.Errorf("sending message: %w", err)
	}
	res, err := decodeSendResponse(body)
	if err != nil {
		return SendResult{}, fmt.Errorf("sending message: %w", err)
	}
	return res, nil
}

// get performs a GET with optional retries and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	var body []byte
	var err error
	if c.retryAttempts == 0 {
		body, err = c.do(ctx, http.MethodGet, path, nil)
	} else {
		backoff := retry.WithMaxRetries(c.retryAttempts, retry.NewExponential(c.retryBase))
		err = retry.Do(ctx, backoff, func(ctx context.Context) error {
			b, err := c.do(ctx, http.MethodGet, path, nil)
			if err != nil {
				if retryable(err) {
					debug.Event("gateway", "Retry", path+": "+err.Error())
					return retry.RetryableError(err)
				}
				return err
			}
			body = b
			return nil
		})
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func retryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	var se *StatusError
	return errors.As(err, &se) && se.Temporary()
}

// do sends one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		debug.Error("gateway", err, method+" "+path)
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // Body close error is not actionable.

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: fmt.Errorf("reading body: %w", err)}
	}
	debug.Event("gateway", method, fmt.Sprintf("%s -> %d (%s)", path, resp.StatusCode, c.now().Sub(start).Round(time.Millisecond)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: snippet(body)}
		if se.Unauthorized() {
			c.publishAuth(pubsub.EventFailed, events.NewRejectedEvent(c.creds.Source(), se))
		}
		return nil, se
	}
	return body, nil
}

// token fetches the credential and refuses tokens that are known to be expired.
// Opaque (non-JWT) tokens are passed through unchecked.
func (c *Client) token(ctx context.Context) (string, error) {
	if c.creds == nil {
		c.publishAuth(pubsub.EventFailed, events.NewTokenMissingEvent("", auth.ErrNoCredential))
		return "", auth.ErrNoCredential
	}
	tok, err := c.creds.Token(ctx)
	if err != nil {
		c.publishAuth(pubsub.EventFailed, events.NewTokenMissingEvent(c.creds.Source(), err))
		return "", err
	}

	id, err := auth.ParseClaims(tok)
	if err != nil {
		return tok, nil //nolint:nilerr // Opaque tokens are valid credentials.
	}
	now := c.now()
	if id.Expired(now) {
		debug.Auth("expired", "source="+c.creds.Source()+" exp="+id.ExpiresAt.Format(time.RFC3339))
		c.publishAuth(pubsub.EventFailed, events.NewTokenExpiredEvent(c.creds.Source(), id.ExpiresAt))
		return "", auth.ErrExpiredToken
	}
	if !id.ExpiresAt.IsZero() && id.ExpiresAt.Sub(now) < ExpiryWarning && c.warnedExpiry.CompareAndSwap(false, true) {
		c.publishAuth(pubsub.EventUpdated, events.NewTokenExpiringEvent(c.creds.Source(), id.ExpiresAt))
	}
	return tok, nil
}

func (c *Client) publishAuth(t pubsub.EventType, ev events.AuthEvent) {
	if c.hub == nil {
		return
	}
	c.hub.Auth.Publish(t, ev)
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}
