// Package mockapi is an in-memory stand-in for the chat backend, used for
// local development (unwind mock-server) and end-to-end tests of the client.
package mockapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/guilhermegouw/unwind/internal/auth"
	"github.com/guilhermegouw/unwind/internal/debug"
	"github.com/guilhermegouw/unwind/internal/gateway"
)

type principalKey struct{}

// Option configures a Server.
type Option func(*Server)

// WithEcho makes POST /messages return {user_message, ai_message} instead of
// the bare reply.
func WithEcho(echo bool) Option {
	return func(s *Server) {
		s.echo = echo
	}
}

// WithLatency delays every reply, so the typing indicator can be seen.
func WithLatency(d time.Duration) Option {
	return func(s *Server) {
		s.latency = d
	}
}

// WithClock overrides the server clock.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithReplier overrides how replies are produced.
func WithReplier(r Replier) Option {
	return func(s *Server) {
		s.replier = r
	}
}

type sessionRecord struct {
	dto      gateway.SessionDTO
	messages []gateway.MessageDTO
}

// Server serves the backend API from memory.
type Server struct {
	verifier *auth.JWTVerifier
	replier  Replier
	echo     bool
	latency  time.Duration
	now      func() time.Time

	mu       sync.Mutex
	nextID   int64
	sessions map[string]*sessionRecord
	order    []string
}

// NewServer creates a server that accepts tokens signed by verifier.
func NewServer(verifier *auth.JWTVerifier, opts ...Option) *Server {
	s := &Server{
		verifier: verifier,
		replier:  CannedReplier{},
		now:      time.Now,
		sessions: make(map[string]*sessionRecord),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API routes wrapped in bearer authentication.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sessions", s.handleListSessions)
	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("GET /sessions/{id}/messages", s.handleListMessages)
	mux.HandleFunc("POST /messages", s.handleSendMessage)
	return s.withAuth(withLogging(mux))
}

func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		sub, err := s.verifier.Verify(token)
		if err != nil {
			status := http.StatusUnauthorized
			if errors.Is(err, auth.ErrMissingClaim) {
				status = http.StatusForbidden
			}
			writeError(w, status, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, sub)))
	})
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		debug.Event("mockapi", r.Method, r.URL.Path+" "+time.Since(start).String())
	})
}

func principal(r *http.Request) string {
	sub, _ := r.Context().Value(principalKey{}).(string) //nolint:errcheck // Set by withAuth.
	return sub
}

func (s *Server) id() string {
	s.nextID++
	return strconv.FormatInt(s.nextID, 10)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	user := principal(r)

	s.mu.Lock()
	var out []gateway.SessionDTO
	for _, id := range s.order {
		rec := s.sessions[id]
		if string(rec.dto.UserID) == user {
			out = append(out, rec.dto)
		}
	}
	s.mu.Unlock()

	// Most recently updated first; ties keep creation order, newest first.
	slices.SortStableFunc(out, func(a, b gateway.SessionDTO) int {
		return b.UpdatedAt.Compare(a.UpdatedAt.Time)
	})
	if out == nil {
		out = []gateway.SessionDTO{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req gateway.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Untitled"
	}

	s.mu.Lock()
	now := s.now()
	dto := gateway.SessionDTO{
		ID:        gateway.FlexID(s.id()),
		UserID:    gateway.FlexID(principal(r)),
		Title:     title,
		CreatedAt: gateway.FlexTime{Time: now},
		UpdatedAt: gateway.FlexTime{Time: now},
	}
	s.sessions[string(dto.ID)] = &sessionRecord{dto: dto}
	// Newest first so equal timestamps still list recent sessions on top.
	s.order = append([]string{string(dto.ID)}, s.order...)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, dto)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	rec, ok := s.owned(r.PathValue("id"), principal(r))
	var out []gateway.MessageDTO
	if ok {
		out = slices.Clone(rec.messages)
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if out == nil {
		out = []gateway.MessageDTO{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req gateway.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusUnprocessableEntity, "text is required")
		return
	}
	if req.Sender != "" && req.Sender != "user" {
		writeError(w, http.StatusUnprocessableEntity, "sender must be user")
		return
	}
	user := principal(r)

	s.mu.Lock()
	rec, ok := s.owned(string(req.SessionID), user)
	var history []gateway.MessageDTO
	if ok {
		history = slices.Clone(rec.messages)
	}
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	if s.latency > 0 {
		select {
		case <-time.After(s.latency):
		case <-r.Context().Done():
			return
		}
	}
	replyText := s.replier.Reply(req.Text, history)

	s.mu.Lock()
	// The session cannot disappear; the map only grows.
	rec = s.sessions[string(req.SessionID)]
	now := s.now()
	ts := req.Timestamp
	if ts.IsZero() {
		ts = gateway.FlexTime{Time: now}
	}
	userMsg := gateway.MessageDTO{
		ID: gateway.FlexID(s.id()), UserID: gateway.FlexID(user), SessionID: req.SessionID,
		Text: req.Text, Sender: "user", Timestamp: ts,
	}
	aiMsg := gateway.MessageDTO{
		ID: gateway.FlexID(s.id()), UserID: gateway.FlexID(user), SessionID: req.SessionID,
		Text: replyText, Sender: "ai", Timestamp: gateway.FlexTime{Time: now},
	}
	rec.messages = append(rec.messages, userMsg, aiMsg)
	rec.dto.MessageCount = len(rec.messages)
	last := aiMsg.Text
	rec.dto.LastMessage = &last
	rec.dto.UpdatedAt = gateway.FlexTime{Time: now}
	s.mu.Unlock()

	if s.echo {
		writeJSON(w, http.StatusOK, gateway.SendEnvelope{UserMessage: &userMsg, AIMessage: &aiMsg})
		return
	}
	writeJSON(w, http.StatusOK, aiMsg)
}

// owned returns the session if it exists and belongs to user. Callers hold s.mu.
func (s *Server) owned(id, user string) (*sessionRecord, bool) {
	rec, ok := s.sessions[id]
	if !ok || string(rec.dto.UserID) != user {
		return nil, false
	}
	return rec, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		debug.Error("mockapi", err, "encoding response")
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
