package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/guilhermegouw/unwind/internal/message"
	"github.com/guilhermegouw/unwind/internal/session"
)

// FlexID is an identifier the backend may encode as a JSON number or string.
// It is always held as a string.
type FlexID string

// UnmarshalJSON accepts numbers, strings and null.
func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("id must be a number or string: %w", err)
		}
		*f = FlexID(n.String())
	}
	return nil
}

// MarshalJSON writes purely numeric ids as numbers so integer-keyed backends
// accept them, and everything else as a string.
func (f FlexID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(f), 10, 64); err == nil {
		return []byte(f), nil
	}
	return json.Marshal(string(f))
}

// timeLayouts are tried in order when decoding timestamps. The last two cover
// servers that emit ISO-8601 without a zone.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// FlexTime decodes the timestamp formats seen from backends.
type FlexTime struct {
	time.Time
}

// UnmarshalJSON accepts RFC 3339, zone-less ISO-8601, and null.
func (t *FlexTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// MarshalJSON writes RFC 3339 in UTC with milliseconds.
func (t FlexTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format("2006-01-02T15:04:05.000Z07:00"))
}

// SessionDTO is the wire form of a session.
type SessionDTO struct {
	ID           FlexID   `json:"id"`
	UserID       FlexID   `json:"user_id"`
	Title        string   `json:"title"`
	CreatedAt    FlexTime `json:"created_at"`
	UpdatedAt    FlexTime `json:"updated_at"`
	MessageCount int      `json:"message_count"`
	LastMessage  *string  `json:"last_message"`
}

// Session converts the DTO to the domain type.
func (d SessionDTO) Session() session.Session {
	s := session.Session{
		ID:           string(d.ID),
		UserID:       string(d.UserID),
		Title:        d.Title,
		CreatedAt:    d.CreatedAt.Time,
		UpdatedAt:    d.UpdatedAt.Time,
		MessageCount: d.MessageCount,
	}
	if d.LastMessage != nil {
		s.LastMessage = *d.LastMessage
	}
	return s
}

// SessionFromDomain converts a domain session to its wire form.
func SessionFromDomain(s session.Session) SessionDTO {
	d := SessionDTO{
		ID:           FlexID(s.ID),
		UserID:       FlexID(s.UserID),
		Title:        s.Title,
		CreatedAt:    FlexTime{s.CreatedAt},
		UpdatedAt:    FlexTime{s.UpdatedAt},
		MessageCount: s.MessageCount,
	}
	if s.LastMessage != "" {
		last := s.LastMessage
		d.LastMessage = &last
	}
	return d
}

// MessageDTO is the wire form of a message.
type MessageDTO struct {
	ID        FlexID   `json:"id"`
	UserID    FlexID   `json:"user_id,omitempty"`
	SessionID FlexID   `json:"session_id"`
	Text      string   `json:"text"`
	Sender    string   `json:"sender"`
	Timestamp FlexTime `json:"timestamp"`
}

// Message converts the DTO to the domain type.
func (d MessageDTO) Message() message.Message {
	return message.Message{
		ID:        string(d.ID),
		UserID:    string(d.UserID),
		SessionID: string(d.SessionID),
		Text:      d.Text,
		Sender:    message.Sender(d.Sender),
		Timestamp: d.Timestamp.Time,
	}
}

// MessageFromDomain converts a domain message to its wire form.
func MessageFromDomain(m message.Message) MessageDTO {
	return MessageDTO{
		ID:        FlexID(m.ID),
		UserID:    FlexID(m.UserID),
		SessionID: FlexID(m.SessionID),
		Text:      m.Text,
		Sender:    string(m.Sender),
		Timestamp: FlexTime{m.Timestamp},
	}
}

// CreateSessionRequest is the body of POST /sessions.
type CreateSessionRequest struct {
	Title string `json:"title"`
}

// SendMessageRequest is the body of POST /messages.
type SendMessageRequest struct {
	Text      string   `json:"text"`
	Sender    string   `json:"sender"`
	SessionID FlexID   `json:"session_id"`
	Timestamp FlexTime `json:"timestamp"`
}

// SendEnvelope is the optional response shape of POST /messages that echoes
// the persisted user message next to the reply.
type SendEnvelope struct {
	UserMessage *MessageDTO `json:"user_message"`
	AIMessage   *MessageDTO `json:"ai_message"`
}

// decodeSendResponse accepts either a bare reply message or a SendEnvelope.
func decodeSendResponse(body []byte) (SendResult, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return SendResult{}, fmt.Errorf("decoding reply: %w", err)
	}

	if _, ok := probe["ai_message"]; ok {
		var env SendEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return SendResult{}, fmt.Errorf("decoding reply envelope: %w", err)
		}
		if env.AIMessage == nil {
			return SendResult{}, fmt.Errorf("decoding reply envelope: ai_message is null")
		}
		res := SendResult{Reply: env.AIMessage.Message()}
		if env.UserMessage != nil {
			u := env.UserMessage.Message()
			res.UserEcho = &u
		}
		return res, nil
	}

	var reply MessageDTO
	if err := json.Unmarshal(body, &reply); err != nil {
		return SendResult{}, fmt.Errorf("decoding reply: %w", err)
	}
	return SendResult{Reply: reply.Message()}, nil
}
