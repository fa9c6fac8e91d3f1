package events

import "time"

// MessageEventType represents transitions of the message list.
type MessageEventType string

// Message event type constants. Optimistic, Confirmed and RolledBack are the
// observable steps of a single send.
const (
	MessageEventLoaded     MessageEventType = "loaded"
	MessageEventOptimistic MessageEventType = "optimistic"
	MessageEventConfirmed  MessageEventType = "confirmed"
	MessageEventRolledBack MessageEventType = "rolled_back"
)

// MessageEvent represents a change to the message list of a session.
type MessageEvent struct { //nolint:govet // fieldalignment: preserving logical field order
	SessionID string
	MessageID string
	Type      MessageEventType
	Timestamp time.Time

	// Optional fields
	Count int    // For Loaded
	Text  string // For Optimistic, RolledBack
	Error error  // For RolledBack
}

// NewMessagesLoadedEvent reports that the history of a session was loaded.
func NewMessagesLoadedEvent(sessionID string, count int) MessageEvent {
	return MessageEvent{
		SessionID: sessionID,
		Type:      MessageEventLoaded,
		Count:     count,
		Timestamp: time.Now(),
	}
}

// NewOptimisticEvent reports that an unconfirmed user message was appended.
func NewOptimisticEvent(sessionID, messageID, text string) MessageEvent {
	return MessageEvent{
		SessionID: sessionID,
		MessageID: messageID,
		Type:      MessageEventOptimistic,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewConfirmedEvent reports that an optimistic message was replaced by
// the confirmed exchange. MessageID is the id of the reply.
func NewConfirmedEvent(sessionID, replyID string) MessageEvent {
	return MessageEvent{
		SessionID: sessionID,
		MessageID: replyID,
		Type:      MessageEventConfirmed,
		Timestamp: time.Now(),
	}
}

// NewRolledBackEvent reports that an optimistic message was removed after a failed send.
func NewRolledBackEvent(sessionID, messageID, text string, err error) MessageEvent {
	return MessageEvent{
		SessionID: sessionID,
		MessageID: messageID,
		Type:      MessageEventRolledBack,
		Text:      text,
		Error:     err,
		Timestamp: time.Now(),
	}
}
