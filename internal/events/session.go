// Package events defines domain-specific event types for the pub/sub system.
package events

import "time"

// SessionEventType represents session-specific event types.
type SessionEventType string

// Session event type constants.
const (
	SessionEventCreated       SessionEventType = "created"
	SessionEventSwitched      SessionEventType = "switched"
	SessionEventListRefreshed SessionEventType = "list_refreshed"
	SessionEventFetchFailed   SessionEventType = "fetch_failed"
)

// SessionEvent represents a change to the session list or the current selection.
type SessionEvent struct { //nolint:govet // fieldalignment: preserving logical field order
	SessionID string
	Title     string
	Type      SessionEventType
	Timestamp time.Time

	// Optional fields
	Count int   // For ListRefreshed
	Error error // For FetchFailed
}

// NewSessionCreatedEvent creates a session created event.
func NewSessionCreatedEvent(id, title string) SessionEvent {
	return SessionEvent{
		SessionID: id,
		Title:     title,
		Type:      SessionEventCreated,
		Timestamp: time.Now(),
	}
}

// NewSessionSwitchedEvent creates a session switched event.
func NewSessionSwitchedEvent(id, title string) SessionEvent {
	return SessionEvent{
		SessionID: id,
		Title:     title,
		Type:      SessionEventSwitched,
		Timestamp: time.Now(),
	}
}

// NewSessionListRefreshedEvent reports that the session list was replaced.
func NewSessionListRefreshedEvent(count int) SessionEvent {
	return SessionEvent{
		Type:      SessionEventListRefreshed,
		Count:     count,
		Timestamp: time.Now(),
	}
}

// NewSessionFetchFailedEvent reports a failed list, create or history fetch.
func NewSessionFetchFailedEvent(id string, err error) SessionEvent {
	return SessionEvent{
		SessionID: id,
		Type:      SessionEventFetchFailed,
		Error:     err,
		Timestamp: time.Now(),
	}
}
