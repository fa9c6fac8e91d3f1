package events

import "time"

// AuthEventType represents auth-specific event types.
type AuthEventType string

// Auth event type constants.
//
//nolint:gosec // G101 false positive - these are event type names, not credentials
const (
	AuthEventTokenMissing  AuthEventType = "token_missing"
	AuthEventTokenExpiring AuthEventType = "token_expiring"
	AuthEventTokenExpired  AuthEventType = "token_expired"
	AuthEventRejected      AuthEventType = "rejected"
)

// AuthEvent represents an authentication event.
type AuthEvent struct { //nolint:govet // fieldalignment: preserving logical field order
	Source    string
	Type      AuthEventType
	Timestamp time.Time

	// Optional fields
	ExpiresAt time.Time // For TokenExpiring, TokenExpired
	Error     error     // For TokenMissing, Rejected
}

// NewTokenMissingEvent creates an event for a credential lookup that found nothing usable.
func NewTokenMissingEvent(source string, err error) AuthEvent {
	return AuthEvent{
		Source:    source,
		Type:      AuthEventTokenMissing,
		Error:     err,
		Timestamp: time.Now(),
	}
}

// NewTokenExpiringEvent creates a token expiring warning event.
func NewTokenExpiringEvent(source string, expiresAt time.Time) AuthEvent {
	return AuthEvent{
		Source:    source,
		Type:      AuthEventTokenExpiring,
		ExpiresAt: expiresAt,
		Timestamp: time.Now(),
	}
}

// NewTokenExpiredEvent creates a token expired event.
func NewTokenExpiredEvent(source string, expiresAt time.Time) AuthEvent {
	return AuthEvent{
		Source:    source,
		Type:      AuthEventTokenExpired,
		ExpiresAt: expiresAt,
		Timestamp: time.Now(),
	}
}

// NewRejectedEvent creates an event for a request the backend refused with 401 or 403.
func NewRejectedEvent(source string, err error) AuthEvent {
	return AuthEvent{
		Source:    source,
		Type:      AuthEventRejected,
		Error:     err,
		Timestamp: time.Now(),
	}
}
