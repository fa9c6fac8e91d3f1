package events

import (
	"errors"
	"testing"
)

func TestMessageEventTypes(t *testing.T) {
	types := []MessageEventType{
		MessageEventLoaded,
		MessageEventOptimistic,
		MessageEventConfirmed,
		MessageEventRolledBack,
	}

	seen := make(map[MessageEventType]bool)
	for _, typ := range types {
		if seen[typ] {
			t.Errorf("duplicate event type: %s", typ)
		}
		seen[typ] = true
	}
}

func TestMessageEventConstructors(t *testing.T) {
	sendErr := errors.New("status 502")

	tests := []struct {
		name      string
		event     MessageEvent
		wantType  MessageEventType
		wantID    string
		wantText  string
		wantError bool
	}{
		{
			name:     "loaded",
			event:    NewMessagesLoadedEvent("1", 4),
			wantType: MessageEventLoaded,
		},
		{
			name:     "optimistic",
			event:    NewOptimisticEvent("1", "local-1", "hello"),
			wantType: MessageEventOptimistic,
			wantID:   "local-1",
			wantText: "hello",
		},
		{
			name:     "confirmed",
			event:    NewConfirmedEvent("1", "99"),
			wantType: MessageEventConfirmed,
			wantID:   "99",
		},
		{
			name:      "rolled back",
			event:     NewRolledBackEvent("1", "local-1", "hello", sendErr),
			wantType:  MessageEventRolledBack,
			wantID:    "local-1",
			wantText:  "hello",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.event.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", tt.event.Type, tt.wantType)
			}
			if tt.event.SessionID != "1" {
				t.Errorf("SessionID = %q, want %q", tt.event.SessionID, "1")
			}
			if tt.event.MessageID != tt.wantID {
				t.Errorf("MessageID = %q, want %q", tt.event.MessageID, tt.wantID)
			}
			if tt.event.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", tt.event.Text, tt.wantText)
			}
			if (tt.event.Error != nil) != tt.wantError {
				t.Errorf("Error = %v, wantError %v", tt.event.Error, tt.wantError)
			}
			if tt.event.Timestamp.IsZero() {
				t.Error("Timestamp should be set")
			}
		})
	}

	if got := NewMessagesLoadedEvent("1", 4).Count; got != 4 {
		t.Errorf("Count = %d, want 4", got)
	}
}
