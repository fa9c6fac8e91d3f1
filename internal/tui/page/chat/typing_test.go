package chat

import (
	"strings"
	"testing"
)

func TestTypingIndicator_Lifecycle(t *testing.T) {
	a := NewTypingIndicator()
	a.SetWidth(60)

	if a.IsActive() || a.Height() != 0 || a.View() != "" {
		t.Fatal("indicator should start hidden")
	}

	if cmd := a.SetActive(true); cmd == nil {
		t.Fatal("activating should schedule a tick")
	}
	if a.SetActive(true) != nil {
		t.Error("re-activating should not start a second tick loop")
	}
	if a.Height() != 1 {
		t.Errorf("Height() = %d, want 1", a.Height())
	}
	if !strings.Contains(stripANSI(a.View()), "UnwindAI is typing") {
		t.Errorf("View() = %q", stripANSI(a.View()))
	}

	a.SetActive(false)
	if a.View() != "" {
		t.Error("indicator visible after deactivation")
	}
}

func TestTypingIndicator_IgnoresStaleTicks(t *testing.T) {
	a := NewTypingIndicator()
	a.SetActive(true)
	stale := TypingTickMsg{ID: a.id}
	a.SetActive(false)
	a.SetActive(true)

	if _, cmd := a.Update(stale); cmd != nil {
		t.Error("stale tick rescheduled")
	}
	if a.frame != 0 {
		t.Errorf("frame = %d, want 0", a.frame)
	}

	_, cmd := a.Update(TypingTickMsg{ID: a.id})
	if cmd == nil || a.frame != 1 {
		t.Errorf("current tick: cmd=%v frame=%d", cmd, a.frame)
	}
}
