package welcome

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func TestWelcome_View(t *testing.T) {
	w := New("no credential configured")
	w.SetSize(120, 40)

	view := w.View()
	for _, want := range []string{"UNWIND_TOKEN", "auth.token_file", "no credential configured", "Enter to retry"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestWelcome_EnterRetries(t *testing.T) {
	w := New("")

	_, cmd := w.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter returned no command")
	}
	if _, ok := cmd().(RetryMsg); !ok {
		t.Error("expected RetryMsg")
	}
}
