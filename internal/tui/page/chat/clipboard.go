package chat

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"

	"github.com/guilhermegouw/unwind/internal/debug"
)

// CopiedMsg reports a successful clipboard write.
type CopiedMsg struct {
	Chars int
}

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

func copyToClipboard(text string) tea.Cmd {
	return func() tea.Msg {
		if err := writeClipboard(text); err != nil {
			debug.Error("chat", err, "writing clipboard")
			return copyFailedMsg{err: fmt.Errorf("copying to clipboard: %w", err)}
		}
		return CopiedMsg{Chars: len([]rune(text))}
	}
}

type copyFailedMsg struct {
	err error
}
