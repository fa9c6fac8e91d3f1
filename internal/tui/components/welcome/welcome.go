// Package welcome provides the screen shown when no credential is configured.
package welcome

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/guilhermegouw/unwind/internal/tui/components/logo"
	"github.com/guilhermegouw/unwind/internal/tui/styles"
	"github.com/guilhermegouw/unwind/internal/tui/util"
)

// RetryMsg asks the parent to check the credential again.
type RetryMsg struct{}

// Welcome explains how to sign in.
type Welcome struct {
	reason string
	width  int
	height int
}

// New creates a welcome screen. reason is the credential error, if any.
func New(reason string) *Welcome {
	return &Welcome{reason: reason}
}

// SetReason updates the credential error shown.
func (w *Welcome) SetReason(reason string) {
	w.reason = reason
}

// Init initializes the welcome screen.
func (w *Welcome) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (w *Welcome) Update(msg tea.Msg) (util.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter", " ":
			return w, util.CmdHandler(RetryMsg{})
		case "q", "ctrl+c":
			return w, tea.Quit
		}
	}
	return w, nil
}

// View renders the welcome screen.
func (w *Welcome) View() string {
	t := styles.CurrentTheme()

	lines := []string{
		t.S().Text.Render("A quiet place to talk things through."),
		"",
		t.S().Subtitle.Render("Sign in to continue."),
		"",
		t.S().Muted.Render("Export an access token:    UNWIND_TOKEN=<token> unwind"),
		t.S().Muted.Render("or point at a token file:  unwind config set auth.token_file ~/.unwind-token"),
	}
	if w.reason != "" {
		lines = append(lines, "", t.S().Warning.Render(w.reason))
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		logo.RenderFor(w.width),
		"",
		"",
		lipgloss.JoinVertical(lipgloss.Center, lines...),
		"",
		"",
		t.S().Muted.Render("Press Enter to retry • q to quit"),
	)

	return lipgloss.Place(w.width, w.height, lipgloss.Center, lipgloss.Center, content)
}

// SetSize sets the screen size.
func (w *Welcome) SetSize(width, height int) {
	w.width = width
	w.height = height
}
