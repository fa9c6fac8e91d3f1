package chat

import (
	"charm.land/lipgloss/v2"

	"github.com/guilhermegouw/unwind/internal/tui/styles"
)

// Status is the chat status shown on the left of the bar.
type Status int

// Status values.
const (
	StatusReady Status = iota
	StatusSending
	StatusLoading
	StatusNotice
	StatusWarning
	StatusError
)

const statusHelp = "enter send · ^s sessions · ^n new · ^r recall · ^y copy · ^c quit"

// StatusBar displays the chat status and key hints.
type StatusBar struct {
	status  Status
	message string
	width   int
}

// NewStatusBar creates a status bar in the ready state.
func NewStatusBar() *StatusBar {
	return &StatusBar{}
}

// SetStatus sets the status and clears any message.
func (s *StatusBar) SetStatus(status Status) {
	s.status = status
	s.message = ""
}

// SetError shows an error banner.
func (s *StatusBar) SetError(msg string) {
	s.status = StatusError
	s.message = msg
}

// SetWarning shows a warning.
func (s *StatusBar) SetWarning(msg string) {
	s.status = StatusWarning
	s.message = msg
}

// SetNotice shows an informational message.
func (s *StatusBar) SetNotice(msg string) {
	s.status = StatusNotice
	s.message = msg
}

// Status returns the current status.
func (s *StatusBar) Status() Status {
	return s.status
}

// Message returns the current message, if any.
func (s *StatusBar) Message() string {
	return s.message
}

// SetWidth sets the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.width = width
}

// View renders the status bar.
func (s *StatusBar) View() string {
	t := styles.CurrentTheme()

	var text string
	var style lipgloss.Style
	switch s.status {
	case StatusSending:
		text, style = "Sending…", t.S().Info
	case StatusLoading:
		text, style = "Loading…", t.S().Info
	case StatusNotice:
		text, style = s.message, t.S().Success
	case StatusWarning:
		text, style = s.message, t.S().Warning
	case StatusError:
		text, style = "Error: "+s.message, t.S().Error
	default:
		text, style = "Ready", t.S().Success
	}

	help := t.S().Muted.Render(statusHelp)
	maxLeft := max(10, s.width-lipgloss.Width(help)-4)
	left := style.MaxWidth(maxLeft).Render(text)
	if lipgloss.Width(left)+lipgloss.Width(help)+4 > s.width {
		help = ""
	}
	gap := max(1, s.width-lipgloss.Width(left)-lipgloss.Width(help)-2)

	return lipgloss.NewStyle().
		Width(s.width).
		Padding(0, 1).
		Background(t.BgSubtle).
		Render(left + lipgloss.NewStyle().Width(gap).Render("") + help)
}
