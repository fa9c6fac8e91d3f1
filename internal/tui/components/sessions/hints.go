package sessions

import (
	"charm.land/lipgloss/v2"

	"github.com/guilhermegouw/unwind/internal/tui/styles"
)

// HintMode selects which key hints are shown.
type HintMode int

const (
	// HintModeNormal is list browsing.
	HintModeNormal HintMode = iota
	// HintModeSearch is typing a filter.
	HintModeSearch
	// HintModeNew is entering a new session title.
	HintModeNew
)

// HintBar displays context-sensitive keyboard hints.
type HintBar struct {
	mode  HintMode
	width int
}

// NewHintBar creates a hint bar in normal mode.
func NewHintBar() *HintBar {
	return &HintBar{}
}

// SetMode sets the hint mode.
func (h *HintBar) SetMode(mode HintMode) {
	h.mode = mode
}

// SetWidth sets the bar width.
func (h *HintBar) SetWidth(width int) {
	h.width = width
}

// Text returns the hints for the current mode.
func (h *HintBar) Text() string {
	switch h.mode {
	case HintModeSearch:
		return "[enter] done  [esc] clear  [↑↓] navigate"
	case HintModeNew:
		return "[enter] create  [esc] cancel"
	default:
		return "[enter] open  [n] new  [/] filter  [esc] close"
	}
}

// View renders the bar.
func (h *HintBar) View() string {
	t := styles.CurrentTheme()
	return t.S().Muted.
		Width(h.width).
		Align(lipgloss.Center).
		Render(h.Text())
}
