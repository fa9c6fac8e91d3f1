package chat

import (
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/guilhermegouw/unwind/internal/tui/styles"
)

// Bouncing dots.
var typingFrames = []string{"●∙∙", "∙●∙", "∙∙●", "∙●∙"}

const typingInterval = 150 * time.Millisecond

// TypingTickMsg advances the typing animation. Ticks from a previous
// activation carry an old ID and are ignored.
type TypingTickMsg struct {
	ID int
}

// TypingIndicator shows that a reply is on its way.
type TypingIndicator struct {
	frame  int
	id     int
	active bool
	width  int
}

// NewTypingIndicator creates an idle indicator.
func NewTypingIndicator() *TypingIndicator {
	return &TypingIndicator{}
}

// SetActive starts or stops the animation.
func (a *TypingIndicator) SetActive(active bool) tea.Cmd {
	if active == a.active {
		return nil
	}
	a.active = active
	a.frame = 0
	a.id++
	if active {
		return a.tick()
	}
	return nil
}

// IsActive reports whether the indicator is shown.
func (a *TypingIndicator) IsActive() bool {
	return a.active
}

// Height returns 1 while active and 0 otherwise.
func (a *TypingIndicator) Height() int {
	if a.active {
		return 1
	}
	return 0
}

// SetWidth sets the indicator width.
func (a *TypingIndicator) SetWidth(width int) {
	a.width = width
}

// Update advances the animation.
func (a *TypingIndicator) Update(msg tea.Msg) (*TypingIndicator, tea.Cmd) {
	if tick, ok := msg.(TypingTickMsg); ok && a.active && tick.ID == a.id {
		a.frame = (a.frame + 1) % len(typingFrames)
		return a, a.tick()
	}
	return a, nil
}

func (a *TypingIndicator) tick() tea.Cmd {
	id := a.id
	return tea.Tick(typingInterval, func(time.Time) tea.Msg {
		return TypingTickMsg{ID: id}
	})
}

// View renders the indicator.
func (a *TypingIndicator) View() string {
	if !a.active {
		return ""
	}
	t := styles.CurrentTheme()
	line := t.S().Muted.Render("UnwindAI is typing ") + t.S().Primary.Render(typingFrames[a.frame])
	return lipgloss.NewStyle().Padding(0, 1).Width(a.width).Render(line)
}
