package sessions

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/guilhermegouw/unwind/internal/tui/styles"
)

// SearchBox is the filter input shown above the list.
type SearchBox struct {
	input    textinput.Model
	width    int
	filtered int
	total    int
	visible  bool
}

// NewSearchBox creates a hidden search box.
func NewSearchBox() *SearchBox {
	ti := textinput.New()
	ti.Placeholder = "Filter sessions..."
	ti.Prompt = "/ "
	ti.CharLimit = 100
	ti.SetStyles(styles.CurrentTheme().S().TextInput)

	return &SearchBox{input: ti}
}

// SetWidth sets the box width.
func (s *SearchBox) SetWidth(width int) {
	s.width = width
	s.input.SetWidth(max(10, width-16))
}

// SetCounts sets the filtered and total counts.
func (s *SearchBox) SetCounts(filtered, total int) {
	s.filtered = filtered
	s.total = total
}

// Show makes the box visible and focuses it.
func (s *SearchBox) Show() tea.Cmd {
	s.visible = true
	s.input.SetValue("")
	return s.input.Focus()
}

// Hide hides the box and clears the query.
func (s *SearchBox) Hide() {
	s.visible = false
	s.input.SetValue("")
	s.input.Blur()
}

// IsVisible returns whether the box is shown.
func (s *SearchBox) IsVisible() bool {
	return s.visible
}

// Value returns the query.
func (s *SearchBox) Value() string {
	return s.input.Value()
}

// Update forwards input events.
func (s *SearchBox) Update(msg tea.Msg) (*SearchBox, tea.Cmd) {
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

// View renders the box on one line with the match count on the right.
func (s *SearchBox) View() string {
	if !s.visible {
		return ""
	}
	t := styles.CurrentTheme()

	input := s.input.View()
	count := t.S().Muted.Render(fmt.Sprintf("%d / %d", s.filtered, s.total))
	gap := max(1, s.width-lipgloss.Width(input)-lipgloss.Width(count))

	return input + strings.Repeat(" ", gap) + count
}

// Cursor returns the input cursor while visible.
func (s *SearchBox) Cursor() *tea.Cursor {
	if s.visible {
		return s.input.Cursor()
	}
	return nil
}
