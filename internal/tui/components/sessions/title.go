package sessions

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/guilhermegouw/unwind/internal/tui/styles"
)

// TitleInput collects the title of a new session.
type TitleInput struct {
	input textinput.Model
}

// NewTitleInput creates a title input.
func NewTitleInput(placeholder string) *TitleInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 100
	ti.SetStyles(styles.CurrentTheme().S().TextInput)

	return &TitleInput{input: ti}
}

// SetWidth sets the input width.
func (r *TitleInput) SetWidth(width int) {
	r.input.SetWidth(max(10, width))
}

// Value returns the entered title.
func (r *TitleInput) Value() string {
	return r.input.Value()
}

// Focus focuses the input.
func (r *TitleInput) Focus() tea.Cmd {
	return r.input.Focus()
}

// Reset clears the input.
func (r *TitleInput) Reset() {
	r.input.SetValue("")
	r.input.Blur()
}

// Update forwards input events.
func (r *TitleInput) Update(msg tea.Msg) (*TitleInput, tea.Cmd) {
	var cmd tea.Cmd
	r.input, cmd = r.input.Update(msg)
	return r, cmd
}

// View renders the labelled input.
func (r *TitleInput) View() string {
	t := styles.CurrentTheme()
	return t.S().Text.Render("Title (optional):") + "\n\n" + r.input.View()
}

// Cursor returns the input cursor.
func (r *TitleInput) Cursor() *tea.Cursor {
	return r.input.Cursor()
}
