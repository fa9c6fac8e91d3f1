package chat

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/guilhermegouw/unwind/internal/tui/styles"
)

// inputHeight is the text row plus the top and bottom border.
const inputHeight = 3

// Input is the message input.
type Input struct {
	textInput textinput.Model
	width     int
}

// NewInput creates a focused input.
func NewInput() *Input {
	ti := textinput.New()
	ti.Placeholder = "Message UnwindAI..."
	ti.Prompt = "› "
	ti.CharLimit = 4096
	ti.SetStyles(styles.CurrentTheme().S().TextInput)
	ti.Focus()

	return &Input{textInput: ti}
}

// Init starts the cursor blink.
func (i *Input) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input events.
func (i *Input) Update(msg tea.Msg) (*Input, tea.Cmd) {
	var cmd tea.Cmd
	i.textInput, cmd = i.textInput.Update(msg)
	return i, cmd
}

// View renders the input box.
func (i *Input) View() string {
	t := styles.CurrentTheme()

	border := t.BorderFocus
	if !i.textInput.Focused() {
		border = t.Border
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(i.width - 2).
		Render(i.textInput.View())
}

// Height returns the rendered height.
func (i *Input) Height() int {
	return inputHeight
}

// SetWidth sets the input width.
func (i *Input) SetWidth(width int) {
	i.width = width
	i.textInput.SetWidth(max(10, width-8))
}

// Value returns the current text.
func (i *Input) Value() string {
	return i.textInput.Value()
}

// SetValue replaces the text and moves the cursor to the end.
func (i *Input) SetValue(value string) {
	i.textInput.SetValue(value)
	i.textInput.CursorEnd()
}

// Clear empties the input.
func (i *Input) Clear() {
	i.textInput.SetValue("")
}

// Focus focuses the input.
func (i *Input) Focus() tea.Cmd {
	return i.textInput.Focus()
}

// Blur removes focus.
func (i *Input) Blur() {
	i.textInput.Blur()
}

// Cursor returns the cursor relative to the input box.
func (i *Input) Cursor() *tea.Cursor {
	c := i.textInput.Cursor()
	if c == nil {
		return nil
	}
	// Border and padding.
	c.X += 2
	c.Y++
	return c
}
