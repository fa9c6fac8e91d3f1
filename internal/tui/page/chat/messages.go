package chat

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/guilhermegouw/unwind/internal/debug"
	"github.com/guilhermegouw/unwind/internal/message"
	"github.com/guilhermegouw/unwind/internal/tui/styles"
	"github.com/guilhermegouw/unwind/internal/tui/util"
)

// renderCacheSize bounds how many rendered bubbles are kept.
const renderCacheSize = 256

// MessageList renders the conversation, newest at the bottom.
type MessageList struct {
	messages []message.Message
	md       *MarkdownRenderer
	cache    *util.LRU[string, string]
	width    int
	height   int
	offset   int // lines scrolled up from the bottom
}

// NewMessageList creates an empty message list.
func NewMessageList() *MessageList {
	return &MessageList{
		md:    NewMarkdownRenderer(),
		cache: util.NewLRU[string, string](renderCacheSize),
	}
}

// SetMessages replaces the displayed messages. New messages snap the view
// back to the bottom.
func (m *MessageList) SetMessages(messages []message.Message) {
	if len(messages) != len(m.messages) {
		m.offset = 0
	}
	m.messages = messages
}

// LastReply returns the newest AI message.
func (m *MessageList) LastReply() (message.Message, bool) {
	for i := len(m.messages) - 1; i >= 0; i-- {
		if !m.messages[i].IsUser() {
			return m.messages[i], true
		}
	}
	return message.Message{}, false
}

// SetSize sets the component size.
func (m *MessageList) SetSize(width, height int) {
	if width != m.width {
		m.cache.Clear()
	}
	m.width = width
	m.height = height
}

// ScrollUp moves the view n lines towards older messages.
func (m *MessageList) ScrollUp(n int) {
	m.offset += n
}

// ScrollDown moves the view n lines towards newer messages.
func (m *MessageList) ScrollDown(n int) {
	m.offset = max(0, m.offset-n)
}

// ScrollToBottom shows the newest message.
func (m *MessageList) ScrollToBottom() {
	m.offset = 0
}

// View renders the visible window of the conversation.
func (m *MessageList) View() string {
	t := styles.CurrentTheme()

	if len(m.messages) == 0 {
		empty := lipgloss.JoinVertical(lipgloss.Center,
			t.S().Text.Render("Start a conversation with your AI therapist"),
			"",
			t.S().Subtitle.Render("How are you feeling today?"),
		)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, empty)
	}

	blocks := make([]string, 0, len(m.messages))
	for _, msg := range m.messages {
		blocks = append(blocks, m.renderMessage(msg))
	}
	lines := strings.Split(strings.Join(blocks, "\n\n"), "\n")

	// Clamp so the top of the conversation stays pinned when scrolled up.
	m.offset = min(m.offset, max(0, len(lines)-m.height))
	end := len(lines) - m.offset
	start := max(0, end-m.height)
	window := lines[start:end]

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Padding(0, 1).
		Render(strings.Join(window, "\n"))
}

func (m *MessageList) renderMessage(msg message.Message) string {
	// Pending messages change identity on confirmation, so they are never cached.
	key := msg.ID
	if !msg.Pending {
		if out, ok := m.cache.Get(key); ok {
			return out
		}
	}

	var out string
	if msg.IsUser() {
		out = m.renderUserMessage(msg)
	} else {
		out = m.renderReply(msg)
	}
	if !msg.Pending {
		m.cache.Put(key, out)
	}
	return out
}

func (m *MessageList) bubbleWidth() int {
	return max(20, (m.width-2)*4/5)
}

func (m *MessageList) renderUserMessage(msg message.Message) string {
	t := styles.CurrentTheme()
	inner := m.width - 2

	meta := t.S().Subtle.Render(msg.Timestamp.Local().Format("15:04")) + " " + t.S().Text.Bold(true).Render("You")
	border := t.Primary
	if msg.Pending {
		meta = t.S().Subtle.Render("sending…") + " " + t.S().Muted.Bold(true).Render("You")
		border = t.Border
	}

	bubble := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Foreground(t.FgBase).
		Padding(0, 1).
		Width(min(lipgloss.Width(msg.Text)+4, m.bubbleWidth())).
		Render(msg.Text)

	right := lipgloss.NewStyle().Width(inner).Align(lipgloss.Right)
	return lipgloss.JoinVertical(lipgloss.Right, right.Render(meta), right.Render(bubble))
}

func (m *MessageList) renderReply(msg message.Message) string {
	t := styles.CurrentTheme()

	meta := t.S().Primary.Bold(true).Render("UnwindAI") + " " + t.S().Subtle.Render(msg.Timestamp.Local().Format("15:04"))

	body, err := m.md.Render(msg.Text, m.bubbleWidth()-4)
	if err != nil {
		debug.Error("chat", err, "rendering reply markdown")
		body = msg.Text
	}
	bubble := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Tertiary).
		Padding(0, 1).
		Render(body)

	return lipgloss.JoinVertical(lipgloss.Left, meta, bubble)
}
