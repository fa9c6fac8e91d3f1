package chat

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/muesli/termenv"

	"github.com/guilhermegouw/unwind/internal/tui/styles"
)

// MarkdownRenderer renders replies, caching the glamour renderer per width.
type MarkdownRenderer struct {
	renderer    *glamour.TermRenderer
	cachedWidth int
	mu          sync.RWMutex
}

// NewMarkdownRenderer creates a new markdown renderer.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{}
}

// Render renders markdown for the terminal. On error the plain text is
// returned along with the error.
func (m *MarkdownRenderer) Render(content string, width int) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", nil
	}

	renderer, err := m.getRenderer(width)
	if err != nil {
		return content, err
	}

	rendered, err := renderer.Render(content)
	if err != nil {
		return content, err
	}
	return strings.Trim(rendered, "\n"), nil
}

func (m *MarkdownRenderer) getRenderer(width int) (*glamour.TermRenderer, error) {
	m.mu.RLock()
	if m.renderer != nil && m.cachedWidth == width {
		defer m.mu.RUnlock()
		return m.renderer, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.renderer != nil && m.cachedWidth == width {
		return m.renderer, nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStyles(replyStyle()),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
		glamour.WithColorProfile(termenv.TrueColor),
	)
	if err != nil {
		return nil, err
	}

	m.renderer = renderer
	m.cachedWidth = width
	return renderer, nil
}

// replyStyle is glamour's dark style recoloured to the theme. Replies are
// prose, so document margins are removed and headings lose their # marks.
func replyStyle() ansi.StyleConfig {
	t := styles.CurrentTheme()
	style := glamourstyles.DarkStyleConfig

	base := styles.Hex(t.FgBase)
	primary := styles.Hex(t.Primary)
	secondary := styles.Hex(t.Secondary)
	accent := styles.Hex(t.Accent)
	muted := styles.Hex(t.FgMuted)
	subtle := styles.Hex(t.FgSubtle)

	var zero uint
	style.Document.Margin = &zero
	style.Document.Color = &base

	style.H1.Color = &accent
	style.H1.Bold = boolPtr(true)
	style.H1.BackgroundColor = nil
	style.H1.Prefix = ""
	style.H1.Suffix = ""
	style.H2.Color = &primary
	style.H2.Prefix = ""
	style.H3.Color = &secondary
	style.H3.Prefix = ""
	style.H4.Prefix = ""
	style.H5.Prefix = ""
	style.H6.Prefix = ""

	style.Code.Color = &secondary
	style.Link.Color = &primary
	style.LinkText.Color = &primary

	style.Item.BlockPrefix = "• "
	style.BlockQuote.Color = &muted
	style.BlockQuote.Italic = boolPtr(true)
	style.Emph.Italic = boolPtr(true)
	style.Strong.Bold = boolPtr(true)
	style.Strong.Color = &accent
	style.HorizontalRule.Color = &subtle

	return style
}

func boolPtr(b bool) *bool { return &b }
