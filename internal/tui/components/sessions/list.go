package sessions

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/rivo/uniseg"

	"github.com/guilhermegouw/unwind/internal/session"
	"github.com/guilhermegouw/unwind/internal/tui/styles"
	"github.com/guilhermegouw/unwind/internal/tui/util"
)

// SessionList displays sessions with keyboard navigation and filtering.
type SessionList struct { //nolint:govet // fieldalignment: preserving logical field order
	all       []session.Session
	sessions  []session.Session
	currentID string
	query     string
	cursor    int
	offset    int
	width     int
	height    int
	now       func() time.Time
}

// NewSessionList creates an empty session list.
func NewSessionList() *SessionList {
	return &SessionList{now: time.Now}
}

// SetSessions replaces the listed sessions and places the cursor on the
// current one.
func (l *SessionList) SetSessions(list []session.Session, currentID string) {
	l.all = list
	l.currentID = currentID
	l.applyFilter()

	l.cursor = 0
	for i, s := range l.sessions {
		if s.ID == currentID {
			l.cursor = i
			break
		}
	}
	l.offset = 0
	l.ensureVisible()
}

// Filter narrows the list to sessions whose title or last message contains
// the query, case-insensitively.
func (l *SessionList) Filter(query string) {
	l.query = query
	l.applyFilter()
	l.cursor = 0
	l.offset = 0
}

func (l *SessionList) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(l.query))
	if q == "" {
		l.sessions = l.all
		return
	}
	l.sessions = nil
	for _, s := range l.all {
		if strings.Contains(strings.ToLower(s.DisplayTitle()), q) ||
			strings.Contains(strings.ToLower(s.LastMessage), q) {
			l.sessions = append(l.sessions, s)
		}
	}
}

// Counts returns the filtered and total number of sessions.
func (l *SessionList) Counts() (filtered, total int) {
	return len(l.sessions), len(l.all)
}

// SetSize sets the list dimensions.
func (l *SessionList) SetSize(width, height int) {
	l.width = width
	l.height = height
}

// Selected returns the highlighted session.
func (l *SessionList) Selected() (session.Session, bool) {
	if l.cursor >= 0 && l.cursor < len(l.sessions) {
		return l.sessions[l.cursor], true
	}
	return session.Session{}, false
}

// Update handles navigation keys.
func (l *SessionList) Update(msg tea.Msg) (*SessionList, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return l, nil
	}

	switch keyMsg.String() {
	case "up", "k":
		if l.cursor > 0 {
			l.cursor--
			l.ensureVisible()
		}
	case "down", "j":
		if l.cursor < len(l.sessions)-1 {
			l.cursor++
			l.ensureVisible()
		}
	case "home", "g":
		l.cursor = 0
		l.offset = 0
	case "end", "G":
		l.cursor = max(0, len(l.sessions)-1)
		l.ensureVisible()
	case "enter":
		if selected, ok := l.Selected(); ok {
			return l, util.CmdHandler(SessionSelectedMsg{SessionID: selected.ID})
		}
	}
	return l, nil
}

func (l *SessionList) ensureVisible() {
	rows := l.visibleRows()
	if l.cursor < l.offset {
		l.offset = l.cursor
	} else if l.cursor >= l.offset+rows {
		l.offset = l.cursor - rows + 1
	}
}

// Each session takes two lines plus a blank separator.
func (l *SessionList) visibleRows() int {
	return max(1, (l.height-2)/3)
}

// View renders the list.
func (l *SessionList) View() string {
	t := styles.CurrentTheme()

	if len(l.sessions) == 0 {
		empty := t.S().Muted.
			Width(l.width).
			Align(lipgloss.Center).
			Padding(2, 0)
		if l.query != "" {
			return empty.Render("No sessions match your filter.")
		}
		return empty.Render("No sessions yet. Press [n] to start one.")
	}

	end := min(l.offset+l.visibleRows(), len(l.sessions))
	rows := make([]string, 0, end-l.offset+2)
	if l.offset > 0 {
		rows = append(rows, t.S().Muted.Render(fmt.Sprintf("  ↑ %d more above", l.offset)))
	}
	for i := l.offset; i < end; i++ {
		rows = append(rows, l.renderSession(l.sessions[i], i == l.cursor))
	}
	if remaining := len(l.sessions) - end; remaining > 0 {
		rows = append(rows, t.S().Muted.Render(fmt.Sprintf("  ↓ %d more below", remaining)))
	}
	return strings.Join(rows, "\n\n")
}

func (l *SessionList) renderSession(s session.Session, selected bool) string {
	t := styles.CurrentTheme()

	meta := fmt.Sprintf("%d msgs · %s", s.MessageCount, formatRelativeTime(s.UpdatedAt, l.now()))
	title := truncate(s.DisplayTitle(), l.width-uniseg.StringWidth(meta)-6)

	preview := s.LastMessage
	if preview == "" {
		preview = "(no messages)"
	}
	preview = truncate(preview, l.width-4)

	marker := "  "
	if s.ID == l.currentID {
		marker = "• "
	}

	if selected {
		head := t.S().Primary.Bold(true).Render(styles.Selected+" "+title) + "  " + t.S().Muted.Render(meta)
		return head + "\n" + t.S().Text.Render("  "+preview)
	}
	head := t.S().Subtle.Render(marker) + t.S().Text.Render(title) + "  " + t.S().Muted.Render(meta)
	return head + "\n" + t.S().Muted.Render("  "+preview)
}

// truncate shortens s to at most width terminal cells, counting grapheme
// clusters so emoji and combining marks are never split.
func truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if width <= 0 {
		return ""
	}
	if uniseg.StringWidth(s) <= width {
		return s
	}

	var b strings.Builder
	used := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w := g.Width()
		if used+w > width-1 {
			break
		}
		b.WriteString(g.Str())
		used += w
	}
	return b.String() + "…"
}

// formatRelativeTime formats t relative to now.
func formatRelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 min ago"
		}
		return fmt.Sprintf("%d mins ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 48*time.Hour:
		return "yesterday"
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%d days ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}
