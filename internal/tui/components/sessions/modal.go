// Package sessions provides the session picker modal.
package sessions

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/guilhermegouw/unwind/internal/debug"
	"github.com/guilhermegouw/unwind/internal/session"
	"github.com/guilhermegouw/unwind/internal/tui/styles"
	"github.com/guilhermegouw/unwind/internal/tui/util"
)

// ModalStep is the current step in the modal flow.
type ModalStep int

const (
	// StepList shows the session list.
	StepList ModalStep = iota
	// StepNew asks for the title of a new session.
	StepNew
)

// Modal lets the user switch to or create a session.
type Modal struct { //nolint:govet // fieldalignment: preserving logical field order
	list    *SessionList
	search  *SearchBox
	title   *TitleInput
	hints   *HintBar
	step    ModalStep
	visible bool
	width   int
	height  int
}

// New creates a hidden modal. placeholder is shown in the new-title input.
func New(placeholder string) *Modal {
	return &Modal{
		list:   NewSessionList(),
		search: NewSearchBox(),
		title:  NewTitleInput(placeholder),
		hints:  NewHintBar(),
	}
}

// Show opens the modal on the given sessions.
func (m *Modal) Show(list []session.Session, currentID string) {
	debug.Event("sessions", "Show", fmt.Sprintf("count=%d current=%s", len(list), currentID))
	m.visible = true
	m.step = StepList
	m.search.Hide()
	m.title.Reset()
	m.list.Filter("")
	m.list.SetSessions(list, currentID)
	m.hints.SetMode(HintModeNormal)
}

// Refresh updates the listed sessions while the modal is open.
func (m *Modal) Refresh(list []session.Session, currentID string) {
	if !m.visible {
		return
	}
	m.list.SetSessions(list, currentID)
}

// Hide closes the modal.
func (m *Modal) Hide() {
	m.visible = false
	m.search.Hide()
	m.title.Reset()
}

// IsVisible returns whether the modal is open.
func (m *Modal) IsVisible() bool {
	return m.visible
}

// Step returns the current step.
func (m *Modal) Step() ModalStep {
	return m.step
}

// SetSize sets the screen size the modal is centred in.
func (m *Modal) SetSize(width, height int) {
	m.width = width
	m.height = height

	inner := m.innerWidth()
	m.list.SetSize(inner, max(3, height-14))
	m.search.SetWidth(inner)
	m.title.SetWidth(inner - 4)
	m.hints.SetWidth(inner)
}

func (m *Modal) innerWidth() int {
	return min(m.width-10, 74)
}

// Update handles messages.
func (m *Modal) Update(msg tea.Msg) (*Modal, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		return m.handleEscape()
	}

	switch m.step {
	case StepNew:
		return m.updateNew(msg)
	default:
		return m.updateList(msg)
	}
}

func (m *Modal) handleEscape() (*Modal, tea.Cmd) {
	switch {
	case m.step == StepNew:
		m.step = StepList
		m.title.Reset()
		m.hints.SetMode(HintModeNormal)
		return m, nil
	case m.search.IsVisible():
		m.search.Hide()
		m.list.Filter("")
		m.hints.SetMode(HintModeNormal)
		return m, nil
	default:
		m.Hide()
		return m, util.CmdHandler(ModalClosedMsg{})
	}
}

func (m *Modal) updateList(msg tea.Msg) (*Modal, tea.Cmd) {
	keyMsg, isKey := msg.(tea.KeyMsg)

	if m.search.IsVisible() {
		if isKey {
			switch keyMsg.String() {
			case "up", "down":
				m.list, _ = m.list.Update(msg)
				return m, nil
			case "enter":
				if selected, ok := m.list.Selected(); ok {
					m.Hide()
					return m, util.CmdHandler(SessionSelectedMsg{SessionID: selected.ID})
				}
				return m, nil
			}
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.list.Filter(m.search.Value())
		m.search.SetCounts(m.list.Counts())
		return m, cmd
	}

	if !isKey {
		return m, nil
	}

	switch keyMsg.String() {
	case "n":
		m.step = StepNew
		m.hints.SetMode(HintModeNew)
		return m, m.title.Focus()
	case "/":
		m.hints.SetMode(HintModeSearch)
		m.search.SetCounts(m.list.Counts())
		return m, m.search.Show()
	case "enter":
		if selected, ok := m.list.Selected(); ok {
			m.Hide()
			return m, util.CmdHandler(SessionSelectedMsg{SessionID: selected.ID})
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Modal) updateNew(msg tea.Msg) (*Modal, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
		title := m.title.Value()
		m.Hide()
		return m, util.CmdHandler(NewSessionMsg{Title: title})
	}
	var cmd tea.Cmd
	m.title, cmd = m.title.Update(msg)
	return m, cmd
}

// View renders the modal centred on screen.
func (m *Modal) View() string {
	if !m.visible {
		return ""
	}
	t := styles.CurrentTheme()

	var title, content string
	switch m.step {
	case StepNew:
		title = "New Session"
		content = m.title.View()
	default:
		title = "Sessions"
		content = m.list.View()
		if m.search.IsVisible() {
			content = m.search.View() + "\n\n" + content
		}
	}

	inner := m.innerWidth()
	body := lipgloss.JoinVertical(lipgloss.Left,
		t.S().Title.Width(inner).Align(lipgloss.Center).MarginBottom(1).Render(title),
		lipgloss.NewStyle().Width(inner).Render(content),
		lipgloss.NewStyle().MarginTop(1).Render(m.hints.View()),
	)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderFocus).
		Padding(1, 2).
		Render(body)

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// Cursor returns the cursor of the focused input, if any.
func (m *Modal) Cursor() *tea.Cursor {
	if !m.visible {
		return nil
	}
	if m.step == StepNew {
		return m.title.Cursor()
	}
	return m.search.Cursor()
}
