// Package chat provides the conversation page.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/guilhermegouw/unwind/internal/auth"
	"github.com/guilhermegouw/unwind/internal/bridge"
	"github.com/guilhermegouw/unwind/internal/chatsync"
	"github.com/guilhermegouw/unwind/internal/debug"
	"github.com/guilhermegouw/unwind/internal/events"
	"github.com/guilhermegouw/unwind/internal/pubsub"
	"github.com/guilhermegouw/unwind/internal/tui/components/sessions"
	"github.com/guilhermegouw/unwind/internal/tui/styles"
	"github.com/guilhermegouw/unwind/internal/tui/util"
)

// Results of controller calls run off the update loop.
type (
	initDoneMsg    struct{ err error }
	sendDoneMsg    struct{ err error }
	selectDoneMsg  struct{ err error }
	createDoneMsg  struct{ err error }
	refreshDoneMsg struct{ err error }
	draftMsg       struct {
		text string
		err  error
	}
)

const starSeed = 20240917

// Model is the chat page model.
type Model struct { //nolint:govet // fieldalignment: preserving logical field order
	ctx      context.Context
	ctrl     *chatsync.Controller
	stars    *Starfield
	messages *MessageList
	typing   *TypingIndicator
	input    *Input
	status   *StatusBar
	modal    *sessions.Modal
	commands *CommandRegistry
	snapshot chatsync.Snapshot
	width    int
	height   int
}

// New creates the chat page. ctx bounds every controller call the page makes.
func New(ctx context.Context, ctrl *chatsync.Controller, defaultTitle string) *Model {
	return &Model{
		ctx:      ctx,
		ctrl:     ctrl,
		stars:    NewStarfield(starSeed),
		messages: NewMessageList(),
		typing:   NewTypingIndicator(),
		input:    NewInput(),
		status:   NewStatusBar(),
		modal:    sessions.New(defaultTitle),
		commands: NewCommandRegistry(),
	}
}

// Init loads the session list and starts the animations.
func (m *Model) Init() tea.Cmd {
	m.status.SetStatus(StatusLoading)
	return tea.Batch(m.input.Init(), m.stars.Tick(), m.initialize())
}

// Update handles messages.
//
//nolint:gocyclo // TUI update handler requires handling many message types
func (m *Model) Update(msg tea.Msg) (util.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.modal.IsVisible() {
			var cmd tea.Cmd
			m.modal, cmd = m.modal.Update(msg)
			return m, cmd
		}
		return m.handleKey(msg)

	case tea.MouseWheelMsg:
		switch msg.Button {
		case tea.MouseWheelUp:
			m.messages.ScrollUp(3)
		case tea.MouseWheelDown:
			m.messages.ScrollDown(3)
		}
		return m, nil

	case StarTickMsg:
		var cmd tea.Cmd
		m.stars, cmd = m.stars.Update(msg)
		return m, cmd

	case TypingTickMsg:
		var cmd tea.Cmd
		m.typing, cmd = m.typing.Update(msg)
		return m, cmd

	case initDoneMsg:
		return m, m.finish(msg.err, "Loading sessions")
	case selectDoneMsg:
		return m, m.finish(msg.err, "Loading messages")
	case createDoneMsg:
		return m, m.finish(msg.err, "Creating session")
	case refreshDoneMsg:
		return m, m.finish(msg.err, "Refreshing sessions")
	case sendDoneMsg:
		if errors.Is(msg.err, chatsync.ErrEmptyMessage) {
			return m, m.sync()
		}
		// A rollback banner may already be showing; keep its recall hint.
		if msg.err != nil && m.status.Status() == StatusError {
			debug.Error("chat", msg.err, "Sending")
			return m, m.sync()
		}
		return m, m.finish(msg.err, "Sending")

	case draftMsg:
		if msg.err != nil {
			if errors.Is(msg.err, chatsync.ErrNoDraft) {
				m.status.SetWarning("No failed message to recall")
			} else {
				m.status.SetError(msg.err.Error())
			}
			return m, nil
		}
		m.input.SetValue(msg.text)
		m.status.SetNotice("Recalled your last unsent message")
		return m, m.input.Focus()

	case CopiedMsg:
		m.status.SetNotice(fmt.Sprintf("Copied %d characters", msg.Chars))
		return m, nil
	case copyFailedMsg:
		m.status.SetError(msg.err.Error())
		return m, nil

	case sessions.SessionSelectedMsg:
		m.status.SetStatus(StatusLoading)
		return m, tea.Batch(m.selectSession(msg.SessionID), m.input.Focus())
	case sessions.NewSessionMsg:
		m.modal.Hide()
		m.status.SetStatus(StatusLoading)
		return m, tea.Batch(m.createSession(msg.Title), m.input.Focus())
	case sessions.ModalClosedMsg:
		return m, m.input.Focus()

	case OpenSessionsMsg:
		m.openSessions()
		return m, nil
	case RefreshSessionsMsg:
		m.status.SetStatus(StatusLoading)
		return m, m.refreshSessions()
	case RecallDraftMsg:
		return m, m.recallDraft()
	case CopyReplyMsg:
		return m, m.copyReply()
	case HelpMsg:
		m.status.SetNotice(m.commands.Help())
		return m, nil
	case UnknownCommandMsg:
		m.status.SetWarning(fmt.Sprintf("Unknown command /%s (try /help)", msg.Command))
		return m, nil

	case util.InfoMsg:
		m.showInfo(msg)
		return m, nil

	case bridge.SessionEventMsg:
		return m, m.handleSessionEvent(msg.Event)
	case bridge.MessageEventMsg:
		return m, m.handleMessageEvent(msg.Event)
	case bridge.AuthEventMsg:
		m.handleAuthEvent(msg.Event)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (util.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m, m.submit()
	case "ctrl+s":
		m.openSessions()
		return m, nil
	case "ctrl+n":
		m.status.SetStatus(StatusLoading)
		return m, m.createSession("")
	case "ctrl+r":
		return m, m.recallDraft()
	case "ctrl+y":
		return m, m.copyReply()
	case "pgup", "ctrl+up":
		m.messages.ScrollUp(max(1, m.messagesAreaHeight()-2))
		return m, nil
	case "pgdown", "ctrl+down":
		m.messages.ScrollDown(max(1, m.messagesAreaHeight()-2))
		return m, nil
	case "end":
		m.messages.ScrollToBottom()
		return m, nil
	case "esc":
		if s := m.status.Status(); s == StatusError || s == StatusWarning || s == StatusNotice {
			m.status.SetStatus(StatusReady)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the input text or runs it as a slash command. The input is
// cleared as soon as a send starts and is not restored if the send fails.
func (m *Model) submit() tea.Cmd {
	value := m.input.Value()
	if msg, ok := m.commands.Parse(value); ok {
		m.input.Clear()
		return util.CmdHandler(msg)
	}
	if m.ctrl.IsSending() {
		m.status.SetWarning("Still waiting for a reply…")
		return nil
	}
	if strings.TrimSpace(value) == "" {
		return nil
	}

	m.input.Clear()
	m.messages.ScrollToBottom()
	m.status.SetStatus(StatusSending)
	ctx, ctrl := m.ctx, m.ctrl
	return tea.Batch(m.typing.SetActive(true), func() tea.Msg {
		_, err := ctrl.SendMessage(ctx, value)
		return sendDoneMsg{err: err}
	})
}

func (m *Model) initialize() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return initDoneMsg{err: ctrl.Initialize(ctx)}
	}
}

func (m *Model) selectSession(id string) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return selectDoneMsg{err: ctrl.SelectSession(ctx, id)}
	}
}

func (m *Model) createSession(title string) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		_, err := ctrl.CreateSession(ctx, title)
		return createDoneMsg{err: err}
	}
}

func (m *Model) refreshSessions() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return refreshDoneMsg{err: ctrl.RefreshSessions(ctx)}
	}
}

func (m *Model) recallDraft() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		text, err := ctrl.RecallDraft(ctx)
		return draftMsg{text: text, err: err}
	}
}

func (m *Model) copyReply() tea.Cmd {
	reply, ok := m.messages.LastReply()
	if !ok {
		m.status.SetWarning("Nothing to copy yet")
		return nil
	}
	return copyToClipboard(reply.Text)
}

func (m *Model) openSessions() {
	m.input.Blur()
	m.modal.SetSize(m.width, m.height)
	m.modal.Show(m.snapshot.Sessions, m.snapshot.CurrentID)
}

// finish re-renders after a controller call and shows its error, if any.
func (m *Model) finish(err error, action string) tea.Cmd {
	cmd := m.sync()
	if err != nil {
		debug.Error("chat", err, action)
		m.status.SetError(describe(err))
		return cmd
	}
	if s := m.status.Status(); s == StatusSending || s == StatusLoading {
		m.status.SetStatus(StatusReady)
	}
	return cmd
}

// sync copies the controller's state into the view.
func (m *Model) sync() tea.Cmd {
	m.snapshot = m.ctrl.Snapshot()
	m.messages.SetMessages(m.snapshot.Messages)
	m.modal.Refresh(m.snapshot.Sessions, m.snapshot.CurrentID)
	return m.typing.SetActive(m.snapshot.Sending)
}

func (m *Model) handleSessionEvent(event pubsub.Event[events.SessionEvent]) tea.Cmd {
	debug.Event("chat", "SessionEvent", fmt.Sprintf("type=%s session=%s", event.Payload.Type, event.Payload.SessionID))
	return m.sync()
}

func (m *Model) handleMessageEvent(event pubsub.Event[events.MessageEvent]) tea.Cmd {
	debug.Event("chat", "MessageEvent", fmt.Sprintf("type=%s session=%s", event.Payload.Type, event.Payload.SessionID))
	if event.Payload.Type == events.MessageEventRolledBack {
		reason := "the server could not be reached"
		if event.Payload.Error != nil {
			reason = describe(event.Payload.Error)
		}
		m.status.SetError(fmt.Sprintf("Message not sent (%s). Press ctrl+r to recall it.", reason))
	}
	return m.sync()
}

func (m *Model) handleAuthEvent(event pubsub.Event[events.AuthEvent]) {
	debug.Auth(string(event.Payload.Type), "source="+event.Payload.Source)

	//nolint:exhaustive // remaining auth events are surfaced by the failing call
	switch event.Payload.Type {
	case events.AuthEventTokenExpiring:
		m.status.SetWarning("Your session expires at " + event.Payload.ExpiresAt.Local().Format("15:04"))
	case events.AuthEventTokenExpired, events.AuthEventRejected:
		m.status.SetError("Please sign in again: your access token was not accepted")
	}
}

func (m *Model) showInfo(msg util.InfoMsg) {
	switch msg.Type {
	case util.InfoTypeError:
		m.status.SetError(msg.Msg)
	case util.InfoTypeWarn:
		m.status.SetWarning(msg.Msg)
	default:
		if msg.Msg == "" {
			m.status.SetStatus(StatusReady)
			return
		}
		m.status.SetNotice(msg.Msg)
	}
}

// describe turns controller errors into banner text.
func describe(err error) string {
	switch {
	case errors.Is(err, chatsync.ErrSendInFlight):
		return "Still waiting for a reply"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Your access token has expired"
	case errors.Is(err, auth.ErrNoCredential):
		return "No access token configured"
	default:
		return err.Error()
	}
}

// View renders the chat page.
func (m *Model) View() string {
	if m.modal.IsVisible() {
		return m.modal.View()
	}
	t := styles.CurrentTheme()

	m.stars.SetWidth(m.width)
	m.messages.SetSize(m.width, m.messagesAreaHeight())
	m.typing.SetWidth(m.width)
	m.input.SetWidth(m.width)
	m.status.SetWidth(m.width)

	separator := lipgloss.NewStyle().
		Width(m.width).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Border).
		Render("")

	parts := []string{m.stars.View(), m.titleLine(), separator, m.messages.View()}
	if m.typing.IsActive() {
		parts = append(parts, m.typing.View())
	}
	parts = append(parts, m.input.View(), m.status.View())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) titleLine() string {
	t := styles.CurrentTheme()

	brand := styles.ApplyForegroundGrad("UnwindAI", t.Primary, t.Accent)
	title := t.S().Muted.Render("no session yet")
	if current, ok := m.snapshot.Current(); ok {
		title = t.S().Text.Render(current.DisplayTitle())
	}
	return lipgloss.NewStyle().Padding(0, 1).Width(m.width).Render(brand + t.S().Subtle.Render("  ·  ") + title)
}

// SetSize sets the chat page size.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.modal.SetSize(width, height)
}

// headerHeight is the starfield, the title line and the separator.
func (m *Model) headerHeight() int {
	return m.stars.Height() + 2
}

func (m *Model) messagesAreaHeight() int {
	h := m.height - m.headerHeight() - m.typing.Height() - m.input.Height() - 1
	return max(1, h)
}

// Cursor returns the cursor position on screen.
func (m *Model) Cursor() *tea.Cursor {
	if m.modal.IsVisible() {
		return nil
	}
	c := m.input.Cursor()
	if c == nil {
		return nil
	}
	c.Y += m.height - m.input.Height() - 1
	return c
}
