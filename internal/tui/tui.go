// Package tui provides the terminal user interface for unwind.
package tui

import (
	"context"
	"fmt"
	"os"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"

	"github.com/guilhermegouw/unwind/internal/bridge"
	"github.com/guilhermegouw/unwind/internal/chatsync"
	"github.com/guilhermegouw/unwind/internal/config"
	"github.com/guilhermegouw/unwind/internal/debug"
	"github.com/guilhermegouw/unwind/internal/pubsub"
	"github.com/guilhermegouw/unwind/internal/tui/components/welcome"
	"github.com/guilhermegouw/unwind/internal/tui/page"
	"github.com/guilhermegouw/unwind/internal/tui/page/chat"
	"github.com/guilhermegouw/unwind/internal/tui/styles"
)

// credentialCheckedMsg carries the result of a credential lookup.
type credentialCheckedMsg struct {
	err error
}

// Model is the main TUI model.
type Model struct { //nolint:govet // fieldalignment: preserving logical field order
	ctx         context.Context
	cfg         *config.Config
	welcome     *welcome.Welcome
	chatPage    *chat.Model
	currentPage page.ID
	keyMap      KeyMap
	width       int
	height      int
	ready       bool
	checked     bool
}

// New creates the main model. The chat page starts once a credential is found.
func New(ctx context.Context, cfg *config.Config, ctrl *chatsync.Controller) *Model {
	return &Model{
		ctx:         ctx,
		cfg:         cfg,
		welcome:     welcome.New(""),
		chatPage:    chat.New(ctx, ctrl, cfg.Chat.DefaultTitle),
		currentPage: page.Welcome,
		keyMap:      DefaultKeyMap(),
	}
}

// Init checks for a credential before showing the chat.
func (m *Model) Init() tea.Cmd {
	return m.checkCredential()
}

func (m *Model) checkCredential() tea.Cmd {
	ctx, provider := m.ctx, m.cfg.CredentialProvider()
	return func() tea.Msg {
		_, err := provider.Token(ctx)
		return credentialCheckedMsg{err: err}
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		debug.Event("tui", "WindowSize", fmt.Sprintf("width=%d height=%d", msg.Width, msg.Height))
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.welcome.SetSize(m.width, m.height)
		m.chatPage.SetSize(m.width, m.height)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keyMap.Quit) {
			return m, tea.Quit
		}

	case credentialCheckedMsg:
		m.checked = true
		if msg.err != nil {
			debug.Error("tui", msg.err, "credential lookup")
			m.welcome.SetReason(msg.err.Error())
			m.currentPage = page.Welcome
			return m, nil
		}
		debug.Event("tui", "PageChange", "page=chat")
		m.currentPage = page.Chat
		return m, m.chatPage.Init()

	case welcome.RetryMsg:
		return m, m.checkCredential()

	case page.ChangeMsg:
		m.currentPage = msg.Page
		return m, nil
	}

	return m, m.routeToPage(msg)
}

func (m *Model) routeToPage(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.currentPage {
	case page.Welcome:
		_, cmd = m.welcome.Update(msg)
	case page.Chat:
		_, cmd = m.chatPage.Update(msg)
	}
	return cmd
}

// View renders the TUI.
func (m *Model) View() tea.View {
	var view tea.View
	view.AltScreen = true
	view.MouseMode = tea.MouseModeCellMotion

	if !m.ready || !m.checked {
		view.Content = "Loading..."
		return view
	}

	switch m.currentPage {
	case page.Chat:
		view.Content = m.chatPage.View()
		view.Cursor = m.chatPage.Cursor()
	default:
		view.Content = m.welcome.View()
	}
	return view
}

// Run starts the TUI and blocks until the user quits.
func Run(ctx context.Context, cfg *config.Config, ctrl *chatsync.Controller, hub *pubsub.Hub) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("unwind requires an interactive terminal: stdin/stdout must be connected to a TTY")
	}

	styles.NewManager()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := New(ctx, cfg, ctrl)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if hub != nil {
		tuiBridge := bridge.NewTUIBridge(hub, p)
		tuiBridge.Start(ctx)
		defer tuiBridge.Stop()
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
