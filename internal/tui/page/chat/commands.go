package chat

import (
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/guilhermegouw/unwind/internal/tui/components/sessions"
)

// Command message types.
type (
	// OpenSessionsMsg opens the session picker.
	OpenSessionsMsg struct{}

	// RefreshSessionsMsg re-fetches the session list.
	RefreshSessionsMsg struct{}

	// RecallDraftMsg puts the last failed message back in the input.
	RecallDraftMsg struct{}

	// CopyReplyMsg copies the latest reply to the clipboard.
	CopyReplyMsg struct{}

	// HelpMsg lists the slash commands.
	HelpMsg struct{}

	// UnknownCommandMsg indicates an unknown slash command was entered.
	UnknownCommandMsg struct {
		Command string
	}
)

// Command is a slash command.
type Command struct {
	Name        string
	Description string
	Handler     func(args []string) tea.Msg
}

// CommandRegistry holds registered slash commands.
type CommandRegistry struct {
	commands map[string]Command
}

// NewCommandRegistry creates a registry with the chat commands.
func NewCommandRegistry() *CommandRegistry {
	r := &CommandRegistry{commands: make(map[string]Command)}

	r.Register(Command{
		Name:        "sessions",
		Description: "Switch to another session",
		Handler:     func([]string) tea.Msg { return OpenSessionsMsg{} },
	})
	r.Register(Command{
		Name:        "new",
		Description: "Start a new session, optionally with a title",
		Handler: func(args []string) tea.Msg {
			return sessions.NewSessionMsg{Title: strings.Join(args, " ")}
		},
	})
	r.Register(Command{
		Name:        "refresh",
		Description: "Reload the session list",
		Handler:     func([]string) tea.Msg { return RefreshSessionsMsg{} },
	})
	r.Register(Command{
		Name:        "draft",
		Description: "Recall the last message that failed to send",
		Handler:     func([]string) tea.Msg { return RecallDraftMsg{} },
	})
	r.Register(Command{
		Name:        "copy",
		Description: "Copy the latest reply",
		Handler:     func([]string) tea.Msg { return CopyReplyMsg{} },
	})
	r.Register(Command{
		Name:        "help",
		Description: "List commands",
		Handler:     func([]string) tea.Msg { return HelpMsg{} },
	})

	return r
}

// Register adds a command to the registry.
func (r *CommandRegistry) Register(cmd Command) {
	r.commands[cmd.Name] = cmd
}

// Parse interprets input as a slash command. It returns false when the
// input is an ordinary message.
func (r *CommandRegistry) Parse(input string) (tea.Msg, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return nil, false
	}

	parts := strings.Fields(input[1:])
	if len(parts) == 0 {
		return nil, false
	}

	name := strings.ToLower(parts[0])
	cmd, ok := r.commands[name]
	if !ok {
		return UnknownCommandMsg{Command: name}, true
	}
	return cmd.Handler(parts[1:]), true
}

// Commands returns the registered commands sorted by name.
func (r *CommandRegistry) Commands() []Command {
	cmds := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	slices.SortFunc(cmds, func(a, b Command) int { return strings.Compare(a.Name, b.Name) })
	return cmds
}

// Help returns a one-line summary of the commands.
func (r *CommandRegistry) Help() string {
	names := make([]string, 0, len(r.commands))
	for _, cmd := range r.Commands() {
		names = append(names, "/"+cmd.Name)
	}
	return strings.Join(names, "  ")
}
