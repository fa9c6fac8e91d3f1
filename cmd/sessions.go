package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/guilhermegouw/unwind/internal/message"
	"github.com/guilhermegouw/unwind/internal/session"
)

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List your conversation sessions",
		RunE:  runSessionsList,
	}
	cmd.AddCommand(newSessionsNewCmd(), newSessionsShowCmd())
	return cmd
}

func newSessionsNewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new [title]",
		Short: "Create a new session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromCmd(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			title := ""
			if len(args) == 1 {
				title = args[0]
			}
			sess, err := a.ctrl.CreateSession(cmd.Context(), title)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created session %s (%s)\n", sess.ID, sess.DisplayTitle())
			return nil
		},
	}
}

func newSessionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print the messages of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromCmd(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ctrl.SelectSession(cmd.Context(), args[0]); err != nil {
				return err
			}
			printTranscript(cmd.OutOrStdout(), a.ctrl.Snapshot().Messages)
			return nil
		},
	}
}

func runSessionsList(cmd *cobra.Command, _ []string) error {
	a, err := appFromCmd(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.ctrl.RefreshSessions(cmd.Context()); err != nil {
		return err
	}
	sessions := a.ctrl.Snapshot().Sessions
	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions yet. Start one with 'unwind send' or 'unwind sessions new'.")
		return nil
	}
	printSessions(cmd.OutOrStdout(), sessions, time.Now())
	return nil
}

// appFromCmd loads config and wires an app for a one-shot command.
func appFromCmd(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return newApp(cmd.Context(), cfg)
}

func printSessions(w io.Writer, sessions []session.Session, now time.Time) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tMESSAGES\tUPDATED")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.ID, s.DisplayTitle(), s.MessageCount, since(s.UpdatedAt, now))
	}
	_ = tw.Flush() //nolint:errcheck // Terminal output.
}

func printTranscript(w io.Writer, msgs []message.Message) {
	if len(msgs) == 0 {
		fmt.Fprintln(w, "No messages in this session.")
		return
	}
	for _, m := range msgs {
		who := "you"
		if !m.IsUser() {
			who = "UnwindAI"
		}
		fmt.Fprintf(w, "[%s] %s:\n", m.Timestamp.Local().Format("2006-01-02 15:04"), who)
		for _, line := range strings.Split(strings.TrimRight(m.Text, "\n"), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
		fmt.Fprintln(w)
	}
}

func since(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Local().Format("2006-01-02")
	}
}
