package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <text>",
		Short: "Send one message and print the reply",
		Long: `Send a single message without opening the chat.

Without --session the most recent session is used; when you have none a
new session is created first. If the session list or the chosen session
cannot be loaded nothing is sent.

A message that reaches the send step but fails is kept as a draft and
can be listed with 'unwind drafts'.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSend,
	}
	cmd.Flags().StringP("session", "s", "", "Session id to send to")
	cmd.Flags().Bool("new", false, "Always start a new session")
	return cmd
}

func runSend(cmd *cobra.Command, args []string) error {
	a, err := appFromCmd(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	sessionID, _ := cmd.Flags().GetString("session") //nolint:errcheck // Flag always defined.
	fresh, _ := cmd.Flags().GetBool("new")           //nolint:errcheck // Flag always defined.

	switch {
	case sessionID != "":
		if err := a.ctrl.SelectSession(ctx, sessionID); err != nil {
			return fmt.Errorf("loading session %s: %w", sessionID, err)
		}
	case fresh:
		// Leave nothing selected so the send creates a session.
	default:
		if err := a.ctrl.Initialize(ctx); err != nil {
			return fmt.Errorf("loading sessions: %w", err)
		}
	}

	text := strings.Join(args, " ")
	reply, err := a.ctrl.SendMessage(ctx, text)
	if err != nil {
		if savedAsDraft(cmd, a, text) {
			return fmt.Errorf("%w (recall it with 'unwind drafts')", err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	if sess, ok := a.ctrl.Snapshot().Current(); ok {
		fmt.Fprintf(out, "[%s] %s\n\n", sess.ID, sess.DisplayTitle())
	}
	fmt.Fprintln(out, reply.Text)
	return nil
}

// savedAsDraft reports whether the failed send of text was journaled. Sends
// that fail before reaching the backend, such as a failed session create,
// leave no draft.
func savedAsDraft(cmd *cobra.Command, a *app, text string) bool {
	if a.sendLog == nil {
		return false
	}
	draft, err := a.ctrl.LastFailedDraft(cmd.Context())
	return err == nil && draft == strings.TrimSpace(text)
}
