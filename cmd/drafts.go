package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/guilhermegouw/unwind/internal/sendlog"
)

func newDraftsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "List messages that failed to send",
		Long: `List messages whose send failed, most recent first.

The chat never puts a failed message back into the input on its own; use
this list, or ctrl+r in the chat, to get the text back.`,
		RunE: runDrafts,
	}
	cmd.Flags().IntP("limit", "n", 10, "Maximum number of drafts to show")
	cmd.Flags().Bool("all", false, "Show every send attempt, not only failures")
	return cmd
}

func runDrafts(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.sendLog == nil {
		return errors.New("send log unavailable")
	}

	limit, _ := cmd.Flags().GetInt("limit") //nolint:errcheck // Flag always defined.
	all, _ := cmd.Flags().GetBool("all")    //nolint:errcheck // Flag always defined.
	status := sendlog.StatusFailed
	if all {
		status = ""
	}

	entries, err := a.sendLog.Recent(cmd.Context(), status, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No failed messages.")
		return nil
	}

	now := time.Now()
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tSESSION\tSTATUS\tTEXT")
	for _, e := range entries {
		sessionID := e.SessionID
		if sessionID == "" {
			sessionID = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", since(e.CreatedAt, now), sessionID, e.Status, oneLine(e.Text, 60))
	}
	_ = tw.Flush() //nolint:errcheck // Terminal output.
	return nil
}

func oneLine(s string, limit int) string {
	r := []rune(s)
	for i, c := range r {
		if c == '\n' || c == '\r' {
			r[i] = ' '
		}
	}
	if len(r) > limit {
		return string(r[:limit-1]) + "…"
	}
	return string(r)
}
