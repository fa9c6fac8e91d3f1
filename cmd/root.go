// Package cmd provides the CLI commands for unwind.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/guilhermegouw/unwind/internal/config"
	"github.com/guilhermegouw/unwind/internal/debug"
	"github.com/guilhermegouw/unwind/internal/tui"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unwind",
		Short: "A terminal client for UnwindAI",
		Long: `unwind is a quiet terminal client for the UnwindAI chat service.

Run it without arguments to open the chat. Messages you send appear
immediately and are confirmed once the server replies; a message that
fails to send can be recalled with ctrl+r or listed with 'unwind drafts'.

Authentication uses an access token from $UNWIND_TOKEN, a token file
($UNWIND_TOKEN_FILE or auth.token_file) or auth.token in unwind.json.`,
		SilenceUsage: true,
		RunE:         runTUI,
	}

	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging to the unwind data directory")
	cmd.PersistentFlags().String("config", "", "Read configuration from this file only")

	cmd.AddCommand(
		newSessionsCmd(),
		newSendCmd(),
		newDraftsCmd(),
		newStatusCmd(),
		newConfigCmd(),
		newMockServerCmd(),
		newVersionCmd(),
	)

	return cmd
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	stop := enableDebug(cmd, cfg)
	defer stop()

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return tui.Run(cmd.Context(), cfg, a.ctrl, a.hub)
}

// loadConfig loads the file named by --config, or the merged global and
// project configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	path, _ := cmd.Flags().GetString("config") //nolint:errcheck // Persistent flag always defined.
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// enableDebug turns on the debug log when --debug or options.debug is set.
// The returned func disables it again.
func enableDebug(cmd *cobra.Command, cfg *config.Config) func() {
	debugMode, _ := cmd.Flags().GetBool("debug") //nolint:errcheck // Persistent flag always defined.
	if !debugMode && (cfg.Options == nil || !cfg.Options.Debug) {
		return func() {}
	}

	logPath := cfg.DebugLogPath()
	if err := debug.Enable(logPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to enable debug logging: %v\n", err)
		return func() {}
	}
	fmt.Fprintf(os.Stderr, "Debug: %s\n", logPath)
	return debug.Disable
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}
