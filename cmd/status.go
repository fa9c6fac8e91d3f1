package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/guilhermegouw/unwind/internal/auth"
	"github.com/guilhermegouw/unwind/internal/config"
	"github.com/guilhermegouw/unwind/internal/db"
	"github.com/guilhermegouw/unwind/internal/pubsub"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, credential and local storage info",
		Long: `Display the current unwind status including:
  - Configuration file and API base URL
  - Where the access token comes from and who it belongs to
  - Local send log location and schema version`,
		RunE: runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	fmt.Println("Unwind Status")
	fmt.Println("=============")
	fmt.Println("")

	fmt.Println("Configuration:")
	fmt.Printf("  Config file: %s\n", config.GlobalConfigPath())
	fmt.Printf("  API:         %s\n", cfg.API.BaseURL)
	fmt.Printf("  Timeout:     %s\n", cfg.API.Timeout())
	if cfg.Retry.Attempts > 0 {
		fmt.Printf("  Retries:     %d (base delay %s)\n", cfg.Retry.Attempts, time.Duration(cfg.Retry.BaseDelay))
	}
	fmt.Println("")

	printCredentialStatus(cmd, cfg)
	fmt.Println("")

	printStorageStatus(cfg)

	hub := pubsub.NewHub()
	defer hub.Shutdown()
	if debugMode, _ := cmd.Flags().GetBool("debug"); debugMode { //nolint:errcheck // Persistent flag always defined.
		fmt.Println("")
		fmt.Println("Event brokers:")
		fmt.Print(hub.DebugString())
	}

	return nil
}

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
)

func printCredentialStatus(cmd *cobra.Command, cfg *config.Config) {
	provider := cfg.CredentialProvider()

	fmt.Println("Credential:")
	fmt.Printf("  Source: %s\n", provider.Source())

	tok, err := provider.Token(cmd.Context())
	if err != nil {
		if errors.Is(err, auth.ErrNoCredential) {
			fmt.Printf("  Status: %s\n", warnColor.Sprint("not signed in"))
			fmt.Println("")
			fmt.Println("  Set UNWIND_TOKEN or auth.token_file to your access token.")
			return
		}
		fmt.Printf("  Status: %s\n", errColor.Sprintf("error (%v)", err))
		return
	}

	id, err := auth.ParseClaims(tok)
	if err != nil {
		fmt.Printf("  Status: %s\n", errColor.Sprintf("unreadable token (%v)", err))
		return
	}

	fmt.Printf("  User:   %s\n", id.UserID)
	if id.Email != "" {
		fmt.Printf("  Email:  %s\n", id.Email)
	}
	switch {
	case id.ExpiresAt.IsZero():
		fmt.Printf("  Status: %s\n", okColor.Sprint("valid (no expiry)"))
	case id.Expired(time.Now()):
		fmt.Printf("  Status: %s\n", errColor.Sprint("expired"))
	default:
		remaining := time.Until(id.ExpiresAt)
		fmt.Printf("  Status: %s\n", okColor.Sprintf("valid (expires in %s)", formatDuration(remaining)))
	}
}

func printStorageStatus(cfg *config.Config) {
	path := cfg.DatabasePath()

	fmt.Println("Local storage:")
	fmt.Printf("  Database: %s\n", path)

	if _, err := os.Stat(path); err != nil {
		fmt.Printf("  Status:   %s\n", warnColor.Sprint("not created yet"))
		return
	}

	database, err := db.Open(path)
	if err != nil {
		fmt.Printf("  Status:   %s\n", errColor.Sprintf("error (%v)", err))
		return
	}
	defer database.Close() //nolint:errcheck // Read-only use.

	version, err := database.Version()
	if err != nil {
		fmt.Printf("  Schema:   unknown (%v)\n", err)
		return
	}
	fmt.Printf("  Schema:   v%d\n", version)
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return "less than a minute"
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	if hours > 24 {
		days := hours / 24
		return fmt.Sprintf("%d days", days)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
