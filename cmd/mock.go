package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/guilhermegouw/unwind/internal/auth"
	"github.com/guilhermegouw/unwind/internal/mockapi"
)

const devSecret = "unwind-dev-secret"

func newMockServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run an in-memory chat backend for local development",
		Long: `Serve the chat API from memory and print a token it accepts.

Point the client at it with:
  UNWIND_API_URL=http://127.0.0.1:8787 UNWIND_TOKEN=<printed token> unwind`,
		Args: cobra.NoArgs,
		RunE: runMockServer,
	}
	cmd.Flags().String("addr", "127.0.0.1:8787", "Listen address")
	cmd.Flags().String("secret", devSecret, "HS256 secret for issued tokens")
	cmd.Flags().String("user", "dev-user", "Subject of the printed token")
	cmd.Flags().Bool("echo", true, "Return the persisted user message with each reply")
	cmd.Flags().Duration("latency", 800*time.Millisecond, "Delay before each reply")
	return cmd
}

func runMockServer(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	addr, _ := flags.GetString("addr")         //nolint:errcheck // Flag always defined.
	secret, _ := flags.GetString("secret")     //nolint:errcheck // Flag always defined.
	user, _ := flags.GetString("user")         //nolint:errcheck // Flag always defined.
	echo, _ := flags.GetBool("echo")           //nolint:errcheck // Flag always defined.
	latency, _ := flags.GetDuration("latency") //nolint:errcheck // Flag always defined.

	verifier := auth.NewJWTVerifier([]byte(secret))
	token, err := verifier.Generate(user, user+"@unwind.local", 24*time.Hour)
	if err != nil {
		return fmt.Errorf("issuing dev token: %w", err)
	}

	server := mockapi.NewServer(verifier,
		mockapi.WithEcho(echo),
		mockapi.WithLatency(latency),
	)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Mock API listening on http://%s\n", ln.Addr())
	fmt.Fprintf(out, "Token (24h): %s\n", token)

	ctx := cmd.Context()
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	fmt.Fprintln(out, "Mock API stopped")
	return nil
}
