package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/guilhermegouw/unwind/internal/chatsync"
	"github.com/guilhermegouw/unwind/internal/config"
	"github.com/guilhermegouw/unwind/internal/db"
	"github.com/guilhermegouw/unwind/internal/debug"
	"github.com/guilhermegouw/unwind/internal/gateway"
	"github.com/guilhermegouw/unwind/internal/pubsub"
	"github.com/guilhermegouw/unwind/internal/sendlog"
)

// app is the wired client: gateway, controller, event hub and send log.
type app struct {
	cfg      *config.Config
	hub      *pubsub.Hub
	database *db.DB
	sendLog  *sendlog.Store
	client   *gateway.Client
	ctrl     *chatsync.Controller
}

// newApp wires the client from cfg. A send log that cannot be opened is
// reported and skipped; chatting still works without draft recall.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, hub: pubsub.NewHub()}

	if err := a.openSendLog(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: send log unavailable: %v\n", err)
	}

	client, err := gateway.New(cfg.API.BaseURL, cfg.CredentialProvider(),
		gateway.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout()}),
		gateway.WithHub(a.hub),
		gateway.WithRetry(cfg.Retry.Attempts, time.Duration(cfg.Retry.BaseDelay)),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating API client: %w", err)
	}
	a.client = client

	opts := []chatsync.Option{
		chatsync.WithHub(a.hub),
		chatsync.WithDefaultTitle(cfg.Chat.DefaultTitle),
	}
	if a.sendLog != nil {
		opts = append(opts, chatsync.WithSendLog(a.sendLog))
	}
	a.ctrl = chatsync.New(client, opts...)

	return a, nil
}

func (a *app) openSendLog(ctx context.Context) error {
	database, err := db.Open(a.cfg.DatabasePath())
	if err != nil {
		return err
	}
	a.database = database
	a.sendLog = sendlog.New(database)

	// A previous run may have exited mid-send.
	n, err := a.sendLog.FailPending(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		debug.Event("app", "FailPending", fmt.Sprintf("marked %d interrupted sends as failed", n))
	}
	return nil
}

// Close shuts down the hub and the database.
func (a *app) Close() {
	a.hub.Shutdown()
	if a.database != nil {
		if err := a.database.Close(); err != nil {
			debug.Error("app", err, "closing database")
		}
	}
}
