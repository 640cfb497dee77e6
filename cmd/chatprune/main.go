package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/platinummonkey/chatprune/pkg/app"
	"github.com/platinummonkey/chatprune/pkg/cli"
	"github.com/platinummonkey/chatprune/pkg/config"
	"github.com/platinummonkey/chatprune/pkg/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCommand(&cli.Env{
		Ctx:  ctx,
		Out:  os.Stdout,
		Open: open,
	})

	if err := rootCmd.Execute(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// open loads configuration and connects. Logs go to stderr so command
// output stays parseable.
func open(ctx context.Context) (*cli.Deps, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := observability.NewLogger(cfg.Observability.LogLevel, observability.FormatText, os.Stderr)
	if err != nil {
		return nil, err
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	deps := &cli.Deps{
		Router:   a.Router,
		Settings: a.Settings,
		Store:    a.Store,
		Close:    a.Close,
	}
	if a.Queue != nil {
		deps.Queue = a.Queue
	}
	return deps, nil
}
