package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventory/internal/app"
	"inventory/internal/config"

	"github.com/spf13/cobra"
)

type options struct {
	envFile string
	timeout time.Duration
}

// NewRootCommand returns the inventory command tree. Without a subcommand it
// serves the HTTP API.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	serve := newServeCommand(opts)
	cmd := &cobra.Command{
		Use:          "inventory",
		Short:        "Inventory product service",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to env file")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "timeout for migrate and seed")

	cmd.AddCommand(
		serve,
		newMigrateCommand(opts),
		newSeedCommand(opts),
		newConsumeCommand(opts),
	)
	return cmd
}

func load(opts *options) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return nil, nil, err
	}
	logger := app.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
