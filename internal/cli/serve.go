package cli

import (
	"github.com/spf13/cobra"

	"inventory/internal/app"
)

func newServeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the product HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load(opts)
			if err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					logger.Error("failed to release resources", "error", err)
				}
			}()

			if err := a.Run(ctx); err != nil {
				return err
			}
			logger.Info("server gracefully stopped")
			return nil
		},
	}
}
