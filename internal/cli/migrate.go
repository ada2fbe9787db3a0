package cli

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"inventory/internal/app"
	"inventory/internal/config"
	"inventory/internal/database"
)

func newMigrateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the products schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load(opts)
			if err != nil {
				return err
			}
			if cfg.Database.Driver == config.DriverMemory {
				return errors.New("migrate needs a SQL database driver")
			}
			// OpenRepository migrates before returning.
			_, closeRepo, err := app.OpenRepository(cfg.Database, logger)
			if err != nil {
				return err
			}
			defer closeRepo()
			logger.Info("schema migration applied", "driver", cfg.Database.Driver)
			return nil
		},
	}
}

func newSeedCommand(opts *options) *cobra.Command {
	var count int
	var seed uint64
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace all products with generated ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 0 {
				return errors.New("--count must not be negative")
			}
			cfg, logger, err := load(opts)
			if err != nil {
				return err
			}
			if cfg.Database.Driver == config.DriverMemory {
				return errors.New("seed needs a SQL database driver")
			}
			repo, closeRepo, err := app.OpenRepository(cfg.Database, logger)
			if err != nil {
				return err
			}
			defer closeRepo()

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			var rnd *rand.Rand
			if cmd.Flags().Changed("seed") {
				rnd = rand.New(rand.NewPCG(seed, seed))
			}
			if err := database.Seed(ctx, repo, count, rnd); err != nil {
				return err
			}
			logger.Info("database seeded", "products", count)
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", database.DefaultSeedCount, "number of products to generate")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed for reproducible data")
	return cmd
}
