package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"inventory/internal/models"
	"inventory/pkg/rabbitmq"
)

func newConsumeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Log product events from the broker until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load(opts)
			if err != nil {
				return err
			}
			if cfg.RabbitMQURL == "" {
				return errors.New("RABBITMQ_URL is not set")
			}

			mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, logger)
			if err != nil {
				return err
			}
			defer mq.Close()

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			return mq.ConsumeProductEvents(ctx, func(event models.ProductEvent) error {
				logger.Info("product event",
					"event_id", event.ID,
					"type", event.Type,
					"product_id", event.ProductID,
					"occurred_at", event.OccurredAt,
				)
				return nil
			})
		},
	}
}
