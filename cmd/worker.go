package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"settlement-engine/internal/consumer"
	"settlement-engine/internal/usecase"
	"settlement-engine/pkg/mq"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Settle bookings from booking.completed events",
	Long: `Consume booking.completed events from RabbitMQ and create one pending
ledger entry per booking. Requires AMQP_URL.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	if config.AMQP.URL == "" {
		return errors.New("AMQP_URL is required for the worker")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := openStack(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	service := usecase.NewService(s.repos, config, s.deps, logger)

	cons, err := mq.NewConsumer(config.AMQP.URL, config.AMQP.Exchange, config.AMQP.Queue, []string{consumer.KeyBookingCompleted})
	if err != nil {
		return fmt.Errorf("start consumer: %w", err)
	}
	defer cons.Close()

	deliveries, err := cons.Deliveries(ctx)
	if err != nil {
		return fmt.Errorf("consume %s: %w", config.AMQP.Queue, err)
	}

	logger.Info("Worker started",
		zap.String("queue", config.AMQP.Queue),
		zap.String("exchange", config.AMQP.Exchange),
	)

	err = consumer.NewBookingConsumer(s.repos.Booking, service.Ledger, logger).Run(ctx, deliveries)
	if errors.Is(err, context.Canceled) {
		logger.Info("Worker stopped")
		return nil
	}
	return err
}
