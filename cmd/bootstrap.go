package cmd

import (
	"context"
	"fmt"

	"settlement-engine/internal/data/repository"
	"settlement-engine/internal/report"
	"settlement-engine/internal/usecase"
	"settlement-engine/pkg/cache"
	"settlement-engine/pkg/database"
	"settlement-engine/pkg/mq"

	"go.uber.org/zap"
)

const summaryCachePrefix = "settlement"

// stack is the set of connections a long running command needs.
type stack struct {
	db    database.PgxIface
	repos *repository.Repository
	deps  usecase.Deps

	closers []func()
}

func (s *stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// openStack connects Postgres and the optional Redis, RabbitMQ and PDF
// renderer. Optional services left unconfigured fall back to no-ops.
func openStack(ctx context.Context) (*stack, error) {
	db, err := database.InitDB(ctx, config.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	logger.Info("Database connected successfully")

	s := &stack{
		db:      db,
		repos:   repository.NewRepository(db, logger),
		closers: []func(){db.Close},
	}

	if config.Redis.Addr != "" {
		client, err := cache.NewRedisClient(ctx, config.Redis)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		s.closers = append(s.closers, func() { _ = client.Close() })
		s.deps.Cache = cache.NewSummaryCache(client, summaryCachePrefix, config.Redis.TTL)
		logger.Info("Summary cache enabled", zap.String("addr", config.Redis.Addr))
	}

	if config.AMQP.URL != "" {
		pub, err := mq.NewPublisher(config.AMQP.URL, config.AMQP.Exchange)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		s.closers = append(s.closers, func() { _ = pub.Close() })
		s.deps.Publisher = pub
		logger.Info("Event publishing enabled", zap.String("exchange", config.AMQP.Exchange))
	}

	if config.PDF.RendererURL != "" {
		s.deps.PDF = report.NewHTTPRenderer(config.PDF.RendererURL, config.PDF.Timeout, config.MaxRetries, logger)
	}

	return s, nil
}
