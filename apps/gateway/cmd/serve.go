package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gateway/apps/gateway/internal/api"
	"gateway/apps/gateway/internal/config"
	"gateway/apps/gateway/internal/consumer"
)

type eventConsumer interface {
	Start(ctx context.Context) error
	Close() error
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Starting application with configuration",
		zap.Int("api_port", cfg.APIPort),
		zap.String("redis_addr", cfg.RedisAddr),
		zap.String("config_service_url", cfg.ConfigServiceURL),
		zap.String("events_transport", cfg.EventsTransport),
		zap.Int("events_concurrency", cfg.EventsConcurrency),
		zap.Duration("cache_default_ttl", cfg.CacheDefaultTTL),
		zap.Duration("event_timeout", cfg.EventTimeout),
	)

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("Error closing resources", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ec, err := newConsumer(cfg, a, logger)
	if err != nil {
		return err
	}
	var consumerDone chan error
	if ec != nil {
		consumerDone = make(chan error, 1)
		go func() {
			consumerDone <- ec.Start(ctx)
		}()
	}

	// Create and start API server
	apiServer := api.NewServer(cfg.APIPort, a.hooks, a.cache, a.registry, logger)
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- apiServer.Start()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal, starting graceful shutdown...")
	case err := <-serverDone:
		runErr = err
	case err := <-consumerDone:
		runErr = fmt.Errorf("event consumer stopped: %w", err)
		consumerDone = nil
	}
	stop()

	// Create a context with timeout for shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown API server gracefully
	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error shutting down API server", zap.Error(err))
	}

	if ec != nil {
		if consumerDone != nil {
			select {
			case <-consumerDone:
			case <-shutdownCtx.Done():
				logger.Warn("Event consumer did not stop in time")
			}
		}
		if err := ec.Close(); err != nil {
			logger.Error("Error closing event consumer", zap.Error(err))
		}
	}

	logger.Info("Application shutdown complete")
	return runErr
}

func newConsumer(cfg *config.Config, a *app, logger *zap.Logger) (eventConsumer, error) {
	switch cfg.EventsTransport {
	case config.TransportKafka:
		c, err := consumer.NewKafkaConsumer(cfg.KafkaBroker, cfg.KafkaEventsTopic, cfg.KafkaGroupID, cfg.EventsConcurrency, a.hooks, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
		}
		return c, nil
	case config.TransportAMQP:
		c, err := consumer.NewAMQPConsumer(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, cfg.EventsConcurrency, a.hooks, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create amqp consumer: %w", err)
		}
		return c, nil
	default:
		logger.Info("No event consumer configured, accepting events over HTTP only")
		return nil, nil
	}
}
