package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"stayrates/internal/infra/broker/kafka"
	"stayrates/internal/infra/config"
	"stayrates/internal/infra/fixtures"
	ginserver "stayrates/internal/infra/http/gin"
	"stayrates/internal/infra/obs"
	relay "stayrates/internal/infra/outbox"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the outbox relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			logger := obs.NewLogger(cfg.Env, cfg.LogLevel)
			slog.SetDefault(logger)
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	infra, err := buildInfrastructure(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("infrastructure setup (%s): %w", cfg.StoreMode, err)
	}
	defer infra.close()

	if cfg.StoreMode == config.StoreMemory {
		fixturesPath := cfg.FixturesPath
		if fixturesPath == "" {
			fixturesPath = fixtures.DefaultPath()
		}
		if err := fixtures.LoadFile(ctx, fixturesPath, infra.sink, logger); err != nil {
			logger.Warn("fixtures load failed", "error", err, "path", fixturesPath)
		}
	}

	server := ginserver.NewServer(cfg,
		obs.Middleware{Logger: logger, RequestTimeout: cfg.RequestTimeout},
		obs.HealthHandlers{Ready: infra.ready},
		buildApplication(cfg, infra, logger),
	)

	if cfg.RelayEnabled() {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, kafka.NewConfig("stayrates"))
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer producer.Close()
		worker := &relay.Worker{
			Queue:       infra.queue,
			Producer:    producer,
			Logger:      logger,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
		}
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
		logger.Info("outbox relay started", "brokers", cfg.KafkaBrokers, "topic_prefix", cfg.KafkaTopicPrefix)
	} else {
		logger.Info("KAFKA_BROKERS not set, outbox relay disabled")
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "store_mode", cfg.StoreMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	logger.Info("HTTP server stopped")
	return nil
}
