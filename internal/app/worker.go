package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"go-leave/internal/config"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/messaging/kafka/producer"
	"go-leave/internal/shared/connection"

	"go.uber.org/zap"
)

const outboxPollInterval = 3 * time.Second

// RunWorker relays outbox rows to kafka until SIGINT/SIGTERM.
func RunWorker(cfg config.Config, logger *zap.Logger) error {
	log := logger.Named("app.worker")
	if cfg.KafkaBroker == "" {
		return errors.New("KAFKA_BROKER is required")
	}

	gormDB, err := connection.ConnectGORMWithRetry(cfg.DB, cfg.MaxRetries)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	writer, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, cfg.MaxRetries)
	if err != nil {
		return err
	}
	defer writer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Blocks until a signal cancels ctx.
	producer.ProcessOutboxEvents(ctx, kafka.NewOutboxRepository(sqlDB), writer, log, outboxPollInterval)

	log.Info("worker shut down")
	return nil
}
