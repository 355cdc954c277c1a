package producer

import (
	"context"
	"errors"
	"time"

	"go-leave/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	defaultPollInterval = 3 * time.Second
	batchSize           = 50
)

// ProcessOutboxEvents polls the outbox and relays rows to kafka until ctx is
// cancelled.
func ProcessOutboxEvents(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer MessageWriter,
	logger *zap.Logger,
	pollInterval time.Duration,
) {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	log := logger.Named("kafka.producer.worker")
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	log.Info("outbox worker started", zap.Duration("poll_interval", pollInterval))

	for {
		select {
		case <-ctx.Done():
			log.Info("outbox worker stopped")
			return
		case <-ticker.C:
			if _, err := processPendingEvents(ctx, repo, writer, log); err != nil {
				log.Error("process outbox events failed", zap.Error(err))
			}
		}
	}
}

type batchResult struct {
	Sent   int
	Failed int
}

// processPendingEvents publishes one batch in a single write. kafka-go
// reports per-message failures as WriteErrors; any other error fails the
// whole batch.
func processPendingEvents(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer MessageWriter,
	logger *zap.Logger,
) (batchResult, error) {
	var res batchResult

	pending, err := repo.ListPending(ctx, batchSize)
	if err != nil {
		return res, err
	}
	if len(pending) == 0 {
		return res, nil
	}

	msgs := make([]kafkago.Message, len(pending))
	for i, event := range pending {
		msgs[i] = toMessage(event)
	}

	writeErr := writer.WriteMessages(ctx, msgs...)
	var perMessage kafkago.WriteErrors
	hasPerMessage := errors.As(writeErr, &perMessage) && len(perMessage) == len(pending)

	for i, event := range pending {
		eventErr := writeErr
		if hasPerMessage {
			eventErr = perMessage[i]
		}

		if eventErr != nil {
			res.Failed++
			logger.Error("publish outbox event failed",
				zap.String("outbox_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.Int("attempt", event.RetryCount+1),
				zap.Error(eventErr),
			)
			if err := repo.MarkFailed(ctx, event.ID, eventErr.Error()); err != nil {
				logger.Error("record outbox failure failed", zap.String("outbox_id", event.ID), zap.Error(err))
			}
			continue
		}

		if err := repo.MarkSent(ctx, event.ID); err != nil {
			logger.Error("mark outbox sent failed", zap.String("outbox_id", event.ID), zap.Error(err))
			continue
		}
		res.Sent++
	}

	logger.Info("outbox batch processed",
		zap.Int("sent", res.Sent),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}
