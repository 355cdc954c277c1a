package app

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"syscall"

	"go-leave/internal/bootstrap"
	"go-leave/internal/config"
	"go-leave/internal/events"
	"go-leave/internal/messaging/kafka/consumer"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const auditConsumerGroup = "go-leave-audit"

// RunConsumer feeds the leave and employee lifecycle topics into the audit
// log until SIGINT/SIGTERM.
func RunConsumer(cfg config.Config, logger *zap.Logger) error {
	log := logger.Named("app.consumer")

	if cfg.KafkaBroker == "" {
		return errors.New("KAFKA_BROKER is required")
	}

	audit := bootstrap.NewStdoutAuditLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for _, topic := range []string{events.LeaveLifecycleTopic, events.EmployeeLifecycleTopic} {
		reader := kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:        []string{cfg.KafkaBroker},
			Topic:          topic,
			GroupID:        auditConsumerGroup,
			CommitInterval: 0,
			StartOffset:    kafkago.FirstOffset,
		})
		defer reader.Close()

		wg.Add(1)
		go func() {
			defer wg.Done()
			consumer.ConsumeLifecycleAudit(ctx, reader, audit, log.With(zap.String("topic", topic)))
		}()
	}

	<-ctx.Done()
	log.Info("consumer shutting down")
	wg.Wait()

	return nil
}
