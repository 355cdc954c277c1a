package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go-leave/internal/bootstrap"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/contextutil"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the part of *kafkago.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// lifecycleEnvelope holds the fields shared by every leave and employee event.
type lifecycleEnvelope struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ConsumeLifecycleAudit writes one audit entry per lifecycle event until ctx
// is cancelled. Undecodable messages are committed and skipped.
func ConsumeLifecycleAudit(
	ctx context.Context,
	reader MessageReader,
	audit bootstrap.AuditLogger,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.lifecycle_audit")
	log.Info("lifecycle audit consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("lifecycle audit consumer stopped")
				return
			}
			log.Error("fetch lifecycle message failed", zap.Error(err))
			continue
		}

		entry, err := toAuditLog(msg)
		if err != nil {
			log.Error("decode lifecycle event failed",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		auditCtx := ctx
		if rid := header(msg, kafka.HeaderRequestID); rid != "" {
			auditCtx = contextutil.WithRequestID(ctx, rid)
		}
		audit.Log(auditCtx, entry)

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit lifecycle message failed", zap.Error(err))
		}
	}
}

func toAuditLog(msg kafkago.Message) (bootstrap.AuditLog, error) {
	var env lifecycleEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return bootstrap.AuditLog{}, err
	}
	var meta map[string]any
	if err := json.Unmarshal(msg.Value, &meta); err != nil {
		return bootstrap.AuditLog{}, err
	}

	eventType := env.EventType
	if eventType == "" {
		eventType = header(msg, kafka.HeaderEventType)
	}
	if eventType == "" {
		return bootstrap.AuditLog{}, fmt.Errorf("event type missing")
	}

	aggregate := header(msg, kafka.HeaderAggregateType)
	if aggregate == "" {
		aggregate = "aggregate"
	}
	meta["topic"] = msg.Topic

	return bootstrap.AuditLog{
		Action:  strings.ToUpper(eventType),
		Message: fmt.Sprintf("%s %s %s", aggregate, string(msg.Key), strings.ReplaceAll(eventType, "_", " ")),
		Meta:    meta,
	}, nil
}

func header(msg kafkago.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
