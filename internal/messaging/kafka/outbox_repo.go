package kafka

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Kafka message headers set by the outbox worker.
const (
	HeaderEventType     = "event_type"
	HeaderAggregateType = "aggregate_type"
	HeaderRequestID     = "request_id"
)

const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
	// OutboxStatusDead rows exhausted MaxDeliveryAttempts and are never retried.
	OutboxStatusDead = "dead"

	MaxDeliveryAttempts = 10
)

type OutboxEvent struct {
	ID            string
	RequestID     string
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	Payload       []byte
	Status        string
	RetryCount    int
	NextRetryAt   time.Time
}

//go:generate mockgen -source=outbox_repo.go -destination=mock/outbox_repo_mock.go -package=mock

// OutboxRepository stores lifecycle events in the same transaction as the
// state change they describe. Only Create honours WithTx; the delivery
// methods run on the pool.
type OutboxRepository interface {
	WithTx(tx *sql.Tx) OutboxRepository
	Create(ctx context.Context, event OutboxEvent) error
	ListPending(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type outboxRepository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewOutboxRepository(db *sql.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) WithTx(tx *sql.Tx) OutboxRepository {
	return &outboxRepository{db: r.db, tx: tx}
}

func (r *outboxRepository) conn() execer {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const insertOutboxSQL = `
INSERT INTO outbox_events (id, request_id, aggregate_type, aggregate_id, event_type, topic, payload, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func (r *outboxRepository) Create(ctx context.Context, event OutboxEvent) error {
	if err := ValidateOutboxEvent(event); err != nil {
		return err
	}
	_, err := r.conn().ExecContext(ctx, insertOutboxSQL,
		event.ID, event.RequestID, event.AggregateType, event.AggregateID,
		event.EventType, event.Topic, event.Payload, event.Status,
	)
	return err
}

// Rows are delivered oldest first; failed rows wait out their backoff.
const listPendingSQL = `
SELECT id::text, request_id, aggregate_type, aggregate_id, event_type, topic,
       payload, status, retry_count, COALESCE(next_retry_at, created_at)
FROM outbox_events
WHERE status IN ($1, $2)
  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
ORDER BY created_at
LIMIT $3`

func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]OutboxEvent, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, listPendingSQL, OutboxStatusPending, OutboxStatusFailed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pending := make([]OutboxEvent, 0, limit)
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(
			&e.ID, &e.RequestID, &e.AggregateType, &e.AggregateID, &e.EventType,
			&e.Topic, &e.Payload, &e.Status, &e.RetryCount, &e.NextRetryAt,
		); err != nil {
			return nil, err
		}
		pending = append(pending, e)
	}
	return pending, rows.Err()
}

const markSentSQL = `
UPDATE outbox_events
SET status = $2, processed_at = NOW(), error_message = NULL, updated_at = NOW()
WHERE id = $1`

func (r *outboxRepository) MarkSent(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, markSentSQL, id, OutboxStatusSent)
	return err
}

// Backoff grows by 15s per attempt; the last allowed attempt parks the row as dead.
const markFailedSQL = `
UPDATE outbox_events
SET retry_count   = retry_count + 1,
    status        = CASE WHEN retry_count + 1 >= $4 THEN $5 ELSE $2 END,
    error_message = LEFT($3, 500),
    next_retry_at = NOW() + ((retry_count + 1) * INTERVAL '15 seconds'),
    updated_at    = NOW()
WHERE id = $1`

func (r *outboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	_, err := r.db.ExecContext(ctx, markFailedSQL,
		id, OutboxStatusFailed, reason, MaxDeliveryAttempts, OutboxStatusDead,
	)
	return err
}

func ValidateOutboxEvent(event OutboxEvent) error {
	switch {
	case event.ID == "":
		return errors.New("outbox id is required")
	case event.Topic == "":
		return errors.New("outbox topic is required")
	case len(event.Payload) == 0:
		return errors.New("outbox payload is required")
	}
	switch event.Status {
	case OutboxStatusPending, OutboxStatusSent, OutboxStatusFailed, OutboxStatusDead:
		return nil
	default:
		return fmt.Errorf("invalid outbox status: %s", event.Status)
	}
}
