package producer

import (
	"context"
	"errors"
	"testing"

	"go-leave/internal/messaging/kafka"
	"go-leave/internal/messaging/kafka/mock"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type fakeWriter struct {
	writeFn func(ctx context.Context, msgs ...kafkago.Message) error
	written []kafkago.Message
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafkago.Message) error {
	if f.writeFn != nil {
		if err := f.writeFn(ctx, msgs...); err != nil {
			return err
		}
	}
	f.written = append(f.written, msgs...)
	return nil
}

func TestProcessPendingEvents(t *testing.T) {
	ctx := context.Background()
	pending := []kafka.OutboxEvent{
		{ID: "e1", RequestID: "r1", AggregateType: "leave_request", AggregateID: "10", EventType: "leave_approved", Topic: "hr.leave.lifecycle.v1", Payload: []byte(`{}`)},
		{ID: "e2", AggregateType: "employee", AggregateID: "3", EventType: "employee_deleted", Topic: "hr.employee.lifecycle.v1", Payload: []byte(`{}`)},
	}

	t.Run("publishes and marks sent", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock.NewMockOutboxRepository(ctrl)
		writer := &fakeWriter{}

		repo.EXPECT().ListPending(ctx, batchSize).Return(pending, nil)
		repo.EXPECT().MarkSent(ctx, "e1").Return(nil)
		repo.EXPECT().MarkSent(ctx, "e2").Return(nil)

		res, err := processPendingEvents(ctx, repo, writer, zap.NewNop())

		assert.NoError(t, err)
		assert.Equal(t, batchResult{Sent: 2}, res)
		assert.Len(t, writer.written, 2)
		assert.Equal(t, "hr.leave.lifecycle.v1", writer.written[0].Topic)
		assert.Equal(t, []byte("10"), writer.written[0].Key)
		assert.Contains(t, writer.written[0].Headers, kafkago.Header{Key: kafka.HeaderRequestID, Value: []byte("r1")})
	})

	t.Run("per-message failure only fails that event", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock.NewMockOutboxRepository(ctrl)
		writer := &fakeWriter{writeFn: func(_ context.Context, msgs ...kafkago.Message) error {
			return kafkago.WriteErrors{errors.New("broker unavailable"), nil}
		}}

		repo.EXPECT().ListPending(ctx, batchSize).Return(pending, nil)
		repo.EXPECT().MarkFailed(ctx, "e1", "broker unavailable").Return(nil)
		repo.EXPECT().MarkSent(ctx, "e2").Return(nil)

		res, err := processPendingEvents(ctx, repo, writer, zap.NewNop())

		assert.NoError(t, err)
		assert.Equal(t, batchResult{Sent: 1, Failed: 1}, res)
	})

	t.Run("whole batch fails on a transport error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock.NewMockOutboxRepository(ctrl)
		writer := &fakeWriter{writeFn: func(_ context.Context, msgs ...kafkago.Message) error {
			return errors.New("dial tcp: connection refused")
		}}

		repo.EXPECT().ListPending(ctx, batchSize).Return(pending, nil)
		repo.EXPECT().MarkFailed(ctx, "e1", "dial tcp: connection refused").Return(nil)
		repo.EXPECT().MarkFailed(ctx, "e2", "dial tcp: connection refused").Return(errors.New("db gone"))

		res, err := processPendingEvents(ctx, repo, writer, zap.NewNop())

		assert.NoError(t, err)
		assert.Equal(t, batchResult{Failed: 2}, res)
		assert.Empty(t, writer.written)
	})

	t.Run("list error is returned", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock.NewMockOutboxRepository(ctrl)

		repo.EXPECT().ListPending(ctx, batchSize).Return(nil, errors.New("db down"))

		_, err := processPendingEvents(ctx, repo, &fakeWriter{}, zap.NewNop())

		assert.EqualError(t, err, "db down")
	})

	t.Run("nothing pending", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := mock.NewMockOutboxRepository(ctrl)
		writer := &fakeWriter{}

		repo.EXPECT().ListPending(ctx, batchSize).Return(nil, nil)

		res, err := processPendingEvents(ctx, repo, writer, zap.NewNop())
		assert.NoError(t, err)
		assert.Equal(t, batchResult{}, res)
		assert.Empty(t, writer.written)
	})
}
