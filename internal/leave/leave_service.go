package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go-leave/internal/balance"
	"go-leave/internal/domain"
	"go-leave/internal/events"
	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// BalanceCache drops cached balance reads once a deduction has committed.
type BalanceCache interface {
	Invalidate(ctx context.Context, employeeID uint)
}

type Service interface {
	Create(ctx context.Context, employeeID uint, req CreateLeaveRequest) (LeaveResponse, error)
	Cancel(ctx context.Context, employeeID, id uint) (LeaveResponse, error)
	UpdateStatus(ctx context.Context, actorID, id uint, req UpdateStatusRequest) (LeaveResponse, error)
	GetMine(ctx context.Context, employeeID uint) ([]LeaveResponse, error)
	GetAll(ctx context.Context, filter ListFilter) ([]LeaveResponse, error)
	GetByID(ctx context.Context, actorID uint, role string, id uint) (LeaveResponse, error)
	Export(ctx context.Context, filter ListFilter) ([]byte, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	ledger balance.Ledger
	outbox kafka.OutboxRepository
	cache  BalanceCache
	logger *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	ledger balance.Ledger,
	outboxRepo kafka.OutboxRepository,
	cache BalanceCache,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{
		db:     db,
		repo:   repo,
		ledger: ledger,
		outbox: outboxRepo,
		cache:  cache,
		logger: l,
	}
}

func (s *service) Create(ctx context.Context, employeeID uint, req CreateLeaveRequest) (LeaveResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create leave requested",
		zap.String("request_id", rid),
		zap.Uint("employee_id", employeeID),
		zap.Uint("leave_type_id", req.LeaveTypeID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	startDate, err := ParseDate(req.StartDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	endDate, err := ParseDate(req.EndDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	if err := ValidateDates(startDate, endDate, Today()); err != nil {
		s.logger.Warn("create leave validation failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create leave begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	days := DurationDays(startDate, endDate)
	if _, err := s.ledger.WithTx(tx).CheckSufficient(ctx, employeeID, req.LeaveTypeID, days); err != nil {
		s.logger.Warn("create leave balance check failed",
			zap.String("request_id", rid),
			zap.Uint("employee_id", employeeID),
			zap.Int("days", days),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}

	l := &LeaveRequest{
		EmployeeID:  employeeID,
		LeaveTypeID: req.LeaveTypeID,
		StartDate:   startDate,
		EndDate:     endDate,
		SubmittedAt: time.Now().UTC(),
		Reason:      req.Reason,
		Status:      StatusPending,
		Version:     1,
	}
	if err := s.repo.WithTx(tx).Create(ctx, l); err != nil {
		s.logger.Error("create leave persist failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := s.enqueue(ctx, tx, events.EventLeaveRequested, *l, employeeID); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create leave commit failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveResponse{}, err
	}
	s.logger.Info("create leave success",
		zap.String("request_id", rid),
		zap.Uint("leave_id", l.ID),
		zap.Uint("employee_id", employeeID),
		zap.Int("days", days),
	)

	return mapToResponse(LeaveRow{LeaveRequest: *l}), nil
}

func (s *service) Cancel(ctx context.Context, employeeID, id uint) (LeaveResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("cancel leave requested",
		zap.String("request_id", rid),
		zap.Uint("leave_id", id),
		zap.Uint("employee_id", employeeID),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("cancel leave begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	l, err := s.loadForUpdate(ctx, qtx, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	if l.EmployeeID != employeeID {
		return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
	}
	if l.IsTerminal() {
		s.logger.Warn("cancel leave invalid transition",
			zap.Uint("leave_id", id),
			zap.String("from_status", l.Status),
		)
		return LeaveResponse{}, leaveerrors.ErrInvalidStatusTransition
	}
	if DaysUntil(l.StartDate, Today()) < CancellationWindowDays {
		return LeaveResponse{}, leaveerrors.ErrCancellationWindowClosed
	}

	l.Status = StatusCancelled
	if err := s.writeStatus(ctx, qtx, l); err != nil {
		return LeaveResponse{}, err
	}
	if err := s.enqueue(ctx, tx, events.EventLeaveCancelled, *l, employeeID); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("cancel leave commit failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveResponse{}, err
	}
	s.logger.Info("cancel leave success", zap.String("request_id", rid), zap.Uint("leave_id", id))

	return mapToResponse(LeaveRow{LeaveRequest: *l}), nil
}

func (s *service) UpdateStatus(ctx context.Context, actorID, id uint, req UpdateStatusRequest) (LeaveResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("update leave status requested",
		zap.String("request_id", rid),
		zap.Uint("leave_id", id),
		zap.Uint("actor_id", actorID),
		zap.String("target_status", req.Status),
	)

	var eventType string
	switch req.Status {
	case StatusApproved:
		eventType = events.EventLeaveApproved
	case StatusRejected:
		eventType = events.EventLeaveRejected
	default:
		return LeaveResponse{}, leaveerrors.ErrInvalidStatusTransition
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update leave status begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	l, err := s.loadForUpdate(ctx, qtx, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	if l.IsTerminal() {
		s.logger.Warn("update leave status invalid transition",
			zap.Uint("leave_id", id),
			zap.String("from_status", l.Status),
			zap.String("to_status", req.Status),
		)
		return LeaveResponse{}, leaveerrors.ErrInvalidStatusTransition
	}

	if req.Status == StatusApproved {
		ledger := s.ledger.WithTx(tx)
		proof, err := ledger.CheckSufficient(ctx, l.EmployeeID, l.LeaveTypeID, l.TotalDays())
		if err != nil {
			s.logger.Warn("approve leave balance check failed",
				zap.Uint("leave_id", id),
				zap.Error(err),
			)
			return LeaveResponse{}, err
		}
		if err := ledger.Deduct(ctx, proof); err != nil {
			return LeaveResponse{}, err
		}
	}

	now := time.Now().UTC()
	l.Status = req.Status
	l.DecidedBy = &actorID
	l.DecidedAt = &now
	if err := s.writeStatus(ctx, qtx, l); err != nil {
		return LeaveResponse{}, err
	}
	if err := s.enqueue(ctx, tx, eventType, *l, actorID); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("update leave status commit failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveResponse{}, err
	}
	if req.Status == StatusApproved && s.cache != nil {
		s.cache.Invalidate(ctx, l.EmployeeID)
	}
	s.logger.Info("update leave status success",
		zap.String("request_id", rid),
		zap.Uint("leave_id", id),
		zap.String("status", l.Status),
	)

	return mapToResponse(LeaveRow{LeaveRequest: *l}), nil
}

func (s *service) GetMine(ctx context.Context, employeeID uint) ([]LeaveResponse, error) {
	return s.GetAll(ctx, ListFilter{EmployeeID: &employeeID})
}

func (s *service) GetAll(ctx context.Context, filter ListFilter) ([]LeaveResponse, error) {
	rows, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("list leaves failed", zap.Error(err))
		return nil, err
	}
	return mapToListResponse(rows), nil
}

func (s *service) GetByID(ctx context.Context, actorID uint, role string, id uint) (LeaveResponse, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	if !domain.CanAccessEmployee(role, actorID, row.EmployeeID) {
		// Hide other employees' requests rather than confirm they exist.
		return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
	}
	return mapToResponse(*row), nil
}

func (s *service) loadForUpdate(ctx context.Context, repo Repository, id uint) (*LeaveRequest, error) {
	l, err := repo.FindForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leaveerrors.ErrLeaveNotFound
		}
		s.logger.Error("load leave for update failed", zap.Uint("leave_id", id), zap.Error(err))
		return nil, err
	}
	return l, nil
}

func (s *service) writeStatus(ctx context.Context, repo Repository, l *LeaveRequest) error {
	affected, err := repo.UpdateStatus(ctx, l, l.Version)
	if err != nil {
		s.logger.Error("update leave status persist failed", zap.Uint("leave_id", l.ID), zap.Error(err))
		return err
	}
	if affected == 0 {
		s.logger.Warn("leave version conflict", zap.Uint("leave_id", l.ID), zap.Int("version", l.Version))
		return leaveerrors.ErrConcurrentModification
	}
	l.Version++
	return nil
}

func (s *service) enqueue(ctx context.Context, tx *sql.Tx, eventType string, l LeaveRequest, actorID uint) error {
	if s.outbox == nil {
		return nil
	}
	rid := contextutil.GetRequestID(ctx)

	payload, err := json.Marshal(events.LeaveStatusChangedEvent{
		EventType:      eventType,
		RequestID:      rid,
		LeaveRequestID: l.ID,
		EmployeeID:     l.EmployeeID,
		LeaveTypeID:    l.LeaveTypeID,
		Status:         l.Status,
		Days:           l.TotalDays(),
		ActorID:        actorID,
		OccurredAt:     time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("marshal event failed", zap.String("request_id", rid), zap.Error(err))
		return apperror.Wrap(err, apperror.CodeInternalError, "failed to encode leave event", http.StatusInternalServerError)
	}

	if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "leave_request",
		AggregateID:   strconv.FormatUint(uint64(l.ID), 10),
		EventType:     eventType,
		Topic:         events.LeaveLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		s.logger.Error("leave outbox persist failed",
			zap.Uint("leave_id", l.ID),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func mapToResponse(row LeaveRow) LeaveResponse {
	l := row.LeaveRequest
	resp := LeaveResponse{
		ID:            l.ID,
		EmployeeID:    l.EmployeeID,
		EmployeeName:  row.EmployeeName,
		LeaveTypeID:   l.LeaveTypeID,
		LeaveTypeName: row.LeaveTypeName,
		StartDate:     l.StartDate.Format(dateLayout),
		EndDate:       l.EndDate.Format(dateLayout),
		TotalDays:     l.TotalDays(),
		SubmittedAt:   l.SubmittedAt.Format(time.RFC3339),
		Reason:        l.Reason,
		Status:        l.Status,
		DecidedBy:     l.DecidedBy,
	}
	if l.DecidedAt != nil {
		v := l.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &v
	}
	return resp
}

func mapToListResponse(rows []LeaveRow) []LeaveResponse {
	resp := make([]LeaveResponse, len(rows))
	for i, r := range rows {
		resp[i] = mapToResponse(r)
	}
	return resp
}
