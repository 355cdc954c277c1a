package employee

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go-leave/internal/balance"
	"go-leave/internal/domain"
	employeeerrors "go-leave/internal/employee/errors"
	"go-leave/internal/events"
	"go-leave/internal/leave"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/contextutil"
	"go-leave/internal/shared/pgerror"
	"go-leave/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	MaxPictureSize   = 5 << 20
	pictureKeyPrefix = "profile-pictures"
)

var allowedPictureTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// PictureUpload is one multipart file as received by the handler.
type PictureUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type Service interface {
	Register(ctx context.Context, req RegisterEmployeeRequest) (EmployeeResponse, error)
	GetAll(ctx context.Context) ([]EmployeeResponse, error)
	GetByID(ctx context.Context, id uint) (EmployeeResponse, error)
	Update(ctx context.Context, id uint, req UpdateEmployeeRequest) (EmployeeResponse, error)
	Delete(ctx context.Context, id uint) error
	EnsureAdmin(ctx context.Context, email, password string) error

	UploadPicture(ctx context.Context, id uint, upload PictureUpload) (PictureResponse, error)
	GetPicture(ctx context.Context, id uint) (PictureResponse, error)
	OpenPicture(ctx context.Context, id uint) (storage.Object, error)
	DeletePicture(ctx context.Context, id uint) error
}

type service struct {
	db       *sql.DB
	repo     Repository
	ledger   balance.Ledger
	balances balance.Service
	leaves   leave.Repository
	outbox   kafka.OutboxRepository
	store    storage.ObjectStore
	logger   *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	ledger balance.Ledger,
	balances balance.Service,
	leaves leave.Repository,
	outboxRepo kafka.OutboxRepository,
	store storage.ObjectStore,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{
		db:       db,
		repo:     repo,
		ledger:   ledger,
		balances: balances,
		leaves:   leaves,
		outbox:   outboxRepo,
		store:    store,
		logger:   l,
	}
}

func (s *service) Register(ctx context.Context, req RegisterEmployeeRequest) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("register employee requested",
		zap.String("request_id", rid),
		zap.String("email", req.Email),
		zap.Int("balances", len(req.LeaveBalances)),
	)

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("register employee hash password failed", zap.Error(err))
		return EmployeeResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("register employee begin tx failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	taken, err := qtx.EmailTaken(ctx, req.Email, 0)
	if err != nil {
		return EmployeeResponse{}, err
	}
	if taken {
		return EmployeeResponse{}, employeeerrors.ErrEmployeeAlreadyExists
	}

	empl := &Employee{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Department:   req.Department,
		Designation:  req.Designation,
		ContactNo:    req.ContactNo,
		PasswordHash: string(hash),
		Role:         domain.RoleEmployee,
	}
	if err := qtx.Create(ctx, empl); err != nil {
		s.logger.Error("register employee persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}

	if err := s.ledger.WithTx(tx).ReplaceAll(ctx, empl.ID, balance.ToEntries(req.LeaveBalances)); err != nil {
		s.logger.Warn("register employee balances rejected", zap.Uint("employee_id", empl.ID), zap.Error(err))
		return EmployeeResponse{}, err
	}

	if err := s.enqueue(ctx, tx, events.EventEmployeeCreated, *empl); err != nil {
		return EmployeeResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("commit failed", zap.String("request_id", rid), zap.Error(err))
		return EmployeeResponse{}, err
	}
	s.logger.Info("register employee success",
		zap.String("request_id", rid),
		zap.Uint("employee_id", empl.ID),
	)

	return s.withBalances(ctx, *empl), nil
}

func (s *service) GetAll(ctx context.Context) ([]EmployeeResponse, error) {
	empls, err := s.repo.FindAllEmployees(ctx)
	if err != nil {
		s.logger.Error("get all employees failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}
	return mapToListResponse(empls), nil
}

func (s *service) GetByID(ctx context.Context, id uint) (EmployeeResponse, error) {
	s.logger.Debug("get employee by id requested", zap.Uint("employee_id", id))
	empl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return EmployeeResponse{}, mapRepositoryError(err)
	}
	return s.withBalances(ctx, *empl), nil
}

func (s *service) Update(ctx context.Context, id uint, req UpdateEmployeeRequest) (EmployeeResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("update employee requested",
		zap.String("request_id", rid),
		zap.Uint("employee_id", id),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update employee begin tx failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	empl, err := qtx.FindByID(ctx, id)
	if err != nil {
		return EmployeeResponse{}, mapRepositoryError(err)
	}
	if empl.IsAdmin() {
		return EmployeeResponse{}, employeeerrors.ErrAdminImmutable
	}

	if !strings.EqualFold(empl.Email, req.Email) {
		taken, err := qtx.EmailTaken(ctx, req.Email, id)
		if err != nil {
			return EmployeeResponse{}, err
		}
		if taken {
			return EmployeeResponse{}, employeeerrors.ErrEmployeeAlreadyExists
		}
	}

	empl.FirstName = req.FirstName
	empl.LastName = req.LastName
	empl.Email = req.Email
	empl.Department = req.Department
	empl.Designation = req.Designation
	empl.ContactNo = req.ContactNo

	if err := qtx.Update(ctx, empl); err != nil {
		s.logger.Error("update employee persist failed", zap.Error(err))
		return EmployeeResponse{}, mapRepositoryError(err)
	}
	if err := s.ledger.WithTx(tx).ReplaceAll(ctx, id, balance.ToEntries(req.LeaveBalances)); err != nil {
		s.logger.Warn("update employee balances rejected", zap.Uint("employee_id", id), zap.Error(err))
		return EmployeeResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("update employee commit failed", zap.Error(err))
		return EmployeeResponse{}, err
	}
	s.balances.Invalidate(ctx, id)

	s.logger.Info("update employee success", zap.Uint("employee_id", id))
	return s.withBalances(ctx, *empl), nil
}

// Delete removes an employee together with their balances and leave
// history. Employees with approved leave are kept.
func (s *service) Delete(ctx context.Context, id uint) error {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("delete employee requested", zap.String("request_id", rid), zap.Uint("employee_id", id))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("delete employee begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	empl, err := qtx.FindByID(ctx, id)
	if err != nil {
		return mapRepositoryError(err)
	}
	if empl.IsAdmin() {
		return employeeerrors.ErrAdminImmutable
	}

	ltx := s.leaves.WithTx(tx)
	requests, err := ltx.LockByEmployee(ctx, id)
	if err != nil {
		s.logger.Error("delete employee lock leaves failed", zap.Error(err))
		return err
	}
	for _, r := range requests {
		if r.Status == leave.StatusApproved {
			s.logger.Warn("delete employee refused, approved leave exists",
				zap.Uint("employee_id", id),
				zap.Uint("leave_id", r.ID),
			)
			return employeeerrors.ErrHasApprovedLeaves
		}
	}

	if err := ltx.DeleteByEmployee(ctx, id); err != nil {
		s.logger.Error("delete employee leaves failed", zap.Error(err))
		return err
	}
	if err := s.ledger.WithTx(tx).ReplaceAll(ctx, id, nil); err != nil {
		s.logger.Error("delete employee balances failed", zap.Error(err))
		return err
	}
	if err := qtx.Delete(ctx, id); err != nil {
		if code, constraint, ok := pgerror.Violation(err); ok &&
			code == pgerror.ForeignKeyViolation && constraint == leaveEmployeeConstraint {
			s.logger.Warn("delete employee refused, leave approved concurrently", zap.Uint("employee_id", id))
			return employeeerrors.ErrHasApprovedLeaves
		}
		s.logger.Error("delete employee failed", zap.Error(err))
		return mapRepositoryError(err)
	}
	if err := s.enqueue(ctx, tx, events.EventEmployeeDeleted, *empl); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("delete employee commit failed", zap.Error(err))
		return err
	}
	s.balances.Invalidate(ctx, id)
	if empl.ProfilePicture != nil {
		s.removeObject(ctx, *empl.ProfilePicture)
	}

	s.logger.Info("delete employee success", zap.String("request_id", rid), zap.Uint("employee_id", id))
	return nil
}

// EnsureAdmin seeds the administrator account when it does not exist yet.
func (s *service) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		s.logger.Warn("admin seed skipped, credentials not configured")
		return nil
	}

	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &Employee{
		FirstName:    "System",
		LastName:     "Administrator",
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		return mapRepositoryError(err)
	}
	s.logger.Info("admin account seeded", zap.Uint("employee_id", admin.ID))
	return nil
}

func (s *service) UploadPicture(ctx context.Context, id uint, upload PictureUpload) (PictureResponse, error) {
	if upload.Body == nil || upload.Size == 0 {
		return PictureResponse{}, employeeerrors.ErrPictureRequired
	}
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	contentType, ok := allowedPictureTypes[ext]
	if !ok {
		return PictureResponse{}, employeeerrors.ErrUnsupportedPictureType
	}
	if upload.ContentType != "" && !strings.EqualFold(upload.ContentType, contentType) {
		return PictureResponse{}, employeeerrors.ErrUnsupportedPictureType
	}
	if upload.Size > MaxPictureSize {
		return PictureResponse{}, employeeerrors.ErrPictureTooLarge
	}

	empl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return PictureResponse{}, mapRepositoryError(err)
	}

	key := fmt.Sprintf("%s/%d/%s%s", pictureKeyPrefix, id, uuid.NewString(), ext)
	if err := s.store.Put(ctx, key, contentType, upload.Body, upload.Size); err != nil {
		s.logger.Error("upload picture failed", zap.Uint("employee_id", id), zap.Error(err))
		return PictureResponse{}, apperror.Wrap(err, apperror.CodeServiceUnavailable, "Failed to store profile picture", http.StatusServiceUnavailable)
	}
	if err := s.repo.UpdatePicture(ctx, id, &key); err != nil {
		s.removeObject(ctx, key)
		return PictureResponse{}, mapRepositoryError(err)
	}
	if empl.ProfilePicture != nil {
		s.removeObject(ctx, *empl.ProfilePicture)
	}

	s.logger.Info("upload picture success", zap.Uint("employee_id", id), zap.String("key", key))
	return PictureResponse{URL: pictureURL(id)}, nil
}

func (s *service) GetPicture(ctx context.Context, id uint) (PictureResponse, error) {
	empl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return PictureResponse{}, mapRepositoryError(err)
	}
	if empl.ProfilePicture == nil {
		return PictureResponse{URL: storage.InitialsAvatar(empl.FirstName, empl.LastName), Generated: true}, nil
	}
	return PictureResponse{URL: pictureURL(id)}, nil
}

func (s *service) OpenPicture(ctx context.Context, id uint) (storage.Object, error) {
	empl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return storage.Object{}, mapRepositoryError(err)
	}
	if empl.ProfilePicture == nil {
		return storage.Object{}, employeeerrors.ErrPictureNotFound
	}

	obj, err := s.store.Get(ctx, *empl.ProfilePicture)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return storage.Object{}, employeeerrors.ErrPictureNotFound
		}
		return storage.Object{}, err
	}
	return obj, nil
}

func (s *service) DeletePicture(ctx context.Context, id uint) error {
	empl, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapRepositoryError(err)
	}
	if empl.ProfilePicture == nil {
		return employeeerrors.ErrPictureNotFound
	}

	if err := s.repo.UpdatePicture(ctx, id, nil); err != nil {
		return mapRepositoryError(err)
	}
	s.removeObject(ctx, *empl.ProfilePicture)

	s.logger.Info("delete picture success", zap.Uint("employee_id", id))
	return nil
}

// removeObject is best effort; an orphaned object is only logged.
func (s *service) removeObject(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Error("delete stored picture failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *service) withBalances(ctx context.Context, empl Employee) EmployeeResponse {
	resp := mapToResponse(empl)
	balances, err := s.balances.GetByEmployee(ctx, empl.ID)
	if err != nil {
		s.logger.Warn("load employee balances failed", zap.Uint("employee_id", empl.ID), zap.Error(err))
		return resp
	}
	resp.LeaveBalances = balances
	return resp
}

func (s *service) enqueue(ctx context.Context, tx *sql.Tx, eventType string, empl Employee) error {
	if s.outbox == nil {
		return nil
	}
	rid := contextutil.GetRequestID(ctx)

	payload, err := json.Marshal(events.EmployeeChangedEvent{
		EventType:  eventType,
		RequestID:  rid,
		EmployeeID: empl.ID,
		Email:      empl.Email,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("marshal event failed", zap.String("request_id", rid), zap.Error(err))
		return err
	}

	if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: "employee",
		AggregateID:   strconv.FormatUint(uint64(empl.ID), 10),
		EventType:     eventType,
		Topic:         events.EmployeeLifecycleTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		s.logger.Error("employee outbox persist failed",
			zap.Uint("employee_id", empl.ID),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func pictureURL(id uint) string {
	return fmt.Sprintf("/api/v1/employees/%d/profile-picture/raw", id)
}

func mapToResponse(empl Employee) EmployeeResponse {
	resp := EmployeeResponse{
		ID:            empl.ID,
		FirstName:     empl.FirstName,
		LastName:      empl.LastName,
		FullName:      empl.FullName(),
		Email:         empl.Email,
		Department:    empl.Department,
		Designation:   empl.Designation,
		ContactNo:     empl.ContactNo,
		Role:          empl.Role,
		LeaveBalances: []balance.BalanceResponse{},
	}
	if empl.ProfilePicture != nil {
		resp.ProfilePictureURL = pictureURL(empl.ID)
	} else {
		resp.ProfilePictureURL = storage.InitialsAvatar(empl.FirstName, empl.LastName)
	}
	return resp
}

func mapToListResponse(empls []Employee) []EmployeeResponse {
	res := make([]EmployeeResponse, len(empls))
	for i, e := range empls {
		res[i] = mapToResponse(e)
	}
	return res
}
