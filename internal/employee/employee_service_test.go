package employee_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"go-leave/internal/balance"
	balanceerrors "go-leave/internal/balance/errors"
	"go-leave/internal/domain"
	"go-leave/internal/employee"
	employeeerrors "go-leave/internal/employee/errors"
	"go-leave/internal/events"
	"go-leave/internal/leave"
	"go-leave/internal/shared/contextutil"
	"go-leave/internal/storage"

	employeeMock "go-leave/internal/employee/mock"
	leaveMock "go-leave/internal/leave/mock"
	"go-leave/internal/messaging/kafka"
	kafkaMock "go-leave/internal/messaging/kafka/mock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeLedger struct {
	replaceAllFn func(ctx context.Context, employeeID uint, entries []balance.Entry) error
}

func (f *fakeLedger) WithTx(*sql.Tx) balance.Ledger { return f }
func (f *fakeLedger) CheckSufficient(context.Context, uint, uint, int) (balance.Sufficiency, error) {
	return balance.Sufficiency{}, nil
}
func (f *fakeLedger) Deduct(context.Context, balance.Sufficiency) error { return nil }
func (f *fakeLedger) ReplaceAll(ctx context.Context, employeeID uint, entries []balance.Entry) error {
	if f.replaceAllFn == nil {
		return nil
	}
	return f.replaceAllFn(ctx, employeeID, entries)
}

type fakeBalanceService struct {
	getFn       func(ctx context.Context, employeeID uint) ([]balance.BalanceResponse, error)
	invalidated []uint
}

func (f *fakeBalanceService) GetByEmployee(ctx context.Context, employeeID uint) ([]balance.BalanceResponse, error) {
	if f.getFn == nil {
		return []balance.BalanceResponse{}, nil
	}
	return f.getFn(ctx, employeeID)
}
func (f *fakeBalanceService) Replace(context.Context, uint, balance.ReplaceBalancesRequest) ([]balance.BalanceResponse, error) {
	return nil, nil
}
func (f *fakeBalanceService) Invalidate(_ context.Context, employeeID uint) {
	f.invalidated = append(f.invalidated, employeeID)
}

type fakeStore struct {
	objects map[string][]byte
	types   map[string]string
	putErr  error
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeStore) Put(_ context.Context, key, contentType string, body io.Reader, _ int64) error {
	if f.putErr != nil {
		return f.putErr
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = raw
	f.types[key] = contentType
	return nil
}

func (f *fakeStore) Get(_ context.Context, key string) (storage.Object, error) {
	raw, ok := f.objects[key]
	if !ok {
		return storage.Object{}, storage.ErrObjectNotFound
	}
	return storage.Object{Body: io.NopCloser(bytes.NewReader(raw)), ContentType: f.types[key], Size: int64(len(raw))}, nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

type serviceDeps struct {
	db       *sql.DB
	sqlMock  sqlmock.Sqlmock
	service  employee.Service
	repo     *employeeMock.MockRepository
	outbox   *kafkaMock.MockOutboxRepository
	ledger   *fakeLedger
	balances *fakeBalanceService
	leaves   *leaveMock.MockRepository
	store    *fakeStore
}

func setupServiceTest(t *testing.T) *serviceDeps {
	t.Helper()
	ctrl := gomock.NewController(t)

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)
	repo := employeeMock.NewMockRepository(ctrl)
	outboxRepo := kafkaMock.NewMockOutboxRepository(ctrl)
	deps := &serviceDeps{
		db:       db,
		sqlMock:  sqlMock,
		repo:     repo,
		outbox:   outboxRepo,
		ledger:   &fakeLedger{},
		balances: &fakeBalanceService{},
		leaves:   leaveMock.NewMockRepository(ctrl),
		store:    newFakeStore(),
	}
	deps.service = employee.NewService(db, repo, deps.ledger, deps.balances, deps.leaves, outboxRepo, deps.store)
	return deps
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func registerRequest() employee.RegisterEmployeeRequest {
	return employee.RegisterEmployeeRequest{
		FirstName:   "Jane",
		LastName:    "Doe",
		Email:       "jane@example.com",
		Department:  "Engineering",
		Designation: "Developer",
		ContactNo:   "0812345678",
		Password:    "secret123",
		LeaveBalances: []balance.BalanceEntryRequest{
			{LeaveTypeID: 1, Balance: intPtr(12)},
			{LeaveTypeID: 2, Balance: intPtr(7)},
		},
	}
}

func TestEmployeeService_Register(t *testing.T) {
	ctx := contextutil.WithRequestID(context.Background(), "req-1")

	t.Run("success - employee, balances and outbox in one tx", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()
		expectTx(t, deps.sqlMock, true)

		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().EmailTaken(gomock.Any(), "jane@example.com", uint(0)).Return(false, nil)
		deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, e *employee.Employee) error {
				assert.Equal(t, domain.RoleEmployee, e.Role)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(e.PasswordHash), []byte("secret123")))
				e.ID = 42
				return nil
			})

		var replaced []balance.Entry
		deps.ledger.replaceAllFn = func(ctx context.Context, employeeID uint, entries []balance.Entry) error {
			assert.Equal(t, uint(42), employeeID)
			replaced = entries
			return nil
		}

		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, ev kafka.OutboxEvent) error {
				assert.Equal(t, events.EmployeeLifecycleTopic, ev.Topic)
				assert.Equal(t, events.EventEmployeeCreated, ev.EventType)
				assert.Equal(t, "42", ev.AggregateID)
				assert.Equal(t, "req-1", ev.RequestID)

				var payload events.EmployeeChangedEvent
				assert.NoError(t, json.Unmarshal(ev.Payload, &payload))
				assert.Equal(t, uint(42), payload.EmployeeID)
				assert.Equal(t, "jane@example.com", payload.Email)
				return nil
			})

		deps.balances.getFn = func(ctx context.Context, employeeID uint) ([]balance.BalanceResponse, error) {
			return []balance.BalanceResponse{
				{LeaveTypeID: 1, LeaveTypeName: "Casual Leave", Balance: 12},
				{LeaveTypeID: 2, LeaveTypeName: "Sick Leave", Balance: 7},
			}, nil
		}

		resp, err := deps.service.Register(ctx, registerRequest())

		assert.NoError(t, err)
		assert.Equal(t, uint(42), resp.ID)
		assert.Equal(t, "Jane Doe", resp.FullName)
		assert.Len(t, resp.LeaveBalances, 2)
		assert.True(t, strings.HasPrefix(resp.ProfilePictureURL, "data:image/svg+xml;base64,"))
		assert.Equal(t, []balance.Entry{{LeaveTypeID: 1, Days: 12}, {LeaveTypeID: 2, Days: 7}}, replaced)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("duplicate email -> conflict, rollback", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()
		expectTx(t, deps.sqlMock, false)

		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().EmailTaken(gomock.Any(), "jane@example.com", uint(0)).Return(true, nil)

		_, err := deps.service.Register(ctx, registerRequest())

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeAlreadyExists)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("unique violation race -> conflict", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()
		expectTx(t, deps.sqlMock, false)

		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().EmailTaken(gomock.Any(), gomock.Any(), uint(0)).Return(false, nil)
		deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(&pgconn.PgError{Code: "23505", ConstraintName: "uq_employee_email"})

		_, err := deps.service.Register(ctx, registerRequest())

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeAlreadyExists)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("rejected balances -> nothing persisted", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()
		expectTx(t, deps.sqlMock, false)

		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().EmailTaken(gomock.Any(), gomock.Any(), uint(0)).Return(false, nil)
		deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		deps.ledger.replaceAllFn = func(context.Context, uint, []balance.Entry) error {
			return balanceerrors.ErrUnknownLeaveType
		}

		_, err := deps.service.Register(ctx, registerRequest())

		assert.ErrorIs(t, err, balanceerrors.ErrUnknownLeaveType)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestEmployeeService_GetAll(t *testing.T) {
	deps := setupServiceTest(t)
	defer deps.db.Close()

	deps.repo.EXPECT().FindAllEmployees(gomock.Any()).Return([]employee.Employee{
		{ID: 2, FirstName: "Ann", LastName: "Lee", Role: domain.RoleEmployee, ProfilePicture: strPtr("profile-pictures/2/a.png")},
		{ID: 3, FirstName: "Bob", LastName: "Ray", Role: domain.RoleEmployee},
	}, nil)

	resp, err := deps.service.GetAll(context.Background())

	assert.NoError(t, err)
	assert.Len(t, resp, 2)
	assert.Equal(t, "/api/v1/employees/2/profile-picture/raw", resp[0].ProfilePictureURL)
	assert.True(t, strings.HasPrefix(resp[1].ProfilePictureURL, "data:image/svg+xml"))
}

func TestEmployeeService_GetByID(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()
		deps.repo.EXPECT().FindByID(gomock.Any(), uint(9)).Return(&employee.Employee{}, gorm.ErrRecordNotFound)

		_, err := deps.service.GetByID(context.Background(), 9)

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
	})

	t.Run("balance read failure does not fail the lookup", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()
		deps.repo.EXPECT().FindByID(gomock.Any(), uint(4)).
			Return(&employee.Employee{ID: 4, FirstName: "Ann", LastName: "Lee"}, nil)
		deps.balances.getFn = func(context.Context, uint) ([]balance.BalanceResponse, error) {
			return nil, errors.New("redis down")
		}

		resp, err := deps.service.GetByID(context.Background(), 4)

		assert.NoError(t, err)
		assert.Equal(t, "Ann Lee", resp.FullName)
		assert.Empty(t, resp.LeaveBalances)
	})
}

func TestEmployeeService_Update(t *testing.T) {
	ctx := context.Background()
	req := employee.UpdateEmployeeRequest{
		FirstName:     "Jane",
		LastName:      "Smith",
		Email:         "jane.smith@example.com",
		Department:    "Finance",
		Designation:   "Analyst",
		ContactNo:     "0800",
		LeaveBalances: []balance.BalanceEntryRequest{{LeaveTypeID: 1, Balance: intPtr(3)}},
	}

	t.Run("success - replaces balances and invalidates cache", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()
		expectTx(t, deps.sqlMock, true)

		existing := &employee.Employee{ID: 5, FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Role: domain.RoleEmployee}
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByID(gomock.Any(), uint(5)).Return(existing, nil)
		deps.repo.EXPECT().EmailTaken(gomock.Any(), "jane.smith@example.com", uint(5)).Return(false, nil)
		deps.repo.EXPECT().Update(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, e *employee.Employee) error {
				assert.Equal(t, "Smith", e.LastName)
				assert.Equal(t, "Finance", e.Department)
				return nil
			})
		called := false
		deps.ledger.replaceAllFn = func(ctx context.Context, employeeID uint, entries []balance.Entry) error {
			called = true
			assert.Equal(t, []balance.Entry{{LeaveTypeID: 1, Days: 3}}, entries)
			return nil
		}

		resp, err := deps.service.Update(ctx, 5, req)

		assert.NoError(t, err)
		assert.True(t, called)
		assert.Equal(t, "Jane Smith", resp.FullName)
		assert.Equal(t, []uint{5}, deps.balances.invalidated)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("admin record is immutable", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()
		expectTx(t, deps.sqlMock, false)

		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByID(gomock.Any(), uint(1)).
			Return(&employee.Employee{ID: 1, Role: domain.RoleAdmin}, nil)

		_, err := deps.service.Update(ctx, 1, req)

		assert.ErrorIs(t, err, employeeerrors.ErrAdminImmutable)
		assert.Empty(t, deps.balances.invalidated)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("email taken by someone else", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()
		expectTx(t, deps.sqlMock, false)

		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByID(gomock.Any(), uint(5)).
			Return(&employee.Employee{ID: 5, Email: "jane@example.com", Role: domain.RoleEmployee}, nil)
		deps.repo.EXPECT().EmailTaken(gomock.Any(), "jane.smith@example.com", uint(5)).Return(true, nil)

		_, err := deps.service.Update(ctx, 5, req)

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeAlreadyExists)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestEmployeeService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("refused when approved leave exists", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()
		expectTx(t, deps.sqlMock, false)

		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByID(gomock.Any(), uint(5)).
			Return(&employee.Employee{ID: 5, Role: domain.RoleEmployee}, nil)
		deps.leaves.EXPECT().WithTx(gomock.Any()).Return(deps.leaves)
		deps.leaves.EXPECT().LockByEmployee(gomock.Any(), uint(5)).Return([]leave.LeaveRequest{
			{ID: 1, EmployeeID: 5, Status: leave.StatusPending},
			{ID: 2, EmployeeID: 5, Status: leave.StatusApproved},
		}, nil)
		deps.leaves.EXPECT().DeleteByEmployee(gomock.Any(), gomock.Any()).Times(0)

		err := deps.service.Delete(ctx, 5)

		assert.ErrorIs(t, err, employeeerrors.ErrHasApprovedLeaves)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("admin cannot be deleted", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()
		expectTx(t, deps.sqlMock, false)

		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByID(gomock.Any(), uint(1)).
			Return(&employee.Employee{ID: 1, Role: domain.RoleAdmin}, nil)

		err := deps.service.Delete(ctx, 1)

		assert.ErrorIs(t, err, employeeerrors.ErrAdminImmutable)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("lock failure aborts before any delete", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()
		expectTx(t, deps.sqlMock, false)

		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByID(gomock.Any(), uint(5)).
			Return(&employee.Employee{ID: 5, Role: domain.RoleEmployee}, nil)
		deps.leaves.EXPECT().WithTx(gomock.Any()).Return(deps.leaves)
		deps.leaves.EXPECT().LockByEmployee(gomock.Any(), uint(5)).Return(nil, errors.New("lock timeout"))

		err := deps.service.Delete(ctx, 5)

		assert.EqualError(t, err, "lock timeout")
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("approval committed after the lock is reported", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()
		expectTx(t, deps.sqlMock, false)

		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByID(gomock.Any(), uint(5)).
			Return(&employee.Employee{ID: 5, Role: domain.RoleEmployee}, nil)
		deps.leaves.EXPECT().WithTx(gomock.Any()).Return(deps.leaves)
		gomock.InOrder(
			deps.leaves.EXPECT().LockByEmployee(gomock.Any(), uint(5)).Return(nil, nil),
			deps.leaves.EXPECT().DeleteByEmployee(gomock.Any(), uint(5)).Return(nil),
		)
		deps.repo.EXPECT().Delete(gomock.Any(), uint(5)).
			Return(&pgconn.PgError{Code: "23503", ConstraintName: "leave_requests_employee_id_fkey"})

		err := deps.service.Delete(ctx, 5)

		assert.ErrorIs(t, err, employeeerrors.ErrHasApprovedLeaves)
		assert.Empty(t, deps.balances.invalidated)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("success - cascades leaves, balances and picture", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()
		expectTx(t, deps.sqlMock, true)

		deps.store.objects["profile-pictures/5/old.png"] = []byte("png")
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByID(gomock.Any(), uint(5)).Return(&employee.Employee{
			ID:             5,
			Email:          "jane@example.com",
			Role:           domain.RoleEmployee,
			ProfilePicture: strPtr("profile-pictures/5/old.png"),
		}, nil)
		deps.leaves.EXPECT().WithTx(gomock.Any()).Return(deps.leaves)
		gomock.InOrder(
			deps.leaves.EXPECT().LockByEmployee(gomock.Any(), uint(5)).Return([]leave.LeaveRequest{
				{ID: 1, EmployeeID: 5, Status: leave.StatusPending},
				{ID: 2, EmployeeID: 5, Status: leave.StatusRejected},
			}, nil),
			deps.leaves.EXPECT().DeleteByEmployee(gomock.Any(), uint(5)).Return(nil),
			deps.repo.EXPECT().Delete(gomock.Any(), uint(5)).Return(nil),
		)

		var cleared bool
		deps.ledger.replaceAllFn = func(ctx context.Context, employeeID uint, entries []balance.Entry) error {
			cleared = employeeID == 5 && len(entries) == 0
			return nil
		}
		deps.outbox.EXPECT().WithTx(gomock.Any()).Return(deps.outbox)
		deps.outbox.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, ev kafka.OutboxEvent) error {
				assert.Equal(t, events.EventEmployeeDeleted, ev.EventType)
				return nil
			})

		err := deps.service.Delete(ctx, 5)

		assert.NoError(t, err)
		assert.True(t, cleared)
		assert.Equal(t, []uint{5}, deps.balances.invalidated)
		assert.Equal(t, []string{"profile-pictures/5/old.png"}, deps.store.deleted)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestEmployeeService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("skips when credentials are missing", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		assert.NoError(t, deps.service.EnsureAdmin(ctx, "", ""))
	})

	t.Run("existing admin is left alone", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()
		deps.repo.EXPECT().FindByEmail(gomock.Any(), "admin@example.com").
			Return(&employee.Employee{ID: 1, Role: domain.RoleAdmin}, nil)

		assert.NoError(t, deps.service.EnsureAdmin(ctx, "admin@example.com", "changeme"))
	})

	t.Run("creates admin when absent", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()
		deps.repo.EXPECT().FindByEmail(gomock.Any(), "admin@example.com").
			Return(&employee.Employee{}, gorm.ErrRecordNotFound)
		deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, e *employee.Employee) error {
				assert.Equal(t, domain.RoleAdmin, e.Role)
				assert.Equal(t, "admin@example.com", e.Email)
				return nil
			})

		assert.NoError(t, deps.service.EnsureAdmin(ctx, "admin@example.com", "changeme"))
	})
}

func TestEmployeeService_Pictures(t *testing.T) {
	ctx := context.Background()
	png := []byte("\x89PNG fake")

	t.Run("unsupported extension", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.UploadPicture(ctx, 5, employee.PictureUpload{
			Filename: "cv.pdf", Size: 10, Body: bytes.NewReader(png),
		})

		assert.ErrorIs(t, err, employeeerrors.ErrUnsupportedPictureType)
	})

	t.Run("mismatched content type", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.UploadPicture(ctx, 5, employee.PictureUpload{
			Filename: "me.png", ContentType: "text/html", Size: 10, Body: bytes.NewReader(png),
		})

		assert.ErrorIs(t, err, employeeerrors.ErrUnsupportedPictureType)
	})

	t.Run("too large", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.UploadPicture(ctx, 5, employee.PictureUpload{
			Filename: "me.JPG", Size: employee.MaxPictureSize + 1, Body: bytes.NewReader(png),
		})

		assert.ErrorIs(t, err, employeeerrors.ErrPictureTooLarge)
	})

	t.Run("replace deletes the previous object", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()
		deps.store.objects["profile-pictures/5/old.gif"] = []byte("gif")

		deps.repo.EXPECT().FindByID(gomock.Any(), uint(5)).Return(&employee.Employee{
			ID: 5, ProfilePicture: strPtr("profile-pictures/5/old.gif"),
		}, nil)
		var storedKey string
		deps.repo.EXPECT().UpdatePicture(gomock.Any(), uint(5), gomock.Any()).
			DoAndReturn(func(ctx context.Context, id uint, key *string) error {
				storedKey = *key
				return nil
			})

		resp, err := deps.service.UploadPicture(ctx, 5, employee.PictureUpload{
			Filename: "me.png", ContentType: "image/png", Size: int64(len(png)), Body: bytes.NewReader(png),
		})

		assert.NoError(t, err)
		assert.False(t, resp.Generated)
		assert.True(t, strings.HasPrefix(storedKey, "profile-pictures/5/"))
		assert.True(t, strings.HasSuffix(storedKey, ".png"))
		assert.Equal(t, png, deps.store.objects[storedKey])
		assert.Equal(t, "image/png", deps.store.types[storedKey])
		assert.Equal(t, []string{"profile-pictures/5/old.gif"}, deps.store.deleted)
	})

	t.Run("get falls back to initials avatar", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()
		deps.repo.EXPECT().FindByID(gomock.Any(), uint(5)).
			Return(&employee.Employee{ID: 5, FirstName: "Jane", LastName: "Doe"}, nil)

		resp, err := deps.service.GetPicture(ctx, 5)

		assert.NoError(t, err)
		assert.True(t, resp.Generated)
		assert.Equal(t, storage.InitialsAvatar("Jane", "Doe"), resp.URL)
	})

	t.Run("open streams the stored object", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()
		deps.store.objects["profile-pictures/5/a.png"] = png
		deps.store.types["profile-pictures/5/a.png"] = "image/png"
		deps.repo.EXPECT().FindByID(gomock.Any(), uint(5)).
			Return(&employee.Employee{ID: 5, ProfilePicture: strPtr("profile-pictures/5/a.png")}, nil)

		obj, err := deps.service.OpenPicture(ctx, 5)

		assert.NoError(t, err)
		raw, _ := io.ReadAll(obj.Body)
		assert.Equal(t, png, raw)
		assert.Equal(t, "image/png", obj.ContentType)
	})

	t.Run("delete without picture -> not found", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()
		deps.repo.EXPECT().FindByID(gomock.Any(), uint(5)).Return(&employee.Employee{ID: 5}, nil)

		err := deps.service.DeletePicture(ctx, 5)

		assert.ErrorIs(t, err, employeeerrors.ErrPictureNotFound)
	})

	t.Run("delete clears the key and the object", func(t *testing.T) {
		deps := setupServiceTest(t)
		defer deps.db.Close()
		deps.store.objects["profile-pictures/5/a.png"] = png
		deps.repo.EXPECT().FindByID(gomock.Any(), uint(5)).
			Return(&employee.Employee{ID: 5, ProfilePicture: strPtr("profile-pictures/5/a.png")}, nil)
		deps.repo.EXPECT().UpdatePicture(gomock.Any(), uint(5), (*string)(nil)).Return(nil)

		err := deps.service.DeletePicture(ctx, 5)

		assert.NoError(t, err)
		assert.NotContains(t, deps.store.objects, "profile-pictures/5/a.png")
	})
}
