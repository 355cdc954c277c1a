package leave

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ListFilter struct {
	EmployeeID *uint
	Status     string
}

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *LeaveRequest) error
	FindForUpdate(ctx context.Context, id uint) (*LeaveRequest, error)
	UpdateStatus(ctx context.Context, l *LeaveRequest, expectedVersion int) (int64, error)
	FindByID(ctx context.Context, id uint) (*LeaveRow, error)
	FindAll(ctx context.Context, filter ListFilter) ([]LeaveRow, error)
	LockByEmployee(ctx context.Context, employeeID uint) ([]LeaveRequest, error)
	DeleteByEmployee(ctx context.Context, employeeID uint) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) Create(ctx context.Context, l *LeaveRequest) error {
	return r.conn(ctx).Create(l).Error
}

func (r *repository) FindForUpdate(ctx context.Context, id uint) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&l, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateStatus writes the decision fields only if the row still carries
// expectedVersion. Zero rows affected means another writer got there first.
func (r *repository) UpdateStatus(ctx context.Context, l *LeaveRequest, expectedVersion int) (int64, error) {
	res := r.conn(ctx).
		Model(&LeaveRequest{}).
		Where("id = ? AND version = ?", l.ID, expectedVersion).
		Updates(map[string]any{
			"status":     l.Status,
			"decided_by": l.DecidedBy,
			"decided_at": l.DecidedAt,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) listQuery(ctx context.Context) *gorm.DB {
	return r.conn(ctx).
		Table("leave_requests AS lr").
		Select(`lr.*,
			TRIM(e.first_name || ' ' || e.last_name) AS employee_name,
			lt.name AS leave_type_name`).
		Joins("JOIN employees e ON e.id = lr.employee_id").
		Joins("JOIN leave_types lt ON lt.id = lr.leave_type_id")
}

func (r *repository) FindByID(ctx context.Context, id uint) (*LeaveRow, error) {
	var row LeaveRow
	err := r.listQuery(ctx).
		Where("lr.id = ?", id).
		Take(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindAll(ctx context.Context, filter ListFilter) ([]LeaveRow, error) {
	db := r.listQuery(ctx)
	if filter.EmployeeID != nil {
		db = db.Where("lr.employee_id = ?", *filter.EmployeeID)
	}
	if filter.Status != "" {
		db = db.Where("lr.status = ?", filter.Status)
	}

	var rows []LeaveRow
	err := db.Order("lr.submitted_at DESC").Find(&rows).Error
	return rows, err
}

// LockByEmployee holds every request of the employee FOR UPDATE until the
// surrounding transaction ends, so no decision can land on them meanwhile.
func (r *repository) LockByEmployee(ctx context.Context, employeeID uint) ([]LeaveRequest, error) {
	var rows []LeaveRequest
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("employee_id = ?", employeeID).
		Order("id").
		Find(&rows).Error
	return rows, err
}

// DeleteByEmployee never removes an approved request.
func (r *repository) DeleteByEmployee(ctx context.Context, employeeID uint) error {
	return r.conn(ctx).
		Where("employee_id = ? AND status <> ?", employeeID, StatusApproved).
		Delete(&LeaveRequest{}).Error
}
