package balance

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	FindForUpdate(ctx context.Context, employeeID, leaveTypeID uint) (*LeaveBalance, error)
	Decrement(ctx context.Context, id uint, days int) (int64, error)
	Upsert(ctx context.Context, rows []LeaveBalance) error
	DeleteExcept(ctx context.Context, employeeID uint, keep []uint) error
	FindByEmployee(ctx context.Context, employeeID uint) ([]BalanceRow, error)
	EmployeeExists(ctx context.Context, employeeID uint) (bool, error)
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

func (r *repository) FindForUpdate(ctx context.Context, employeeID, leaveTypeID uint) (*LeaveBalance, error) {
	var b LeaveBalance
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("employee_id = ? AND leave_type_id = ?", employeeID, leaveTypeID).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) Decrement(ctx context.Context, id uint, days int) (int64, error) {
	res := r.conn(ctx).
		Model(&LeaveBalance{}).
		Where("id = ? AND balance >= ?", id, days).
		UpdateColumn("balance", gorm.Expr("balance - ?", days))
	return res.RowsAffected, res.Error
}

// Upsert writes rows in place on (employee_id, leave_type_id), so a row
// keeps its id across replacements.
func (r *repository) Upsert(ctx context.Context, rows []LeaveBalance) error {
	if len(rows) == 0 {
		return nil
	}
	return r.conn(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "employee_id"}, {Name: "leave_type_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"balance"}),
		}).
		Create(&rows).Error
}

// DeleteExcept removes the employee's balances whose leave type is not in
// keep. An empty keep removes them all.
func (r *repository) DeleteExcept(ctx context.Context, employeeID uint, keep []uint) error {
	db := r.conn(ctx).Where("employee_id = ?", employeeID)
	if len(keep) > 0 {
		db = db.Where("leave_type_id NOT IN ?", keep)
	}
	return db.Delete(&LeaveBalance{}).Error
}

func (r *repository) FindByEmployee(ctx context.Context, employeeID uint) ([]BalanceRow, error) {
	var rows []BalanceRow
	err := r.conn(ctx).
		Table("leave_balances AS lb").
		Select("lb.id, lb.employee_id, lb.leave_type_id, lt.name AS leave_type_name, lb.balance").
		Joins("JOIN leave_types lt ON lt.id = lb.leave_type_id").
		Where("lb.employee_id = ?", employeeID).
		Order("lt.name ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) EmployeeExists(ctx context.Context, employeeID uint) (bool, error) {
	var count int64
	err := r.conn(ctx).
		Table("employees").
		Where("id = ?", employeeID).
		Count(&count).Error
	return count > 0, err
}
