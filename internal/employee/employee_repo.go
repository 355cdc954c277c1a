package employee

import (
	"context"
	"database/sql"

	"go-leave/internal/domain"

	"gorm.io/gorm"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, empl *Employee) error
	FindAllEmployees(ctx context.Context) ([]Employee, error)
	FindByID(ctx context.Context, id uint) (*Employee, error)
	FindByEmail(ctx context.Context, email string) (*Employee, error)
	EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error)
	Update(ctx context.Context, empl *Employee) error
	UpdatePicture(ctx context.Context, id uint, key *string) error
	Delete(ctx context.Context, id uint) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{
		db: r.db,
		tx: tx,
	}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) Create(ctx context.Context, empl *Employee) error {
	return r.conn(ctx).Create(empl).Error
}

// FindAllEmployees excludes administrators.
func (r *repository) FindAllEmployees(ctx context.Context) ([]Employee, error) {
	var empls []Employee
	err := r.conn(ctx).
		Where("role = ?", domain.RoleEmployee).
		Order("first_name, last_name").
		Find(&empls).Error
	return empls, err
}

func (r *repository) FindByID(ctx context.Context, id uint) (*Employee, error) {
	var empl Employee
	err := r.conn(ctx).First(&empl, "id = ?", id).Error
	return &empl, err
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*Employee, error) {
	var empl Employee
	err := r.conn(ctx).First(&empl, "LOWER(email) = LOWER(?)", email).Error
	return &empl, err
}

func (r *repository) EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	var count int64
	err := r.conn(ctx).
		Model(&Employee{}).
		Where("LOWER(email) = LOWER(?)", email).
		Where("id <> ?", excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) Update(ctx context.Context, empl *Employee) error {
	return r.conn(ctx).Save(empl).Error
}

func (r *repository) UpdatePicture(ctx context.Context, id uint, key *string) error {
	return r.conn(ctx).
		Model(&Employee{}).
		Where("id = ?", id).
		Update("profile_picture", key).Error
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	return r.conn(ctx).Delete(&Employee{}, "id = ?", id).Error
}
