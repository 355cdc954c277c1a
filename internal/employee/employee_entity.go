package employee

import (
	"time"

	"go-leave/internal/domain"
)

type Employee struct {
	ID             uint `gorm:"primaryKey"`
	FirstName      string
	LastName       string
	Email          string `gorm:"uniqueIndex:uq_employee_email"`
	Department     string
	Designation    string
	ContactNo      string
	PasswordHash   string  `gorm:"column:password"`
	Role           string  `gorm:"default:EMPLOYEE"`
	ProfilePicture *string `gorm:"column:profile_picture"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Employee) TableName() string {
	return "employees"
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

func (e Employee) IsAdmin() bool {
	return e.Role == domain.RoleAdmin
}
