package employee

import (
	"errors"

	employeeerrors "go-leave/internal/employee/errors"
	"go-leave/internal/shared/pgerror"

	"gorm.io/gorm"
)

const (
	emailConstraint         = "uq_employee_email"
	leaveEmployeeConstraint = "leave_requests_employee_id_fkey"
)

func mapRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return employeeerrors.ErrEmployeeNotFound
	case pgerror.IsUniqueViolation(err, emailConstraint):
		return employeeerrors.ErrEmployeeAlreadyExists
	default:
		return err
	}
}
