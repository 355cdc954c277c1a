// Package pgerror classifies postgres constraint violations surfaced
// through gorm or database/sql.
package pgerror

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	UniqueViolation     = "23505"
	ForeignKeyViolation = "23503"
	CheckViolation      = "23514"
)

// Violation returns the SQLSTATE code and constraint name of err, if it is a
// postgres error.
func Violation(err error) (code, constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName, true
	}
	return "", "", false
}

// IsUniqueViolation also matches the driver's text form, which is all some
// wrapped errors keep.
func IsUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	if code, name, ok := Violation(err); ok {
		return code == UniqueViolation && name == constraint
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key value") && strings.Contains(msg, constraint)
}
