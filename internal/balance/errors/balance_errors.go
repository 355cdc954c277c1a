package balanceerrors

import (
	"fmt"
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrBalanceNotFound = apperror.New(
		apperror.CodeBalanceNotFound,
		"no leave balance for this leave type",
		http.StatusUnprocessableEntity,
	)
	ErrInsufficientBalance = apperror.New(
		apperror.CodeInsufficientBalance,
		"insufficient leave balance",
		http.StatusUnprocessableEntity,
	)
	ErrNegativeEntitlement = apperror.New(
		apperror.CodeInvalidInput,
		"leave balance cannot be negative",
		http.StatusBadRequest,
	)
	ErrUnknownLeaveType = apperror.New(
		apperror.CodeInvalidInput,
		"unknown leave type",
		http.StatusBadRequest,
	)
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found",
		http.StatusNotFound,
	)

	// Contract failures. Reaching either means a caller skipped the ledger protocol.
	ErrDeductWithoutCheck = apperror.New(
		apperror.CodeInternalError,
		"balance deduction attempted without a sufficiency check",
		http.StatusInternalServerError,
	)
	ErrNegativeBalance = apperror.New(
		apperror.CodeInternalError,
		"balance deduction would make the balance negative",
		http.StatusInternalServerError,
	)
)

// InsufficientBalanceError carries the numbers behind a refused request.
// errors.Is(err, ErrInsufficientBalance) holds for it.
type InsufficientBalanceError struct {
	Available int
	Requested int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient leave balance: available %d, requested %d", e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

func (e *InsufficientBalanceError) ErrorDetails() any {
	return map[string]int{
		"available": e.Available,
		"requested": e.Requested,
	}
}
