package leaveerrors

import (
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrPastStartDate = apperror.New(
		apperror.CodeInvalidInput,
		"start_date cannot be in the past",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"end_date cannot be before start_date",
		http.StatusBadRequest,
	)
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeInvalidState,
		"only pending leave requests can change status",
		http.StatusBadRequest,
	)
	ErrCancellationWindowClosed = apperror.New(
		apperror.CodeInvalidState,
		"leave cannot be cancelled within 3 days of its start date",
		http.StatusBadRequest,
	)
	ErrConcurrentModification = apperror.New(
		apperror.CodeConflict,
		"leave request was modified concurrently, retry the operation",
		http.StatusConflict,
	)
)
