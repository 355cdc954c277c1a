package employeeerrors

import (
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"Employee not found",
		http.StatusNotFound,
	)
	ErrEmployeeAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"Employee with the same email already exists",
		http.StatusConflict,
	)
	ErrAdminImmutable = apperror.New(
		apperror.CodeForbidden,
		"Administrator accounts cannot be modified",
		http.StatusForbidden,
	)
	ErrHasApprovedLeaves = apperror.New(
		apperror.CodeInvalidState,
		"Employee has approved leave requests and cannot be deleted",
		http.StatusBadRequest,
	)
	ErrUnsupportedPictureType = apperror.New(
		apperror.CodeInvalidInput,
		"Profile picture must be a jpg, jpeg, png or gif file",
		http.StatusBadRequest,
	)
	ErrPictureTooLarge = apperror.New(
		apperror.CodeInvalidInput,
		"Profile picture must not exceed 5MB",
		http.StatusBadRequest,
	)
	ErrPictureRequired = apperror.New(
		apperror.CodeInvalidInput,
		"file is required",
		http.StatusBadRequest,
	)
)

var ErrPictureNotFound = apperror.New(
	apperror.CodeNotFound,
	"Profile picture not found",
	http.StatusNotFound,
)
