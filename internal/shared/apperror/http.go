package apperror

import (
	"errors"
	"net/http"
)

// HTTPError adalah bentuk error yang siap dikirim ke client.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Details any
}

// Detailer is implemented by domain errors that carry structured data
// (e.g. the numbers behind an insufficient balance) without being AppErrors themselves.
type Detailer interface {
	ErrorDetails() any
}

// ToHTTP resolves any error returned by a service into a client response.
// Errors outside the AppError family are reported as INTERNAL_ERROR so that
// driver messages never leak to the client.
func ToHTTP(err error) HTTPError {
	if err == nil {
		return HTTPError{Status: http.StatusOK}
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		return HTTPError{
			Status:  ErrInternal.HTTPStatus,
			Code:    ErrInternal.Code,
			Message: ErrInternal.Message,
		}
	}

	httpErr := HTTPError{
		Status:  appErr.HTTPStatus,
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
	if httpErr.Status == 0 {
		httpErr.Status = http.StatusInternalServerError
	}

	var detailer Detailer
	if errors.As(err, &detailer) {
		httpErr.Message = err.Error()
		httpErr.Details = detailer.ErrorDetails()
	}
	return httpErr
}
