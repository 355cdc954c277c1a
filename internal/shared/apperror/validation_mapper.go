package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// start_date -> Start Date
func formatFieldName(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	caser := cases.Title(language.English)
	return caser.String(s)
}

// MapValidationError turns the first gin binding failure into a client error.
// Field names come from json tags thanks to the tag-name func registered in Init.
func MapValidationError(err error) *AppError {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		e := errs[0]
		field := formatFieldName(e.Field())

		switch e.Tag() {
		case "required":
			return RequiredField(field)
		case "oneof":
			return New(
				CodeInvalidInput,
				fmt.Sprintf("%s must be one of: %s", field, e.Param()),
				http.StatusBadRequest,
			)
		case "max":
			return New(
				CodeInvalidInput,
				fmt.Sprintf("%s must be at most %s characters", field, e.Param()),
				http.StatusBadRequest,
			)
		case "min":
			return New(
				CodeInvalidInput,
				fmt.Sprintf("%s must be at least %s", field, e.Param()),
				http.StatusBadRequest,
			)
		default:
			return InvalidField(field)
		}
	}

	return New(
		CodeInvalidInput,
		"Invalid input",
		http.StatusBadRequest,
	)
}
