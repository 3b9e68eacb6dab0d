/*
Package errs provides custom error types and application-level error code constants.

CustomError carries a business code, a client-facing message and the HTTP status used
when the error is returned over HTTP. Over the event channel only code and message are sent.
*/
package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"dancefloor/internal/pkg/logx"
)

// CustomError is the error type shared by HTTP handlers and the presence engine.
type CustomError struct {
	// Code is the business error code (see error_codes.go).
	Code int

	// Message is the client-facing description.
	Message string

	// Status is the HTTP status used when the error ends an HTTP request.
	Status int
}

// Error implements the error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// Is matches any *CustomError with the same code, so errors.Is(err, errs.NewError(code)) works
// regardless of formatted message details.
func (e *CustomError) Is(target error) bool {
	var t *CustomError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// HasCode reports whether err is a *CustomError carrying code.
func HasCode(err error, code int) bool {
	var customErr *CustomError
	return errors.As(err, &customErr) && customErr.Code == code
}

// NewError builds a *CustomError from the template registered for code.
// details are printf arguments for templates that contain a verb. An unknown code yields ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	template, ok := errorMap[code]
	if !ok {
		logx.Error(
			fmt.Errorf("error code %d is not registered", code),
			"Unknown error code requested",
			"requested_code", code,
		)
		template = errorMap[ErrUnknown]
	}

	customErr := template

	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	switch {
	case len(details) == 0:
	case customErr.Code == ErrUnknown:
		if cause, ok := details[0].(error); ok {
			logx.Error(cause, "Handling ErrUnknown with underlying error")
		}
	case strings.Contains(customErr.Message, "%"):
		customErr.Message = fmt.Sprintf(customErr.Message, details...)
	default:
		logx.Warn("Details provided for error, but message template has no formatting placeholders. Details ignored.",
			"code", code)
	}

	return &customErr
}
