// Package apperr defines the error taxonomy surfaced by the API: every failure
// is one of BadRequest, Unauthorized, NotFound or Internal.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"fintrack/internal/core"
)

type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindNotFound
)

func (k Kind) StatusCode() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) Code() string {
	switch k {
	case KindBadRequest:
		return "BAD_REQUEST"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindNotFound:
		return "NOT_FOUND"
	default:
		return "INTERNAL"
	}
}

type AppError struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Kind.Code(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.Kind.StatusCode()
}

// WithDetails returns a copy of e carrying the given details.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	clone := *e
	clone.Details = make(map[string]any, len(details))
	for k, v := range details {
		clone.Details[k] = v
	}
	return &clone
}

func BadRequest(format string, args ...any) *AppError {
	return &AppError{Kind: KindBadRequest, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

// NotFound reports a missing record of the named resource.
func NotFound(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Message: resource + " not found"}
}

// Internal hides err behind a generic message. A deadline hit anywhere in the
// chain is reported as a timeout.
func Internal(err error) *AppError {
	msg := "internal server error"
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "request timed out"
	}
	return &AppError{Kind: KindInternal, Message: msg, Err: err}
}

// Invalid wraps a domain validation failure as a BadRequest carrying the
// failure text as its message.
func Invalid(err error) *AppError {
	return &AppError{Kind: KindBadRequest, Message: err.Error(), Err: err}
}

// From maps any error onto the taxonomy. AppErrors pass through; a wrapped
// core.ErrNotFound becomes NotFound; everything else is Internal.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, core.ErrNotFound) {
		return &AppError{Kind: KindNotFound, Message: "resource not found", Err: err}
	}
	return Internal(err)
}

func Is(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// FromValidation translates validator failures into a BadRequest whose
// details list one message per field.
func FromValidation(err error) *AppError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return BadRequest("invalid request body").withErr(err)
	}

	fieldErrors := make([]map[string]string, 0, len(validationErrors))
	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msg := translateValidationError(fe)
		fieldErrors = append(fieldErrors, map[string]string{
			"field":   fe.Field(),
			"message": msg,
		})
		messages = append(messages, msg)
	}

	return &AppError{
		Kind:    KindBadRequest,
		Message: strings.Join(messages, "; "),
		Details: map[string]any{"fields": fieldErrors},
		Err:     err,
	}
}

func (e *AppError) withErr(err error) *AppError {
	e.Err = err
	return e
}

func translateValidationError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "notblank":
		return fmt.Sprintf("%s must not be blank", field)
	default:
		return fmt.Sprintf("%s failed %q validation", field, fe.Tag())
	}
}
