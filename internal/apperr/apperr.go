// Package apperr defines the domain error taxonomy. Errors are raised at
// the point of detection and surface unchanged to the HTTP layer, which
// maps each kind to a status code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error.
type Kind int

// Kind constants cover every error class the API can return.
const (
	// KindValidation marks malformed or policy-violating input.
	KindValidation Kind = iota + 1
	// KindUnauthorized marks missing or invalid credentials.
	KindUnauthorized
	// KindForbidden marks insufficient permissions or blocked accounts.
	KindForbidden
	// KindNotFound marks a missing entity.
	KindNotFound
	// KindConflict marks a uniqueness violation such as a duplicate email.
	KindConflict
	// KindUpstream marks a failed external dependency call.
	KindUpstream
)

// Error is a classified domain error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error returns the user-facing message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind to an HTTP status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// New builds a classified error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a classified error around a cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Validation builds a 400-class error.
func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

// Unauthorized builds a 401-class error.
func Unauthorized(format string, args ...any) *Error {
	return New(KindUnauthorized, format, args...)
}

// Forbidden builds a 403-class error.
func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, format, args...)
}

// NotFound builds a 404-class error.
func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

// Conflict builds a 409-class error.
func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

// Upstream builds a 500-class error for failed external calls.
func Upstream(format string, args ...any) *Error {
	return New(KindUpstream, format, args...)
}

// As extracts a classified error from an error chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether the error chain contains a classified error
// of the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}
