// Package errors defines AppError, the error type HTTP handlers turn into
// status codes, and the sentinels it wraps.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels. Every AppError built by this package wraps one of them, so
// errors.Is works across package boundaries.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrGone           = errors.New("gone")
	ErrUnprocessable  = errors.New("unprocessable")
	ErrServiceUnavail = errors.New("service unavailable")
)

type kind struct {
	sentinel error
	status   int
	code     string
}

// kinds is ordered by lookup priority.
var kinds = []kind{
	{ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
	{ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
	{ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{ErrConflict, http.StatusConflict, "CONFLICT"},
	{ErrGone, http.StatusGone, "GONE"},
	{ErrUnprocessable, http.StatusUnprocessableEntity, "UNPROCESSABLE"},
	{ErrServiceUnavail, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
}

// AppError carries a machine-readable code and a message safe to show to
// the caller. Err is never serialised.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

func newError(sentinel error, message string) *AppError {
	for _, k := range kinds {
		if k.sentinel == sentinel {
			return &AppError{Code: k.code, Message: message, Status: k.status, Err: sentinel}
		}
	}
	return Internal(sentinel)
}

// NotFound reports a missing resource by type and id.
func NotFound(resource, id string) *AppError {
	return newError(ErrNotFound, fmt.Sprintf("%s with id %s not found", resource, id))
}

func InvalidInput(message string) *AppError { return newError(ErrInvalidInput, message) }

func Unauthorized(message string) *AppError { return newError(ErrUnauthorized, message) }

func Forbidden(message string) *AppError { return newError(ErrForbidden, message) }

// Conflict reports a request that clashes with current state, such as a
// second add-to-cart while the first is in flight.
func Conflict(message string) *AppError { return newError(ErrConflict, message) }

func Gone(message string) *AppError { return newError(ErrGone, message) }

// Unprocessable reports a well-formed request that fails a business
// precondition. code replaces the generic UNPROCESSABLE when set.
func Unprocessable(code, message string) *AppError {
	e := newError(ErrUnprocessable, message)
	if code != "" {
		e.Code = code
	}
	return e
}

func ServiceUnavailable(message string) *AppError { return newError(ErrServiceUnavail, message) }

// Internal hides err behind a generic 500.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// FromStatus rebuilds an AppError from a downstream status. Statuses without
// a sentinel keep their status and code unwrapped.
func FromStatus(status int, code, message string) *AppError {
	for _, k := range kinds {
		if k.status == status {
			e := newError(k.sentinel, message)
			if code != "" {
				e.Code = code
			}
			return e
		}
	}
	if code == "" {
		code = http.StatusText(status)
	}
	return &AppError{Code: code, Message: message, Status: status}
}

// HTTPStatus returns the status an error should be served with. An AppError
// decides for itself; otherwise the first wrapped sentinel wins and anything
// else is a 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.status
		}
	}
	return http.StatusInternalServerError
}

// Code returns the code an error should be served with, following the same
// rules as HTTPStatus.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.code
		}
	}
	return "INTERNAL_ERROR"
}
