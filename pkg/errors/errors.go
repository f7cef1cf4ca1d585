package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a domain error that knows its HTTP status. Two errors with the same
// Code are the same kind of failure regardless of message or cause.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is match on Code, so a cloned or wrapped ErrNotFound still
// matches ErrNotFound.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// WrapAs records err as the cause of a failure of the given kind. An empty
// message keeps the kind's default.
func WrapAs(err error, kind *Error, message string) *Error {
	if message == "" {
		message = kind.Message
	}
	return &Error{Code: kind.Code, Status: kind.Status, Message: message, Err: err}
}

var (
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss    = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Timetable failures.
var (
	ErrInvalidGridConfiguration = New("INVALID_GRID_CONFIGURATION", http.StatusUnprocessableEntity, "invalid grid configuration")
	ErrStorageFailure           = New("STORAGE_FAILURE", http.StatusInternalServerError, "storage failure")
	ErrConcurrentModification   = New("CONCURRENT_MODIFICATION", http.StatusConflict, "timetable entry was modified concurrently; reload and retry")
	ErrSlotRejected             = New("SLOT_REJECTED", http.StatusConflict, "timetable entry rejected")
)

// FromError normalises any error into an *Error; unknown errors become
// ErrInternal with the original as cause.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return WrapAs(err, ErrInternal, "")
}

// Clone returns a copy of the error with an optional message override.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Is reports whether err is of the same kind as target.
func Is(err error, target *Error) bool {
	if err == nil || target == nil {
		return false
	}
	return errors.Is(err, target)
}
