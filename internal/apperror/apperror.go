// Package apperror defines the error kinds shared by the service and HTTP layers.
//
// Every domain error is an *AppError. It carries:
//   - a KIND (one of the sentinel errors below), checked with errors.Is
//   - a CODE naming the exact rule that failed, read with CodeOf
//   - a human-readable MESSAGE that is safe to show to end users
//
// The HTTP layer maps kinds to status codes; tests usually assert on codes.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Code identifies the specific rule behind an AppError.
type Code string

const (
	CodeEmptyUsername   Code = "EmptyUsername"
	CodeEmptyPassword   Code = "EmptyPassword"
	CodePasswordTooLong Code = "PasswordTooLong"
	CodeUsernameTaken   Code = "UsernameTaken"
	CodeUnknownUsername Code = "UnknownUsername"
	CodeWrongPassword   Code = "WrongPassword"
	CodeLoginRequired   Code = "LoginRequired"
	CodeEmptyTitle      Code = "EmptyTitle"
	CodeNotFound        Code = "NotFound"
	CodeForbidden       Code = "Forbidden"
)

type AppError struct {
	Err     error  // kind, one of the sentinels above
	Code    Code   // rule that failed
	Message string // Human-readable error message
	Field   string // Optional: form field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// CodeOf returns the Code of the first *AppError in err's chain,
// or "" when err carries none.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// NotFound reports a missing record. The id is always part of the message.
func NotFound(resource string, id any) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found with id %v", resource, id),
	}
}

func ValidationFailed(code Code, field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Code:    code,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a uniqueness violation. It is surfaced like a validation error.
func Conflict(code Code, field, message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Code:    code,
		Message: message,
		Field:   field,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Code:    CodeForbidden,
		Message: message,
	}
}

// Unauthenticated reports failed credentials or a missing login.
func Unauthenticated(code Code, message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Code:    code,
		Message: message,
	}
}
