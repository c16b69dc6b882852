package transfer

import (
	"fmt"

	"github.com/Laisky/errors/v2"
)

// ErrorCode identifies a machine-stable failure kind.
type ErrorCode string

const (
	ErrCodeValidation    ErrorCode = "VALIDATION"
	ErrCodeQuotaExceeded ErrorCode = "QUOTA_EXCEEDED"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeExpired       ErrorCode = "EXPIRED"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeIO            ErrorCode = "IO"
)

// Error captures a typed lifecycle error with retryability metadata.
type Error struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	cause     error
}

// Error returns the error message.
func (e *Error) Error() string {
	if e == nil {
		return "transfer error: <nil>"
	}
	if e.Message == "" {
		return fmt.Sprintf("transfer error: %s", e.Code)
	}
	return e.Message
}

// Unwrap exposes the underlying storage or database error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// NewError constructs a typed lifecycle error.
func NewError(code ErrorCode, message string, retryable bool) *Error {
	return &Error{Code: code, Message: message, Retryable: retryable}
}

func validationError(format string, args ...any) *Error {
	return NewError(ErrCodeValidation, fmt.Sprintf(format, args...), false)
}

func quotaError(format string, args ...any) *Error {
	return NewError(ErrCodeQuotaExceeded, fmt.Sprintf(format, args...), false)
}

func notFoundError(message string) *Error {
	return NewError(ErrCodeNotFound, message, false)
}

func expiredError() *Error {
	return NewError(ErrCodeExpired, "transfer has expired", false)
}

func authError() *Error {
	return NewError(ErrCodeUnauthorized, "invalid password", true)
}

// ioError keeps cause for logs while the message stays generic.
func ioError(message string, cause error) *Error {
	return &Error{Code: ErrCodeIO, Message: message, Retryable: true, cause: cause}
}

// AsError extracts a typed lifecycle error from the error chain.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed, true
	}
	return nil, false
}

// IsCode reports whether the error chain contains the given code.
func IsCode(err error, code ErrorCode) bool {
	if typed, ok := AsError(err); ok {
		return typed.Code == code
	}
	return false
}
