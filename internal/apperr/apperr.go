// Package apperr defines the error taxonomy every service returns across its boundary.
package apperr

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type Kind string

const (
	KindValidation      Kind = "VALIDATION"
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindState           Kind = "STATE"
	KindUnauthorized    Kind = "UNAUTHORIZED"
	KindExpired         Kind = "EXPIRED"
	KindRevoked         Kind = "REVOKED"
	KindQuotaExceeded   Kind = "QUOTA_EXCEEDED"
	KindInvalidPassword Kind = "INVALID_PASSWORD"
	KindInternal        Kind = "INTERNAL"
)

// Error is the application error. Err keeps the underlying cause for logging
// and is never rendered to callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return New(KindConflict, format, args...)
}

func State(format string, args ...interface{}) *Error {
	return New(KindState, format, args...)
}

func Unauthorized(format string, args ...interface{}) *Error {
	return New(KindUnauthorized, format, args...)
}

func Expired(format string, args ...interface{}) *Error {
	return New(KindExpired, format, args...)
}

func Revoked(format string, args ...interface{}) *Error {
	return New(KindRevoked, format, args...)
}

func QuotaExceeded(format string, args ...interface{}) *Error {
	return New(KindQuotaExceeded, format, args...)
}

func InvalidPassword(format string, args ...interface{}) *Error {
	return New(KindInvalidPassword, format, args...)
}

func Internal(err error, format string, args ...interface{}) *Error {
	return Wrap(KindInternal, err, format, args...)
}

// KindOf reports the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message is the caller-facing text of err. Internal causes are not exposed.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal error"
}

// FromDB converts a repository error into the taxonomy. Errors that already
// carry a kind pass through untouched.
func FromDB(err error, entity string) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound("%s not found", entity)
	case isDuplicate(err):
		return Wrap(KindConflict, err, "%s already exists", entity)
	default:
		return Internal(err, "%s storage failure", entity)
	}
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
