package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// FormField is the key used for errors that do not belong to a single input field.
const FormField = "_form"

// Error represents a domain-level error. Validation failures carry a
// field-keyed map of human readable messages in Fields.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
	Fields  map[string][]string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], ", ")))
		}
		return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, "; "))
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

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewValidationError builds an INVALID error carrying per-field messages.
func NewValidationError(fields map[string][]string) *Error {
	return &Error{
		Code:    ErrCodeInvalid,
		Message: "validation failed",
		Fields:  fields,
	}
}

// Common domain errors.
var (
	ErrItemNotFound     = NewError(ErrCodeNotFound, "item not found")
	ErrCommentNotFound  = NewError(ErrCodeNotFound, "comment not found")
	ErrProfileNotFound  = NewError(ErrCodeNotFound, "profile not found")
	ErrInviteNotFound   = NewError(ErrCodeNotFound, "invite not found")
	ErrUnauthorized     = NewError(ErrCodeUnauthorized, "not authenticated")
	ErrForbidden        = NewError(ErrCodeForbidden, "admin rights required")
	ErrInvalidPayload   = NewError(ErrCodeInvalid, "invalid payload")
	ErrNoChanges        = NewValidationError(map[string][]string{FormField: {"no changes given"}})
	ErrInviteNotPending = NewError(ErrCodeConflict, "invite is no longer pending")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// FieldErrors returns the validation map carried by err, if any.
func FieldErrors(err error) map[string][]string {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Fields
	}
	return nil
}

// Internal wraps a backend failure so callers see a single non-field error.
func Internal(message string, err error) error {
	if err == nil {
		return nil
	}
	var dErr *Error
	if errors.As(err, &dErr) {
		return err
	}
	return WrapError(ErrCodeInternal, message, err)
}

// fieldErrors accumulates validation messages in insertion order per field.
type fieldErrors map[string][]string

func (f fieldErrors) add(field, msg string) {
	f[field] = append(f[field], msg)
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return NewValidationError(f)
}
