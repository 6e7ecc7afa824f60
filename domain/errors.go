package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInvariant    ErrorCode = "INVARIANT"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
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

// Is matches errors carrying the same code and reason, so wrapped copies of a
// sentinel still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && e.Reason != "" && e.Reason == t.Reason
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

func newReasonError(code ErrorCode, reason, message string) *Error {
	return &Error{Code: code, Reason: reason, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrUserNotFound        = newReasonError(ErrCodeNotFound, "user_not_found", "user not found")
	ErrInvalidPayload      = newReasonError(ErrCodeInvalid, "invalid_payload", "invalid payload")
	ErrEmailTaken          = newReasonError(ErrCodeConflict, "email_taken", "a user with this email already exists")
	ErrHandleTaken         = newReasonError(ErrCodeConflict, "username_taken", "a user with this username already exists")
	ErrWeakPassword        = newReasonError(ErrCodeInvalid, "weak_password", "password does not meet strength requirements")
	ErrPasswordMismatch    = newReasonError(ErrCodeInvalid, "password_mismatch", "new passwords do not match")
	ErrBadCredential       = newReasonError(ErrCodeInvalid, "bad_credential", "old password is incorrect")
	ErrInvalidCredentials  = newReasonError(ErrCodeUnauthorized, "invalid_credentials", "invalid credentials")
	ErrAccountDisabled     = newReasonError(ErrCodeUnauthorized, "account_disabled", "user account is disabled")
	ErrUnauthenticated     = newReasonError(ErrCodeUnauthorized, "not_authenticated", "authentication credentials were not provided")
	ErrForbidden           = newReasonError(ErrCodeForbidden, "insufficient_role", "you do not have permission to perform this action")
	ErrSelfDeleteForbidden = newReasonError(ErrCodeInvariant, "self_delete_forbidden", "you cannot delete your own account")
)

// WeakPassword reports a password rule violation as ErrWeakPassword, keeping
// the violated rule as the cause.
func WeakPassword(cause error) *Error {
	return &Error{
		Code:    ErrWeakPassword.Code,
		Reason:  ErrWeakPassword.Reason,
		Message: ErrWeakPassword.Message,
		Err:     cause,
	}
}

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// ReasonOf returns the stable machine-readable reason of err, falling back to
// the lower-cased error code.
func ReasonOf(err error) string {
	var dErr *Error
	if !errors.As(err, &dErr) {
		return ""
	}
	if dErr.Reason != "" {
		return dErr.Reason
	}
	return string(dErr.Code)
}
