package core

import (
	"errors"
	"time"
)

// Kind classifies domain errors so transports can map them to responses.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindRateLimited
	KindAuth
	KindForbidden
	KindStorage
)

// Error codes for domain errors.
const (
	ErrCodeNameRequired   = "name_required"
	ErrCodeInvalidName    = "invalid_name"
	ErrCodeFieldTooLong   = "field_too_long"
	ErrCodeCodeRequired   = "code_required"
	ErrCodeCodeTooLarge   = "code_too_large"
	ErrCodeRoomNotFound   = "room_not_found"
	ErrCodeNotFound       = "not_found"
	ErrCodeRateLimited    = "rate_limited"
	ErrCodeUnauthorized   = "unauthorized"
	ErrCodeDeleteDisabled = "delete_disabled"
	ErrCodeStorage        = "storage_error"
)

// CoreError wraps a kind, a code and a human-readable message.
type CoreError struct {
	Kind    Kind
	Code    string
	Message string
	// RetryAfter is set for KindRateLimited.
	RetryAfter time.Duration
	Err        error
}

func (e *CoreError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *CoreError) Unwrap() error {
	return e.Err
}

func coreError(kind Kind, code, msg string) *CoreError {
	return &CoreError{Kind: kind, Code: code, Message: msg}
}

func validationError(code, msg string) *CoreError {
	return coreError(KindValidation, code, msg)
}

func storageError(err error) *CoreError {
	return &CoreError{Kind: KindStorage, Code: ErrCodeStorage, Message: "storage failure", Err: err}
}

// KindOf returns the kind of err, or 0 if err is not a *CoreError.
func KindOf(err error) Kind {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

// IsKind reports whether err is a *CoreError of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
