// Package errors provides the application error taxonomy and helpers for
// translating backend failures into it.
package errors

import "fmt"

// ErrorCode classifies an AppError for callers that branch on failure kind.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a record or key was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeCorrupt indicates stored data could not be deserialized.
	ErrCodeCorrupt ErrorCode = "corrupt"
	// ErrCodeStorage indicates the storage backend failed.
	ErrCodeStorage ErrorCode = "storage"
	// ErrCodeUnauthorized indicates the auth API rejected a credential.
	ErrCodeUnauthorized ErrorCode = "unauthorized"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError carries a classification code, a human-readable message, and the
// underlying cause.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// NewNotFound constructs a not-found AppError.
func NewNotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// NewCorrupt constructs a corrupt-data AppError wrapping the parse failure.
func NewCorrupt(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeCorrupt, Message: message, Cause: cause}
}

// NewStorage constructs a storage AppError wrapping the backend failure.
func NewStorage(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeStorage, Message: message, Cause: cause}
}

// NewValidation constructs a validation AppError.
func NewValidation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}
