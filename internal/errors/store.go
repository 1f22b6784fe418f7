package errors

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// MapStoreError maps storage backend errors to AppError instances:
//   - context timeouts/cancellations → Timeout/Canceled
//   - sql.ErrNoRows → NotFound
//   - Postgres constraint violations → Validation
//
// Unrecognized errors are wrapped as Storage.
func MapStoreError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{
			Code:    ErrCodeTimeout,
			Message: "storage operation timed out",
			Cause:   err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{
			Code:    ErrCodeCanceled,
			Message: "storage operation was canceled",
			Cause:   err,
		}
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &AppError{
			Code:    ErrCodeNotFound,
			Message: "record not found",
			Cause:   err,
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return &AppError{
				Code:    ErrCodeValidation,
				Message: "key already exists",
				Cause:   err,
			}
		case pgerrcode.NotNullViolation, pgerrcode.CheckViolation:
			return &AppError{
				Code:    ErrCodeValidation,
				Message: "stored value violates a constraint",
				Cause:   err,
			}
		}
	}

	return &AppError{
		Code:    ErrCodeStorage,
		Message: "storage backend failure",
		Cause:   err,
	}
}
