package errors

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := NewStorage("write failed", cause)

	assert.Contains(t, err.Error(), "storage")
	assert.Contains(t, err.Error(), "write failed")
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, cause, stderrors.Unwrap(err))

	bare := NewNotFound("no such key")
	assert.Equal(t, "not_found: no such key", bare.Error())
	assert.Nil(t, stderrors.Unwrap(bare))
}

func TestMapStoreError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
	}{
		{name: "deadline", err: context.DeadlineExceeded, code: ErrCodeTimeout},
		{name: "canceled", err: context.Canceled, code: ErrCodeCanceled},
		{name: "no rows", err: sql.ErrNoRows, code: ErrCodeNotFound},
		{
			name: "wrapped no rows",
			err:  fmt.Errorf("select kv: %w", sql.ErrNoRows),
			code: ErrCodeNotFound,
		},
		{
			name: "unique violation",
			err:  &pgconn.PgError{Code: pgerrcode.UniqueViolation},
			code: ErrCodeValidation,
		},
		{
			name: "not null violation",
			err:  &pgconn.PgError{Code: pgerrcode.NotNullViolation},
			code: ErrCodeValidation,
		},
		{name: "unknown", err: stderrors.New("boom"), code: ErrCodeStorage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := MapStoreError(tt.err)
			var appErr *AppError
			require.True(t, stderrors.As(mapped, &appErr))
			assert.Equal(t, tt.code, appErr.Code)
			assert.True(t, stderrors.Is(mapped, tt.err), "cause must remain reachable")
		})
	}

	assert.NoError(t, MapStoreError(nil))
}
