package pgsql

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/SscSPs/estate_ledger/internal/apperrors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		want      error
		retryable bool
	}{
		{"no rows", pgx.ErrNoRows, apperrors.ErrNotFound, false},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), apperrors.ErrNotFound, false},
		{"unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "uq_journal_entries_posted_natural_key"}, apperrors.ErrDuplicate, false},
		{"foreign key violation", &pgconn.PgError{Code: "23503", ConstraintName: "payments_installment_id_fkey"}, apperrors.ErrValidation, false},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, apperrors.ErrConflict, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, apperrors.ErrConflict, true},
		{"lock not available", &pgconn.PgError{Code: "55P03"}, apperrors.ErrConflict, true},
		{"statement timeout", &pgconn.PgError{Code: "57014"}, apperrors.ErrStorageUnavailable, true},
		{"deadline exceeded", context.DeadlineExceeded, apperrors.ErrStorageUnavailable, true},
		{"wrapped deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), apperrors.ErrStorageUnavailable, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err, "insert payment")
			require.Error(t, got)
			assert.ErrorIs(t, got, tt.want)
			assert.Equal(t, tt.retryable, apperrors.IsRetryable(got))
		})
	}
}

func TestMapError_Passthrough(t *testing.T) {
	assert.NoError(t, mapError(nil, "noop"))

	other := &pgconn.PgError{Code: "22003", Message: "numeric field overflow"}
	got := mapError(other, "insert payment")
	var pgErr *pgconn.PgError
	require.ErrorAs(t, got, &pgErr)
	assert.Equal(t, "22003", pgErr.Code)
	assert.Contains(t, got.Error(), "insert payment")
	assert.False(t, apperrors.IsRetryable(got))

	plain := errors.New("boom")
	assert.ErrorIs(t, mapError(plain, "commit transaction"), plain)
}
