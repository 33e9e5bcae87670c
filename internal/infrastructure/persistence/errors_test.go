package persistence

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/shared"
)

func TestTranslateError(t *testing.T) {
	plain := errors.New("connection reset by peer")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"record not found", gorm.ErrRecordNotFound, shared.ErrNotFound},
		{"deadline exceeded", fmt.Errorf("query: %w", context.DeadlineExceeded), shared.ErrConcurrencyConflict},
		{"translated duplicate key", gorm.ErrDuplicatedKey, shared.ErrConcurrencyConflict},
		{"postgres unique violation", &pgconn.PgError{Code: "23505"}, shared.ErrConcurrencyConflict},
		{"postgres serialization failure", &pgconn.PgError{Code: "40001"}, shared.ErrConcurrencyConflict},
		{"postgres deadlock", &pgconn.PgError{Code: "40P01"}, shared.ErrConcurrencyConflict},
		{"postgres lock timeout", &pgconn.PgError{Code: "55P03"}, shared.ErrConcurrencyConflict},
		{"sqlite busy", sqlite3.Error{Code: sqlite3.ErrBusy}, shared.ErrConcurrencyConflict},
		{"domain error passes through", shared.ErrInsufficientStock, shared.ErrInsufficientStock},
		{"unknown error passes through", plain, plain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, translateError(tt.in), tt.want)
		})
	}

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, translateError(nil))
	})

	t.Run("other postgres codes pass through", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "42P01"}
		assert.Same(t, pgErr, translateError(pgErr))
	})
}

func TestConstraintViolationDetection(t *testing.T) {
	assert.True(t, isUniqueViolation(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))

	assert.True(t, isForeignKeyViolation(gorm.ErrForeignKeyViolated))
	assert.True(t, isForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isForeignKeyViolation(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}))
	assert.False(t, isForeignKeyViolation(errors.New("boom")))
}
