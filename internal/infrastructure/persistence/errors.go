package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/shared"
)

// PostgreSQL error codes treated as transient contention
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgQueryCanceled        = "57014"
	pgForeignKeyViolation  = "23503"
)

// translateError maps driver errors onto domain errors. Domain errors and
// unknown failures pass through unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return shared.ErrConcurrencyConflict.WithMessage("Transaction timed out waiting for a lock")
	}
	if isUniqueViolation(err) {
		return shared.ErrConcurrencyConflict.WithMessage("Resource was created concurrently")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return shared.ErrConcurrencyConflict
		case pgLockNotAvailable, pgQueryCanceled:
			return shared.ErrConcurrencyConflict.WithMessage("Transaction timed out waiting for a lock")
		}
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked {
			return shared.ErrConcurrencyConflict
		}
	}

	return err
}

// isUniqueViolation reports whether err is a unique constraint violation on
// any supported driver, translated by gorm or not.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// isForeignKeyViolation reports whether err references a missing parent row
func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}
	return false
}

// IsContention reports whether err is lock or serialization contention that
// the basket service retries. Used to keep such errors out of error logs.
func IsContention(err error) bool {
	return errors.Is(translateError(err), shared.ErrConcurrencyConflict)
}
