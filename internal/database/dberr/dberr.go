// Package dberr defines the persistence error taxonomy and maps driver errors onto it.
package dberr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	// ErrNonUniqueResult indicates that a single-result query matched more than one row.
	ErrNonUniqueResult = errors.New("query did not return a unique result")
	// ErrConstraintViolation indicates a foreign key, uniqueness or not-null violation.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrLockConflict indicates that a row lock could not be acquired (timeout, NOWAIT or deadlock).
	ErrLockConflict = errors.New("lock conflict")
)

// PostgreSQL SQLSTATE codes.
const (
	pgNotNullViolation    = "23502"
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
	pgLockNotAvailable    = "55P03"
	pgDeadlockDetected    = "40P01"
)

// Classify wraps err with the matching taxonomy sentinel. The driver error stays reachable
// through errors.As. Unknown errors are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrConstraintViolation) || errors.Is(err, ErrLockConflict) ||
		errors.Is(err, ErrNonUniqueResult) {
		return err
	}
	if IsConstraintViolation(err) {
		return fmt.Errorf("%w: %w", ErrConstraintViolation, err)
	}
	if IsLockConflict(err) {
		return fmt.Errorf("%w: %w", ErrLockConflict, err)
	}
	return err
}

// IsConstraintViolation reports whether err is an integrity constraint failure.
func IsConstraintViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) || errors.Is(err, gorm.ErrDuplicatedKey) ||
		errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgNotNullViolation, pgForeignKeyViolation, pgUniqueViolation, pgCheckViolation:
			return true
		}
		return false
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}

// IsLockConflict reports whether err is a lock acquisition failure.
func IsLockConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgLockNotAvailable || pgErr.Code == pgDeadlockDetected
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// NonUnique builds an ErrNonUniqueResult naming the query and how many rows it matched.
func NonUnique(query string, rows int) error {
	return fmt.Errorf("%w: %s matched %d rows", ErrNonUniqueResult, query, rows)
}
