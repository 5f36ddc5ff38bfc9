package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Named error classes for storage failures.
var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")

	// ErrMissingTable is returned when the backing table has not been
	// provisioned. Callers treat it as "feature not yet deployed" and
	// degrade rather than fail.
	ErrMissingTable = errors.New("table does not exist")

	// ErrUniqueViolation is returned when a unique constraint is violated.
	ErrUniqueViolation = errors.New("unique constraint violation")

	// ErrForeignKeyViolation is returned when a foreign key constraint is
	// violated.
	ErrForeignKeyViolation = errors.New("foreign key constraint violation")

	// ErrNotNullViolation is returned when a NOT NULL constraint is
	// violated.
	ErrNotNullViolation = errors.New("not null constraint violation")
)

// pg error codes this package classifies.
const (
	pgUndefinedTable      = "42P01"
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
)

// ConvertError maps driver-specific errors onto the named error classes.
// Unrecognized errors pass through unchanged.
func ConvertError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return convertCode(pgxErr.Code, pgxErr.Message, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return convertCode(string(pqErr.Code), pqErr.Message, err)
	}

	// Structural fallback for drivers that only surface a message.
	if strings.Contains(err.Error(), "does not exist") &&
		strings.Contains(err.Error(), "relation") {
		return fmt.Errorf("%w: %v", ErrMissingTable, err)
	}

	return err
}

func convertCode(code, message string, err error) error {
	switch code {
	case pgUndefinedTable:
		return fmt.Errorf("%w: %s", ErrMissingTable, message)
	case pgUniqueViolation:
		return fmt.Errorf("%w: %s", ErrUniqueViolation, message)
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: %s", ErrForeignKeyViolation, message)
	case pgNotNullViolation:
		return fmt.Errorf("%w: %s", ErrNotNullViolation, message)
	default:
		return err
	}
}

// IsMissingTable reports whether the error indicates an unprovisioned
// table.
func IsMissingTable(err error) bool {
	return errors.Is(err, ErrMissingTable)
}
