package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes translated by Errors.
const (
	pgUniqueViolation  = "23505"
	pgCheckViolation   = "23514"
	pgNotNullViolation = "23502"
)

// Errors maps database failures onto a domain's sentinel errors.
// Nil fields leave the matching failure untranslated.
type Errors struct {
	NotFound  error
	Duplicate error
	Invalid   error
}

// Map translates err. sql.ErrNoRows becomes NotFound, unique violations
// become Duplicate, and check or not-null violations become Invalid with
// the violated constraint named. Other errors are returned unchanged.
func (e Errors) Map(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) && e.NotFound != nil {
		return e.NotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		if e.Duplicate != nil {
			return e.Duplicate
		}
	case pgCheckViolation, pgNotNullViolation:
		if e.Invalid != nil {
			return fmt.Errorf("%w: %s", e.Invalid, pgErr.ConstraintName+pgErr.ColumnName)
		}
	}

	return err
}
