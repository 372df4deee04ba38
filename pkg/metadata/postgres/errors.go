package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/marmos91/fstore/pkg/fstoreerr"
)

// pgUniqueViolation is the PostgreSQL error code for a unique constraint
// violation (duplicate bucket name, duplicate object hash).
const pgUniqueViolation = "23505"

// mapPgError maps a pgx/pgconn error to an *fstoreerr.Error: RowNotFound
// becomes KindNotFound per spec.md §7, everything else is wrapped as
// KindSQL and left for the caller to log.
func mapPgError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fstoreerr.NotFound(entity)
	}
	return fstoreerr.SQL(err)
}

// isUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation, used to surface a clean "duplicate name" error on bucket
// create/rename without a pre-check query.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	return false
}

func duplicateNameError(name string) error {
	return fstoreerr.SQL(fmt.Errorf("bucket name %q already exists", name))
}
