package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"tradedesk/internal/core/apperror"
)

// PostgreSQL error codes mapped to domain errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MapError converts constraint violations into domain errors so the HTTP
// layer can answer 409/422 instead of 500. Other errors are returned as is.
func MapError(err error, entity string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		return apperror.NewDuplicate(entity, pgErr.ConstraintName, pgErr.Detail).WithCause(err)
	case pgForeignKeyViolation:
		return apperror.NewConflict(entity+" references or is referenced by another record").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case pgCheckViolation:
		return apperror.NewValidation(entity+" violates "+pgErr.ConstraintName).WithCause(err)
	}
	return err
}
