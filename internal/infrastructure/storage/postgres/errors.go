package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"kadryhr/internal/core/apperror"
)

// PostgreSQL error codes mapped to domain errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

// MapError converts constraint violations into AppErrors. Other errors pass through.
func MapError(err error, entity string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return apperror.NewConflict(entity+" already exists").
			WithContext("constraint", pgErr.ConstraintName).
			WithCause(err)
	case codeForeignKeyViolation:
		return apperror.NewConflict(entity+" is referenced by other records").
			WithContext("constraint", pgErr.ConstraintName).
			WithCause(err)
	case codeCheckViolation:
		return apperror.NewValidation(entity+" violates a data constraint").
			WithContext("constraint", pgErr.ConstraintName).
			WithCause(err)
	}
	return err
}
