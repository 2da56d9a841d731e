// Package storage defines the error taxonomy shared by every store backend
// (postgres, sqlite, memory) and the services layered on top of them.
package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidReference = errors.New("invalid reference")
	ErrValidation       = errors.New("validation failed")
)

// PostgreSQL SQLSTATE codes the stores translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// FromPG translates pgx errors into the storage taxonomy. Errors it does not
// recognise are returned unchanged.
func FromPG(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &Error{Kind: ErrConflict, Detail: pgErr.ConstraintName, Err: err}
		case pgForeignKeyViolation:
			return &Error{Kind: ErrInvalidReference, Detail: pgErr.ConstraintName, Err: err}
		}
	}
	return err
}

// Error carries a taxonomy kind together with the backend error that caused it.
// errors.Is matches against Kind.
type Error struct {
	Kind   error
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Kind.Error() + ": " + e.Detail
	}
	return e.Kind.Error()
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

// Conflictf, InvalidReference and Invalid build taxonomy errors with a detail
// message for backends that have no native error to wrap.
func Conflictf(detail string) error { return &Error{Kind: ErrConflict, Detail: detail} }

func InvalidReference(detail string) error {
	return &Error{Kind: ErrInvalidReference, Detail: detail}
}

func Invalid(detail string) error { return &Error{Kind: ErrValidation, Detail: detail} }
