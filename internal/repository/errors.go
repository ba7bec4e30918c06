// Package repository provides PostgreSQL persistence for users and notes.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/atinyakov/NoteKeeper/internal/apperr"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgreSQL error codes translated into client errors.
const (
	codeUniqueViolation    = "23505"
	codeInvalidTextRepr    = "22P02"
	codeForeignKeyViolated = "23503"
)

// translate maps driver errors onto the apperr taxonomy. op prefixes any
// error that stays a server error.
func translate(err error, op, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(id)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUniqueViolation:
			return &apperr.Error{Kind: apperr.KindValidation, Message: "Duplicate field value entered", Err: err}
		case codeInvalidTextRepr:
			return notFound(id)
		case codeForeignKeyViolated:
			return &apperr.Error{Kind: apperr.KindValidation, Message: "Referenced resource does not exist", Err: err}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func notFound(id string) error {
	return apperr.NotFound("Resource with id %s not found", id)
}

// checkID rejects identifiers that cannot name a row.
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return notFound(id)
	}
	return nil
}

// nullString maps "" to NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
