// Package pgerr discriminates PostgreSQL failures by SQLSTATE code.
// Callers must branch on these predicates instead of matching error
// message substrings.
package pgerr

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeUndefinedTable      = "42P01"
	codeDuplicateTable      = "42P07"
)

func code(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return code(err) == codeUniqueViolation
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	return code(err) == codeForeignKeyViolation
}

// IsUndefinedTable reports whether err means the referenced relation does
// not exist. Tag operations treat this as "feature unavailable".
func IsUndefinedTable(err error) bool {
	return code(err) == codeUndefinedTable
}

// IsDuplicateTable reports whether err means the relation already exists,
// which a concurrent creator may surface despite IF NOT EXISTS guards.
func IsDuplicateTable(err error) bool {
	return code(err) == codeDuplicateTable
}

// ConstraintName returns the violated constraint's name, if any.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
