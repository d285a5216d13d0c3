package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// ErrDuplicateKey is returned when a write violates a unique constraint.
var ErrDuplicateKey = errors.New("duplicate key")

const (
	pqInvalidTextRepresentation pq.ErrorCode = "22P02"
	pqUniqueViolation           pq.ErrorCode = "23505"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a case-insensitive substring pattern for LOWER(col) LIKE $n.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}

// expectAffected maps a write that touched no row to sql.ErrNoRows.
func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// classify wraps err with op. An identifier Postgres cannot parse as a uuid is reported as
// sql.ErrNoRows, and a unique violation as ErrDuplicateKey.
func classify(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqInvalidTextRepresentation:
			return sql.ErrNoRows
		case pqUniqueViolation:
			return fmt.Errorf("%s: %w", op, ErrDuplicateKey)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
