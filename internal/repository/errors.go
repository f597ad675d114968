package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

var (
	ErrDuplicate       = errors.New("already exists")
	ErrTableExists     = errors.New("table already exists")
	ErrDatasetNotFound = errors.New("dataset not found")
)

// Postgres SQLSTATE codes
const (
	codeUniqueViolation = "23505"
	codeDuplicateTable  = "42P07"
	codeUndefinedTable  = "42P01"
)

// sqlState extracts the SQLSTATE from pgx and lib/pq errors.
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// isUniqueViolation works for SQLite and both Postgres drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if sqlState(err) == codeUniqueViolation {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

func isDuplicateTable(err error) bool {
	if err == nil {
		return false
	}
	if sqlState(err) == codeDuplicateTable {
		return true
	}
	return strings.Contains(err.Error(), "already exists")
}

func isUndefinedTable(err error) bool {
	if err == nil {
		return false
	}
	if sqlState(err) == codeUndefinedTable {
		return true
	}
	return strings.Contains(err.Error(), "no such table")
}
