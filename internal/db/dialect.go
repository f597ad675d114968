package db

import "strings"

// Dialect captures the DDL differences between the supported drivers.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// DialectFor returns the dialect for a database/sql driver name.
// Unknown drivers are treated as Postgres.
func DialectFor(driver string) Dialect {
	switch driver {
	case "sqlite", "sqlite3":
		return DialectSQLite
	default:
		return DialectPostgres
	}
}

// IDColumn returns the column definition of an auto-increment integer primary key.
func (d Dialect) IDColumn(name string) string {
	if d == DialectSQLite {
		return QuoteIdent(name) + " INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return QuoteIdent(name) + " SERIAL PRIMARY KEY"
}

// QuoteIdent quotes an SQL identifier, doubling embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
