package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsUpAndDown(t *testing.T) {
	conn, err := Init("sqlite", filepath.Join(t.TempDir(), "nested", "m.db")+"?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	defer Close(conn)

	require.NoError(t, RunMigrations(conn.DB, "sqlite"))
	version, err := MigrationVersion(conn.DB, "sqlite")
	require.NoError(t, err)
	assert.EqualValues(t, 1, version)

	var count int
	require.NoError(t, conn.Get(&count, `SELECT COUNT(*) FROM data_tables`))
	assert.Zero(t, count)

	require.NoError(t, MigrateDown(conn.DB, "sqlite"))
	err = conn.Get(&count, `SELECT COUNT(*) FROM data_tables`)
	assert.Error(t, err)
}

func TestDialect(t *testing.T) {
	assert.Equal(t, DialectSQLite, DialectFor("sqlite"))
	assert.Equal(t, DialectPostgres, DialectFor("pgx"))
	assert.Equal(t, DialectPostgres, DialectFor("postgres"))

	assert.Equal(t, `"id" INTEGER PRIMARY KEY AUTOINCREMENT`, DialectSQLite.IDColumn("id"))
	assert.Equal(t, `"id" SERIAL PRIMARY KEY`, DialectPostgres.IDColumn("id"))
	assert.Equal(t, `"we""ird"`, QuoteIdent(`we"ird`))
}

func TestGetDialect(t *testing.T) {
	assert.Equal(t, "sqlite3", getDialect("sqlite"))
	assert.Equal(t, "postgres", getDialect("pgx"))
	assert.Equal(t, "mysql", getDialect("mysql"))
}
