package db

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/docshare/internal/config"
)

func TestMigrationFilesAreOrdered(t *testing.T) {
	files, err := MigrationFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	require.Equal(t, "0001_init.sql", files[0])
}

func TestSplitStatementsDropsBlanks(t *testing.T) {
	stmts := splitStatements("CREATE TABLE a (id TEXT);\n\n ;CREATE INDEX i ON a (id);\n")
	require.Equal(t, []string{"CREATE TABLE a (id TEXT)", "CREATE INDEX i ON a (id)"}, stmts)
}

func TestDSN(t *testing.T) {
	require.Equal(t, "postgres://x", DSN(config.DatabaseConfig{DSN: "postgres://x"}))
	require.Equal(t,
		"host=db port=5432 user=u password=p dbname=n sslmode=disable",
		DSN(config.DatabaseConfig{Host: "db", User: "u", Password: "p", DBName: "n"}),
	)
}
