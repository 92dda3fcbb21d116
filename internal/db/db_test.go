package db

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "data/app.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", SQLiteDSN("data/app.db"))
	assert.Equal(t, "file:x.db?mode=rwc&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", SQLiteDSN("file:x.db?mode=rwc"))
	assert.Equal(t, "x.db?_pragma=journal_mode(WAL)", SQLiteDSN("x.db?_pragma=journal_mode(WAL)"))
}

func TestSQLitePath(t *testing.T) {
	assert.Equal(t, "data/app.db", sqlitePath("file:data/app.db?mode=rwc"))
	assert.Equal(t, "app.db", sqlitePath("app.db"))
}

func TestMigrationsUpAndDown(t *testing.T) {
	conn, err := sqlx.Connect("sqlite", SQLiteDSN(":memory:"))
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	err = RunMigrations(conn.DB, "sqlite")
	require.NoError(t, err)

	var tables []string
	err = conn.Select(&tables, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name != 'goose_db_version' ORDER BY name`)
	require.NoError(t, err)
	assert.Equal(t, []string{"files", "interactions", "leads", "profiles", "proposals", "public_form_tokens", "tokens", "user_tasks", "users"}, tables)

	err = MigrateDown(conn.DB, "sqlite")
	require.NoError(t, err)

	var count int
	err = conn.Get(&count, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'leads'`)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSetupGooseUnknownDriver(t *testing.T) {
	err := setupGoose("mysql")
	assert.Error(t, err)
}
