package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/leadflow/internal/db"
	"github.com/leadflow/leadflow/internal/model"
)

// newTestDB opens a migrated in-memory SQLite database. A single connection keeps
// the memory database alive for the whole test.
func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conn, err := sqlx.Connect("sqlite", db.SQLiteDSN(":memory:"))
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	err = db.RunMigrations(conn.DB, "sqlite")
	require.NoError(t, err)

	return conn
}

func createUser(t *testing.T, conn *sqlx.DB, email string) *model.User {
	t.Helper()

	now := time.Now()
	user := &model.User{
		ID:              uuid.New().String(),
		Email:           email,
		EmailVerifiedAt: &now,
		CreatedAt:       now,
	}
	err := NewUserRepository(conn).Create(context.Background(), user)
	require.NoError(t, err)

	return user
}

func ptr[T any](v T) *T {
	return &v
}
