package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/leadflow/internal/model"
)

func TestFormTokenRepository(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	repo := NewFormTokenRepository(conn)
	owner := createUser(t, conn, "ana@example.com")
	other := createUser(t, conn, "bruno@example.com")

	token := &model.FormToken{Token: "tok_123", UserID: owner.ID, Label: "Site"}
	require.NoError(t, repo.Create(ctx, token))

	got, err := repo.Owner(ctx, "tok_123")
	require.NoError(t, err)
	assert.Equal(t, owner.ID, got.UserID)
	assert.Equal(t, "Site", got.Label)

	_, err = repo.Owner(ctx, "tok_unknown")
	assert.ErrorIs(t, err, ErrFormTokenNotFound)

	tokens, err := repo.Tokens(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, tokens, 1)

	err = repo.Delete(ctx, other.ID, "tok_123")
	assert.ErrorIs(t, err, ErrFormTokenNotFound)

	require.NoError(t, repo.Delete(ctx, owner.ID, "tok_123"))
	_, err = repo.Owner(ctx, "tok_123")
	assert.ErrorIs(t, err, ErrFormTokenNotFound)
}

func TestTokenRepositoryConsumeOnce(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	repo := NewTokenRepository(conn)
	owner := createUser(t, conn, "ana@example.com")

	token := &model.Token{
		UserID:    owner.ID,
		Type:      model.TokenTypeMagicLink,
		Token:     "magic",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.Create(ctx, token))

	got, err := repo.ConsumeToken(ctx, "magic")
	require.NoError(t, err)
	assert.Equal(t, owner.ID, got.UserID)
	assert.True(t, got.IsUsed())

	_, err = repo.ConsumeToken(ctx, "magic")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestUserRepository(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(conn)
	verified := createUser(t, conn, "ana@example.com")

	pending := &model.User{ID: "pending-user", Email: "pending@example.com", CreatedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, pending))

	err := repo.Create(ctx, &model.User{ID: "dup", Email: "ana@example.com", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	users, err := repo.Verified(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, verified.ID, users[0].ID)

	_, err = repo.ByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
