package service

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/leadflow/internal/model"
	"github.com/leadflow/leadflow/internal/repository"
)

func newAuthService(conn *sqlx.DB) *AuthService {
	return NewAuthService(
		repository.NewUserRepository(conn),
		repository.NewProfileRepository(conn),
		repository.NewTokenRepository(conn),
		devEmail(),
		"test-secret", false, time.Hour, time.Hour, 10*time.Minute,
	)
}

// pendingToken reads the unused token the service just mailed.
func pendingToken(t *testing.T, conn *sqlx.DB, userID, tokenType string) string {
	t.Helper()

	var token string
	err := conn.Get(&token, `SELECT token FROM tokens WHERE user_id = $1 AND type = $2 AND used_at IS NULL`, userID, tokenType)
	require.NoError(t, err)
	return token
}

func TestSignupRequiresVerification(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	auth := newAuthService(conn)

	user, err := auth.Signup(ctx, "Ana", "Ana@Example.com", "correct horse battery staple")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", user.Email)

	_, err = auth.Login(ctx, "ana@example.com", "correct horse battery staple")
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	_, err = auth.Signup(ctx, "Ana", "ana@example.com", "correct horse battery staple")
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)

	token := pendingToken(t, conn, user.ID, model.TokenTypeEmailVerify)
	verified, err := auth.VerifyEmail(ctx, token)
	require.NoError(t, err)
	assert.True(t, verified.Verified())

	// Links work once
	_, err = auth.VerifyEmail(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidLink)

	loggedIn, err := auth.Login(ctx, "ana@example.com", "correct horse battery staple")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	_, err = auth.Login(ctx, "ana@example.com", "wrong password here")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMagicLinkCreatesAccount(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	auth := newAuthService(conn)
	users := repository.NewUserRepository(conn)

	err := auth.SendMagicLink(ctx, "bruno@example.com")
	require.NoError(t, err)

	user, err := users.ByEmail(ctx, "bruno@example.com")
	require.NoError(t, err)
	assert.False(t, user.Verified())

	needs, err := auth.NeedsOnboarding(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, needs)

	token := pendingToken(t, conn, user.ID, model.TokenTypeMagicLink)

	// A magic link is not an email verification link
	_, err = auth.VerifyEmail(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidLink)

	// The failed attempt consumed it; ask again
	require.NoError(t, auth.SendMagicLink(ctx, "bruno@example.com"))
	token = pendingToken(t, conn, user.ID, model.TokenTypeMagicLink)

	loggedIn, err := auth.VerifyMagicLink(ctx, token)
	require.NoError(t, err)
	assert.True(t, loggedIn.Verified())

	require.NoError(t, auth.CompleteOnboarding(ctx, user.ID, "Bruno"))
	needs, err = auth.NeedsOnboarding(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, needs)
}

func TestResetPasswordRemovesPassword(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	auth := newAuthService(conn)

	user, err := auth.Signup(ctx, "Ana", "ana@example.com", "correct horse battery staple")
	require.NoError(t, err)

	require.NoError(t, auth.SendForgotPasswordLink(ctx, "ana@example.com"))
	// Unknown addresses do not reveal themselves
	require.NoError(t, auth.SendForgotPasswordLink(ctx, "nobody@example.com"))

	token := pendingToken(t, conn, user.ID, model.TokenTypeMagicLink)
	reset, err := auth.ResetPassword(ctx, token)
	require.NoError(t, err)
	assert.False(t, reset.HasPassword())

	_, err = auth.Login(ctx, "ana@example.com", "correct horse battery staple")
	assert.ErrorIs(t, err, ErrPasswordless)
}

func TestJWTRoundTrip(t *testing.T) {
	conn := newTestDB(t)
	auth := newAuthService(conn)
	user := &model.User{ID: "user-1", Email: "ana@example.com"}

	token, err := auth.GenerateJWT(user)
	require.NoError(t, err)

	claims, err := auth.VerifyJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims["user_id"])

	other := NewAuthService(nil, nil, nil, nil, "other-secret", false, time.Hour, time.Hour, time.Hour)
	_, err = other.VerifyJWT(token)
	assert.Error(t, err)
}

func TestOAuthCreatesVerifiedUser(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	auth := newAuthService(conn)

	user, err := auth.AuthenticateOAuth(ctx, "Carla@Example.com", "Carla", "google")
	require.NoError(t, err)
	assert.True(t, user.Verified())

	needs, err := auth.NeedsOnboarding(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, needs)

	again, err := auth.AuthenticateOAuth(ctx, "carla@example.com", "", "github")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
}
