package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/leadflow/leadflow/internal/model"
)

var (
	ErrFormTokenNotFound = errors.New("form token not found")
)

type FormTokenRepository interface {
	Create(ctx context.Context, token *model.FormToken) error
	// Owner resolves a bearer token to the user that owns it.
	Owner(ctx context.Context, token string) (*model.FormToken, error)
	Tokens(ctx context.Context, userID string) ([]*model.FormToken, error)
	Delete(ctx context.Context, userID, token string) error
}

type formTokenRepository struct {
	db *sqlx.DB
}

func NewFormTokenRepository(db *sqlx.DB) FormTokenRepository {
	return &formTokenRepository{db: db}
}

func (r *formTokenRepository) Create(ctx context.Context, token *model.FormToken) error {
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	query := `INSERT INTO public_form_tokens (token, user_id, label, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, token.Token, token.UserID, token.Label, token.CreatedAt)
	return err
}

func (r *formTokenRepository) Owner(ctx context.Context, token string) (*model.FormToken, error) {
	t := &model.FormToken{}
	query := `SELECT * FROM public_form_tokens WHERE token = $1`

	err := r.db.GetContext(ctx, t, query, token)
	if err == sql.ErrNoRows {
		return nil, ErrFormTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	return t, nil
}

func (r *formTokenRepository) Tokens(ctx context.Context, userID string) ([]*model.FormToken, error) {
	tokens := []*model.FormToken{}
	query := `SELECT * FROM public_form_tokens WHERE user_id = $1 ORDER BY created_at DESC`

	err := r.db.SelectContext(ctx, &tokens, query, userID)
	if err != nil {
		return nil, err
	}

	return tokens, nil
}

func (r *formTokenRepository) Delete(ctx context.Context, userID, token string) error {
	query := `DELETE FROM public_form_tokens WHERE token = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, token, userID)

	return checkAffected(result, err, ErrFormTokenNotFound)
}
