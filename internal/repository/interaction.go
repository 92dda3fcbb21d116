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
	ErrInteractionNotFound = errors.New("interaction not found")
)

type InteractionRepository interface {
	Create(ctx context.Context, interaction *model.Interaction) error
	ByID(ctx context.Context, userID string, interactionID int64) (*model.Interaction, error)
	ByLead(ctx context.Context, userID string, leadID int64) ([]*model.Interaction, error)
	Update(ctx context.Context, interaction *model.Interaction) error
	Delete(ctx context.Context, userID string, interactionID int64) error
}

type interactionRepository struct {
	db *sqlx.DB
}

func NewInteractionRepository(db *sqlx.DB) InteractionRepository {
	return &interactionRepository{db: db}
}

func (r *interactionRepository) Create(ctx context.Context, interaction *model.Interaction) error {
	if interaction.CreatedAt.IsZero() {
		interaction.CreatedAt = time.Now()
	}

	query := `INSERT INTO interactions (lead_id, user_id, message, created_at)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`

	return r.db.QueryRowxContext(ctx, query,
		interaction.LeadID,
		interaction.UserID,
		interaction.Message,
		interaction.CreatedAt,
	).Scan(&interaction.ID)
}

func (r *interactionRepository) ByID(ctx context.Context, userID string, interactionID int64) (*model.Interaction, error) {
	interaction := &model.Interaction{}
	query := `SELECT * FROM interactions WHERE id = $1 AND user_id = $2`

	err := r.db.GetContext(ctx, interaction, query, interactionID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrInteractionNotFound
	}
	if err != nil {
		return nil, err
	}

	return interaction, nil
}

// ByLead lists a lead's interactions, newest first.
func (r *interactionRepository) ByLead(ctx context.Context, userID string, leadID int64) ([]*model.Interaction, error) {
	interactions := []*model.Interaction{}
	query := `SELECT * FROM interactions WHERE lead_id = $1 AND user_id = $2 ORDER BY created_at DESC, id DESC`

	err := r.db.SelectContext(ctx, &interactions, query, leadID, userID)
	if err != nil {
		return nil, err
	}

	return interactions, nil
}

func (r *interactionRepository) Update(ctx context.Context, interaction *model.Interaction) error {
	now := time.Now()
	interaction.UpdatedAt = &now

	query := `UPDATE interactions SET message = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`
	result, err := r.db.ExecContext(ctx, query, interaction.Message, now, interaction.ID, interaction.UserID)

	return checkAffected(result, err, ErrInteractionNotFound)
}

func (r *interactionRepository) Delete(ctx context.Context, userID string, interactionID int64) error {
	query := `DELETE FROM interactions WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, interactionID, userID)

	return checkAffected(result, err, ErrInteractionNotFound)
}
