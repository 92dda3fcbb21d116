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
	ErrProposalNotFound = errors.New("proposal not found")
)

type ProposalRepository interface {
	Create(ctx context.Context, proposal *model.Proposal) error
	ByID(ctx context.Context, userID string, proposalID int64) (*model.Proposal, error)
	ByLead(ctx context.Context, userID string, leadID int64) ([]*model.Proposal, error)
	Update(ctx context.Context, proposal *model.Proposal) error
	Delete(ctx context.Context, userID string, proposalID int64) error
}

type proposalRepository struct {
	db *sqlx.DB
}

func NewProposalRepository(db *sqlx.DB) ProposalRepository {
	return &proposalRepository{db: db}
}

func (r *proposalRepository) Create(ctx context.Context, proposal *model.Proposal) error {
	now := time.Now()
	if proposal.CreatedAt.IsZero() {
		proposal.CreatedAt = now
	}
	if proposal.UpdatedAt.IsZero() {
		proposal.UpdatedAt = now
	}

	query := `INSERT INTO proposals (lead_id, user_id, service, details, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`

	return r.db.QueryRowxContext(ctx, query,
		proposal.LeadID,
		proposal.UserID,
		proposal.Service,
		proposal.Details,
		proposal.CreatedAt,
		proposal.UpdatedAt,
	).Scan(&proposal.ID)
}

func (r *proposalRepository) ByID(ctx context.Context, userID string, proposalID int64) (*model.Proposal, error) {
	proposal := &model.Proposal{}
	query := `SELECT * FROM proposals WHERE id = $1 AND user_id = $2`

	err := r.db.GetContext(ctx, proposal, query, proposalID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrProposalNotFound
	}
	if err != nil {
		return nil, err
	}

	return proposal, nil
}

func (r *proposalRepository) ByLead(ctx context.Context, userID string, leadID int64) ([]*model.Proposal, error) {
	proposals := []*model.Proposal{}
	query := `SELECT * FROM proposals WHERE lead_id = $1 AND user_id = $2 ORDER BY created_at DESC, id DESC`

	err := r.db.SelectContext(ctx, &proposals, query, leadID, userID)
	if err != nil {
		return nil, err
	}

	return proposals, nil
}

func (r *proposalRepository) Update(ctx context.Context, proposal *model.Proposal) error {
	proposal.UpdatedAt = time.Now()

	query := `UPDATE proposals SET service = $1, details = $2, updated_at = $3 WHERE id = $4 AND user_id = $5`
	result, err := r.db.ExecContext(ctx, query,
		proposal.Service,
		proposal.Details,
		proposal.UpdatedAt,
		proposal.ID,
		proposal.UserID,
	)

	return checkAffected(result, err, ErrProposalNotFound)
}

func (r *proposalRepository) Delete(ctx context.Context, userID string, proposalID int64) error {
	query := `DELETE FROM proposals WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, proposalID, userID)

	return checkAffected(result, err, ErrProposalNotFound)
}
