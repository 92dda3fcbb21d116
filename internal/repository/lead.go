package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/leadflow/leadflow/internal/model"
)

const (
	LeadSortName      = "lead_name"
	LeadSortCompany   = "company"
	LeadSortValue     = "value"
	LeadSortStatus    = "status"
	LeadSortFollowUp  = "follow_up_date"
	LeadSortCreatedAt = "created_at"
)

var (
	ErrLeadNotFound = errors.New("lead not found")
)

// LeadQuery narrows and orders a lead listing. The zero value lists everything, newest first.
type LeadQuery struct {
	Search string
	SortBy string
	Desc   bool
}

type LeadRepository interface {
	Create(ctx context.Context, lead *model.Lead) error
	ByID(ctx context.Context, userID string, leadID int64) (*model.Lead, error)
	Leads(ctx context.Context, userID string, q LeadQuery) ([]*model.Lead, error)
	Update(ctx context.Context, lead *model.Lead) error
	UpdateStatus(ctx context.Context, userID string, leadID int64, status model.LeadStatus) error
	Delete(ctx context.Context, userID string, leadID int64) error
}

type leadRepository struct {
	db *sqlx.DB
}

func NewLeadRepository(db *sqlx.DB) LeadRepository {
	return &leadRepository{db: db}
}

func (r *leadRepository) Create(ctx context.Context, lead *model.Lead) error {
	now := time.Now()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	if lead.UpdatedAt.IsZero() {
		lead.UpdatedAt = now
	}

	query := `INSERT INTO leads (user_id, lead_name, email, telefone, company, instagram, origin, value, status, follow_up_date, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING id`

	return r.db.QueryRowxContext(ctx, query,
		lead.UserID,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Company,
		lead.Instagram,
		lead.Origin,
		lead.Value,
		lead.Status,
		lead.FollowUpDate,
		lead.CreatedAt,
		lead.UpdatedAt,
	).Scan(&lead.ID)
}

func (r *leadRepository) ByID(ctx context.Context, userID string, leadID int64) (*model.Lead, error) {
	lead := &model.Lead{}
	query := `SELECT * FROM leads WHERE id = $1 AND user_id = $2`

	err := r.db.GetContext(ctx, lead, query, leadID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, err
	}

	return lead, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *leadRepository) Leads(ctx context.Context, userID string, q LeadQuery) ([]*model.Lead, error) {
	leads := []*model.Lead{}

	args := []any{userID}
	query := `SELECT * FROM leads WHERE user_id = $1`

	search := strings.TrimSpace(q.Search)
	if search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		phone := "%" + likeEscaper.Replace(search) + "%"
		query += ` AND (LOWER(lead_name) LIKE $2 ESCAPE '\'
		            OR LOWER(COALESCE(company, '')) LIKE $3 ESCAPE '\'
		            OR LOWER(email) LIKE $4 ESCAPE '\'
		            OR COALESCE(telefone, '') LIKE $5 ESCAPE '\')`
		args = append(args, pattern, pattern, pattern, phone)
	}

	query += " " + leadOrderBy(q.SortBy, q.Desc)

	err := r.db.SelectContext(ctx, &leads, query, args...)
	if err != nil {
		return nil, err
	}

	return leads, nil
}

// leadOrderBy builds the ORDER BY clause from a whitelisted sort key. NULLs always sort last.
func leadOrderBy(sortBy string, desc bool) string {
	var column string
	switch sortBy {
	case LeadSortName:
		column = "LOWER(lead_name)"
	case LeadSortCompany:
		column = "LOWER(company)"
	case LeadSortValue:
		column = "value"
	case LeadSortStatus:
		column = "status"
	case LeadSortFollowUp:
		column = "follow_up_date"
	default:
		return "ORDER BY created_at DESC, id DESC"
	}

	direction := "ASC"
	if desc {
		direction = "DESC"
	}

	return "ORDER BY (" + column + " IS NULL), " + column + " " + direction + ", id ASC"
}

func (r *leadRepository) Update(ctx context.Context, lead *model.Lead) error {
	lead.UpdatedAt = time.Now()

	query := `UPDATE leads
	          SET lead_name = $1, email = $2, telefone = $3, company = $4, instagram = $5, origin = $6,
	              value = $7, status = $8, follow_up_date = $9, updated_at = $10
	          WHERE id = $11 AND user_id = $12`

	result, err := r.db.ExecContext(ctx, query,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Company,
		lead.Instagram,
		lead.Origin,
		lead.Value,
		lead.Status,
		lead.FollowUpDate,
		lead.UpdatedAt,
		lead.ID,
		lead.UserID,
	)

	return checkAffected(result, err, ErrLeadNotFound)
}

func (r *leadRepository) UpdateStatus(ctx context.Context, userID string, leadID int64, status model.LeadStatus) error {
	query := `UPDATE leads SET status = $1, updated_at = $2 WHERE id = $3 AND user_id = $4`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), leadID, userID)

	return checkAffected(result, err, ErrLeadNotFound)
}

func (r *leadRepository) Delete(ctx context.Context, userID string, leadID int64) error {
	query := `DELETE FROM leads WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, leadID, userID)

	return checkAffected(result, err, ErrLeadNotFound)
}

// checkAffected maps a write that touched no rows to notFound.
func checkAffected(result sql.Result, err error, notFound error) error {
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return notFound
	}

	return nil
}
