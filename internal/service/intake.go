package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leadflow/leadflow/internal/events"
	"github.com/leadflow/leadflow/internal/model"
	"github.com/leadflow/leadflow/internal/repository"
)

// Messages returned to the public form. Every failure is a 400 carrying one of these.
var (
	ErrIntakeAuthHeader     = errors.New("Token de autorização ausente ou mal formatado.")
	ErrIntakeRequiredFields = errors.New("Nome e email são campos obrigatórios.")
	ErrIntakeInvalidToken   = errors.New("Token inválido ou não encontrado.")
	ErrIntakeInvalidBody    = errors.New("Corpo da requisição inválido.")
	ErrIntakeInsertFailed   = errors.New("Não foi possível adicionar o lead.")
)

const IntakeSuccessMessage = "Lead adicionado com sucesso!"

// IntakeLead is the JSON body posted by an external form.
type IntakeLead struct {
	LeadName string   `json:"lead_name"`
	Email    string   `json:"email"`
	Telefone string   `json:"telefone"`
	Company  string   `json:"company"`
	Value    *float64 `json:"value"`
}

type IntakeService struct {
	tokens    repository.FormTokenRepository
	leads     repository.LeadRepository
	publisher events.Publisher
}

func NewIntakeService(tokens repository.FormTokenRepository, leads repository.LeadRepository, publisher events.Publisher) *IntakeService {
	return &IntakeService{
		tokens:    tokens,
		leads:     leads,
		publisher: publisher,
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", ErrIntakeAuthHeader
	}
	// Only the first space-separated word after "Bearer " counts
	token, _, _ = strings.Cut(token, " ")
	if token == "" {
		return "", ErrIntakeAuthHeader
	}
	return token, nil
}

// Submit creates a lead with status new for the token's owner. Required
// fields are checked before the token is looked up.
func (s *IntakeService) Submit(ctx context.Context, token string, in IntakeLead) (*model.Lead, error) {
	if in.LeadName == "" || in.Email == "" {
		return nil, ErrIntakeRequiredFields
	}

	owner, err := s.tokens.Owner(ctx, token)
	if errors.Is(err, repository.ErrFormTokenNotFound) {
		return nil, ErrIntakeInvalidToken
	}
	if err != nil {
		slog.Error("failed to resolve form token", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrIntakeInvalidToken, err)
	}

	lead := &model.Lead{
		UserID:  owner.UserID,
		Name:    in.LeadName,
		Email:   in.Email,
		Phone:   nonEmpty(in.Telefone),
		Company: nonEmpty(in.Company),
		Status:  model.LeadStatusNew,
	}
	if in.Value != nil {
		lead.Value = *in.Value
	}

	err = s.leads.Create(ctx, lead)
	if err != nil {
		slog.Error("failed to insert public lead", "error", err, "user_id", owner.UserID)
		return nil, fmt.Errorf("%w: %w", ErrIntakeInsertFailed, err)
	}

	s.publisher.Publish(ctx, events.Change{
		OwnerID:  owner.UserID,
		Entity:   events.EntityLead,
		EntityID: lead.ID,
		Op:       events.OpCreated,
		At:       time.Now(),
	})

	return lead, nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
