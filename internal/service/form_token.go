package service

import (
	"context"
	"errors"
	"strings"

	"github.com/leadflow/leadflow/internal/model"
	"github.com/leadflow/leadflow/internal/repository"
)

var ErrFormTokenLabelTooLong = errors.New("rótulo muito longo (máximo de 100 caracteres)")

const maxFormTokenLabel = 100

// FormTokenService manages the bearer tokens external forms use to post leads.
type FormTokenService struct {
	tokens repository.FormTokenRepository
}

func NewFormTokenService(tokens repository.FormTokenRepository) *FormTokenService {
	return &FormTokenService{tokens: tokens}
}

func (s *FormTokenService) Tokens(ctx context.Context, userID string) ([]*model.FormToken, error) {
	err := requireOwner(userID)
	if err != nil {
		return nil, err
	}

	tokens, err := s.tokens.Tokens(ctx, userID)
	if err != nil {
		return nil, storeError("list form tokens", err)
	}

	return tokens, nil
}

func (s *FormTokenService) Create(ctx context.Context, userID, label string) (*model.FormToken, error) {
	err := requireOwner(userID)
	if err != nil {
		return nil, err
	}

	label = strings.TrimSpace(label)
	if len([]rune(label)) > maxFormTokenLabel {
		return nil, ErrFormTokenLabelTooLong
	}

	value, err := GenerateToken()
	if err != nil {
		return nil, err
	}

	token := &model.FormToken{
		Token:  value,
		UserID: userID,
		Label:  label,
	}

	err = s.tokens.Create(ctx, token)
	if err != nil {
		return nil, storeError("create form token", err)
	}

	return token, nil
}

func (s *FormTokenService) Revoke(ctx context.Context, userID, token string) error {
	err := requireOwner(userID)
	if err != nil {
		return err
	}

	err = s.tokens.Delete(ctx, userID, token)
	if err != nil {
		return storeError("revoke form token", err)
	}

	return nil
}
