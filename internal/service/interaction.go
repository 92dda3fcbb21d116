package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/leadflow/leadflow/internal/events"
	"github.com/leadflow/leadflow/internal/model"
	"github.com/leadflow/leadflow/internal/repository"
)

var (
	ErrMessageRequired = errors.New("escreva a interação antes de salvar")
	ErrMessageTooLong  = errors.New("interação muito longa (máximo de 5000 caracteres)")
)

const maxMessageLength = 5000

type InteractionService struct {
	leads        repository.LeadRepository
	interactions repository.InteractionRepository
	publisher    events.Publisher
}

func NewInteractionService(
	leads repository.LeadRepository,
	interactions repository.InteractionRepository,
	publisher events.Publisher,
) *InteractionService {
	return &InteractionService{
		leads:        leads,
		interactions: interactions,
		publisher:    publisher,
	}
}

// Interactions lists a lead's notes, newest first.
func (s *InteractionService) Interactions(ctx context.Context, userID string, leadID int64) ([]*model.Interaction, error) {
	err := requireOwner(userID)
	if err != nil {
		return nil, err
	}

	interactions, err := s.interactions.ByLead(ctx, userID, leadID)
	if err != nil {
		return nil, storeError("list interactions", err)
	}

	return interactions, nil
}

func (s *InteractionService) Create(ctx context.Context, userID string, leadID int64, message string) (*model.Interaction, error) {
	err := requireOwner(userID)
	if err != nil {
		return nil, err
	}

	message, err = validateMessage(message)
	if err != nil {
		return nil, err
	}

	// The lead must exist and belong to the caller
	_, err = s.leads.ByID(ctx, userID, leadID)
	if err != nil {
		return nil, storeError("get lead", err)
	}

	interaction := &model.Interaction{
		LeadID:  leadID,
		UserID:  userID,
		Message: message,
	}

	err = s.interactions.Create(ctx, interaction)
	if err != nil {
		return nil, storeError("create interaction", err)
	}

	s.publish(ctx, userID, interaction.ID, events.OpCreated)
	return interaction, nil
}

func (s *InteractionService) Interaction(ctx context.Context, userID string, interactionID int64) (*model.Interaction, error) {
	err := requireOwner(userID)
	if err != nil {
		return nil, err
	}

	interaction, err := s.interactions.ByID(ctx, userID, interactionID)
	if err != nil {
		return nil, storeError("get interaction", err)
	}

	return interaction, nil
}

func (s *InteractionService) Update(ctx context.Context, userID string, interactionID int64, message string) (*model.Interaction, error) {
	err := requireOwner(userID)
	if err != nil {
		return nil, err
	}

	message, err = validateMessage(message)
	if err != nil {
		return nil, err
	}

	interaction, err := s.interactions.ByID(ctx, userID, interactionID)
	if err != nil {
		return nil, storeError("get interaction", err)
	}

	interaction.Message = message
	err = s.interactions.Update(ctx, interaction)
	if err != nil {
		return nil, storeError("update interaction", err)
	}

	s.publish(ctx, userID, interaction.ID, events.OpUpdated)
	return interaction, nil
}

// Delete removes a note and returns the lead it belonged to.
func (s *InteractionService) Delete(ctx context.Context, userID string, interactionID int64) (int64, error) {
	err := requireOwner(userID)
	if err != nil {
		return 0, err
	}

	interaction, err := s.interactions.ByID(ctx, userID, interactionID)
	if err != nil {
		return 0, storeError("get interaction", err)
	}

	err = s.interactions.Delete(ctx, userID, interactionID)
	if err != nil {
		return 0, storeError("delete interaction", err)
	}

	s.publish(ctx, userID, interactionID, events.OpDeleted)
	return interaction.LeadID, nil
}

func (s *InteractionService) publish(ctx context.Context, userID string, id int64, op events.Op) {
	s.publisher.Publish(ctx, events.Change{
		OwnerID:  userID,
		Entity:   events.EntityInteraction,
		EntityID: id,
		Op:       op,
		At:       time.Now(),
	})
}

func validateMessage(message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrMessageRequired
	}
	if len([]rune(message)) > maxMessageLength {
		return "", ErrMessageTooLong
	}
	return message, nil
}
