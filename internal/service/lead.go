package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/leadflow/leadflow/internal/events"
	"github.com/leadflow/leadflow/internal/lifecycle"
	"github.com/leadflow/leadflow/internal/model"
	"github.com/leadflow/leadflow/internal/repository"
	"github.com/leadflow/leadflow/internal/validation"
)

var (
	ErrInvalidStatus = errors.New("status inválido")
)

// LeadInput is a lead as typed into the lead form. Optional fields are empty when unset.
type LeadInput struct {
	Name         string
	Email        string
	Phone        string
	Company      string
	Instagram    string
	Origin       string
	Value        string
	Status       string
	FollowUpDate string
}

// LeadFilter extends the store query with the overdue-only filter, which is
// evaluated against the caller's "now".
type LeadFilter struct {
	repository.LeadQuery
	OverdueOnly bool
}

type LeadService struct {
	leads     repository.LeadRepository
	publisher events.Publisher
}

func NewLeadService(leads repository.LeadRepository, publisher events.Publisher) *LeadService {
	return &LeadService{
		leads:     leads,
		publisher: publisher,
	}
}

func (s *LeadService) Leads(ctx context.Context, userID string, filter LeadFilter, now time.Time) ([]*model.Lead, error) {
	err := requireOwner(userID)
	if err != nil {
		return nil, err
	}

	leads, err := s.leads.Leads(ctx, userID, filter.LeadQuery)
	if err != nil {
		return nil, storeError("list leads", err)
	}

	if filter.OverdueOnly {
		leads = lifecycle.OverdueLeads(leads, now)
	}

	return leads, nil
}

func (s *LeadService) Lead(ctx context.Context, userID string, leadID int64) (*model.Lead, error) {
	err := requireOwner(userID)
	if err != nil {
		return nil, err
	}

	lead, err := s.leads.ByID(ctx, userID, leadID)
	if err != nil {
		return nil, storeError("get lead", err)
	}

	return lead, nil
}

// Board lists every lead grouped into pipeline columns.
func (s *LeadService) Board(ctx context.Context, userID string) ([]lifecycle.Column, error) {
	leads, err := s.Leads(ctx, userID, LeadFilter{}, time.Time{})
	if err != nil {
		return nil, err
	}

	return lifecycle.Columns(leads), nil
}

func (s *LeadService) Create(ctx context.Context, userID string, in LeadInput) (*model.Lead, error) {
	err := requireOwner(userID)
	if err != nil {
		return nil, err
	}

	lead := &model.Lead{UserID: userID, Status: model.LeadStatusNew}
	err = applyLeadInput(lead, in)
	if err != nil {
		return nil, err
	}

	err = s.leads.Create(ctx, lead)
	if err != nil {
		return nil, storeError("create lead", err)
	}

	s.publish(ctx, lead.UserID, lead.ID, events.OpCreated)
	return lead, nil
}

func (s *LeadService) Update(ctx context.Context, userID string, leadID int64, in LeadInput) (*model.Lead, error) {
	lead, err := s.Lead(ctx, userID, leadID)
	if err != nil {
		return nil, err
	}

	err = applyLeadInput(lead, in)
	if err != nil {
		return nil, err
	}

	err = s.leads.Update(ctx, lead)
	if err != nil {
		return nil, storeError("update lead", err)
	}

	s.publish(ctx, userID, lead.ID, events.OpUpdated)
	return lead, nil
}

// UpdateStatus moves a lead to any status; there is no transition graph.
func (s *LeadService) UpdateStatus(ctx context.Context, userID string, leadID int64, status model.LeadStatus) error {
	err := requireOwner(userID)
	if err != nil {
		return err
	}

	if !status.Valid() {
		return ErrInvalidStatus
	}

	err = s.leads.UpdateStatus(ctx, userID, leadID, status)
	if err != nil {
		return storeError("update lead status", err)
	}

	s.publish(ctx, userID, leadID, events.OpUpdated)
	return nil
}

func (s *LeadService) Delete(ctx context.Context, userID string, leadID int64) error {
	err := requireOwner(userID)
	if err != nil {
		return err
	}

	err = s.leads.Delete(ctx, userID, leadID)
	if err != nil {
		return storeError("delete lead", err)
	}

	s.publish(ctx, userID, leadID, events.OpDeleted)
	return nil
}

func (s *LeadService) publish(ctx context.Context, userID string, leadID int64, op events.Op) {
	s.publisher.Publish(ctx, events.Change{
		OwnerID:  userID,
		Entity:   events.EntityLead,
		EntityID: leadID,
		Op:       op,
		At:       time.Now(),
	})
}

// applyLeadInput validates the form and copies it onto lead. An empty status keeps the current one.
func applyLeadInput(lead *model.Lead, in LeadInput) error {
	name := strings.TrimSpace(in.Name)
	err := validation.ValidateName(name)
	if err != nil {
		return err
	}

	email := strings.TrimSpace(strings.ToLower(in.Email))
	err = validation.ValidateEmail(email)
	if err != nil {
		return err
	}

	value, err := validation.ParseMoney(in.Value)
	if err != nil {
		return err
	}

	if in.Status != "" {
		status := model.LeadStatus(in.Status)
		if !status.Valid() {
			return ErrInvalidStatus
		}
		lead.Status = status
	}

	lead.Name = name
	lead.Email = email
	lead.Phone = optional(in.Phone)
	lead.Company = optional(in.Company)
	lead.Instagram = optional(in.Instagram)
	lead.Origin = optional(in.Origin)
	lead.Value = value
	lead.FollowUpDate = lifecycle.ParseFollowUpDate(in.FollowUpDate)

	return nil
}

// optional maps blank form input to NULL.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
