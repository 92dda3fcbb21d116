package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/leadflow/leadflow/internal/events"
	"github.com/leadflow/leadflow/internal/model"
	"github.com/leadflow/leadflow/internal/repository"
)

var (
	ErrProposalFieldsRequired = errors.New("preencha o serviço e os detalhes da proposta")
)

type ProposalInput struct {
	Service string
	Details string
	// Attachment is an optional, already validated PDF.
	Attachment *Upload
}

type ProposalService struct {
	leads     repository.LeadRepository
	proposals repository.ProposalRepository
	files     *FileService
	publisher events.Publisher
}

func NewProposalService(
	leads repository.LeadRepository,
	proposals repository.ProposalRepository,
	files *FileService,
	publisher events.Publisher,
) *ProposalService {
	return &ProposalService{
		leads:     leads,
		proposals: proposals,
		files:     files,
		publisher: publisher,
	}
}

func (s *ProposalService) AttachmentsEnabled() bool {
	return s.files.Enabled()
}

// Proposals lists a lead's proposals with their attachment links filled in.
func (s *ProposalService) Proposals(ctx context.Context, userID string, leadID int64) ([]*model.Proposal, error) {
	err := requireOwner(userID)
	if err != nil {
		return nil, err
	}

	proposals, err := s.proposals.ByLead(ctx, userID, leadID)
	if err != nil {
		return nil, storeError("list proposals", err)
	}

	for _, proposal := range proposals {
		s.withAttachment(ctx, proposal)
	}

	return proposals, nil
}

func (s *ProposalService) Proposal(ctx context.Context, userID string, proposalID int64) (*model.Proposal, error) {
	err := requireOwner(userID)
	if err != nil {
		return nil, err
	}

	proposal, err := s.proposals.ByID(ctx, userID, proposalID)
	if err != nil {
		return nil, storeError("get proposal", err)
	}

	s.withAttachment(ctx, proposal)
	return proposal, nil
}

func (s *ProposalService) Create(ctx context.Context, userID string, leadID int64, input ProposalInput) (*model.Proposal, error) {
	err := requireOwner(userID)
	if err != nil {
		return nil, err
	}

	service, details, err := validateProposal(input)
	if err != nil {
		return nil, err
	}

	_, err = s.leads.ByID(ctx, userID, leadID)
	if err != nil {
		return nil, storeError("get lead", err)
	}

	proposal := &model.Proposal{
		LeadID:  leadID,
		UserID:  userID,
		Service: service,
		Details: details,
	}

	err = s.proposals.Create(ctx, proposal)
	if err != nil {
		return nil, storeError("create proposal", err)
	}

	err = s.attach(ctx, proposal, input.Attachment)
	if err != nil {
		return proposal, err
	}

	s.publish(ctx, userID, proposal.ID, events.OpCreated)
	return proposal, nil
}

func (s *ProposalService) Update(ctx context.Context, userID string, proposalID int64, input ProposalInput) (*model.Proposal, error) {
	err := requireOwner(userID)
	if err != nil {
		return nil, err
	}

	service, details, err := validateProposal(input)
	if err != nil {
		return nil, err
	}

	proposal, err := s.proposals.ByID(ctx, userID, proposalID)
	if err != nil {
		return nil, storeError("get proposal", err)
	}

	proposal.Service = service
	proposal.Details = details

	err = s.proposals.Update(ctx, proposal)
	if err != nil {
		return nil, storeError("update proposal", err)
	}

	if input.Attachment != nil {
		// A new attachment replaces the previous one
		err = s.files.DeleteOwned(ctx, model.FileOwnerProposal, proposalKey(proposal.ID))
		if err != nil {
			slog.Error("failed to delete previous attachment", "error", err, "proposal_id", proposal.ID)
		}
		err = s.attach(ctx, proposal, input.Attachment)
		if err != nil {
			return proposal, err
		}
	} else {
		s.withAttachment(ctx, proposal)
	}

	s.publish(ctx, userID, proposal.ID, events.OpUpdated)
	return proposal, nil
}

// Delete removes a proposal and its attachment and returns the lead it belonged to.
func (s *ProposalService) Delete(ctx context.Context, userID string, proposalID int64) (int64, error) {
	err := requireOwner(userID)
	if err != nil {
		return 0, err
	}

	proposal, err := s.proposals.ByID(ctx, userID, proposalID)
	if err != nil {
		return 0, storeError("get proposal", err)
	}

	err = s.files.DeleteOwned(ctx, model.FileOwnerProposal, proposalKey(proposalID))
	if err != nil {
		return 0, storeError("delete attachment", err)
	}

	err = s.proposals.Delete(ctx, userID, proposalID)
	if err != nil {
		return 0, storeError("delete proposal", err)
	}

	s.publish(ctx, userID, proposalID, events.OpDeleted)
	return proposal.LeadID, nil
}

func (s *ProposalService) attach(ctx context.Context, proposal *model.Proposal, upload *Upload) error {
	if upload == nil {
		return nil
	}

	file, err := s.files.Upload(ctx, proposal.UserID, model.FileOwnerProposal, proposalKey(proposal.ID), model.FileTypeProposalAttachment, *upload)
	if errors.Is(err, ErrAttachmentsDisabled) {
		return err
	}
	if err != nil {
		return storeError("upload attachment", err)
	}

	proposal.AttachmentName = file.OriginalName
	proposal.AttachmentURL = s.files.URL(ctx, file)
	return nil
}

func (s *ProposalService) withAttachment(ctx context.Context, proposal *model.Proposal) {
	if !s.files.Enabled() {
		return
	}

	file, err := s.files.Attachment(ctx, model.FileOwnerProposal, proposalKey(proposal.ID), model.FileTypeProposalAttachment)
	if err != nil {
		slog.Warn("failed to load proposal attachment", "error", err, "proposal_id", proposal.ID)
		return
	}
	if file == nil {
		return
	}

	proposal.AttachmentName = file.OriginalName
	proposal.AttachmentURL = s.files.URL(ctx, file)
}

func (s *ProposalService) publish(ctx context.Context, userID string, id int64, op events.Op) {
	s.publisher.Publish(ctx, events.Change{
		OwnerID:  userID,
		Entity:   events.EntityProposal,
		EntityID: id,
		Op:       op,
		At:       time.Now(),
	})
}

func proposalKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func validateProposal(input ProposalInput) (string, string, error) {
	service := strings.TrimSpace(input.Service)
	details := strings.TrimSpace(input.Details)
	if service == "" || details == "" {
		return "", "", ErrProposalFieldsRequired
	}
	return service, details, nil
}
