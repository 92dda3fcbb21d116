package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/leadflow/internal/events"
	"github.com/leadflow/leadflow/internal/model"
	"github.com/leadflow/leadflow/internal/repository"
)

func TestInteractionService(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	owner := newTestUser(t, conn, "ana@example.com", "Ana")
	other := newTestUser(t, conn, "bruno@example.com", "Bruno")
	leadRepo := repository.NewLeadRepository(conn)
	lead := &model.Lead{UserID: owner.ID, Name: "Carla", Email: "c@x.com", Status: model.LeadStatusNew}
	require.NoError(t, leadRepo.Create(ctx, lead))

	rec := &recorder{}
	interactions := NewInteractionService(leadRepo, repository.NewInteractionRepository(conn), rec)

	_, err := interactions.Create(ctx, owner.ID, lead.ID, "  ")
	assert.ErrorIs(t, err, ErrMessageRequired)

	// Someone else's lead looks missing
	_, err = interactions.Create(ctx, other.ID, lead.ID, "oi")
	assert.ErrorIs(t, err, ErrNotFound)

	first, err := interactions.Create(ctx, owner.ID, lead.ID, "Primeiro contato por WhatsApp")
	require.NoError(t, err)
	assert.False(t, first.Edited())

	edited, err := interactions.Update(ctx, owner.ID, first.ID, "Primeiro contato por telefone")
	require.NoError(t, err)
	assert.True(t, edited.Edited())

	list, err := interactions.Interactions(ctx, owner.ID, lead.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Primeiro contato por telefone", list[0].Message)

	leadID, err := interactions.Delete(ctx, owner.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, lead.ID, leadID)

	assert.Equal(t, []events.Op{events.OpCreated, events.OpUpdated, events.OpDeleted}, rec.ops())
}

func TestProposalService(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	owner := newTestUser(t, conn, "ana@example.com", "Ana")
	leadRepo := repository.NewLeadRepository(conn)
	lead := &model.Lead{UserID: owner.ID, Name: "Carla", Email: "c@x.com", Status: model.LeadStatusContacted}
	require.NoError(t, leadRepo.Create(ctx, lead))

	files := NewFileService(repository.NewFileRepository(conn), nil)
	proposals := NewProposalService(leadRepo, repository.NewProposalRepository(conn), files, events.Discard{})
	assert.False(t, proposals.AttachmentsEnabled())

	_, err := proposals.Create(ctx, owner.ID, lead.ID, ProposalInput{Service: "Site"})
	assert.ErrorIs(t, err, ErrProposalFieldsRequired)

	proposal, err := proposals.Create(ctx, owner.ID, lead.ID, ProposalInput{Service: "Site", Details: "Landing page + blog"})
	require.NoError(t, err)

	// Without storage the proposal is saved and the attachment refused
	_, err = proposals.Update(ctx, owner.ID, proposal.ID, ProposalInput{
		Service:    "Site",
		Details:    "Landing page",
		Attachment: &Upload{Name: "proposta.pdf", ContentType: "application/pdf", Body: bytes.NewReader([]byte("%PDF-1.4"))},
	})
	assert.ErrorIs(t, err, ErrAttachmentsDisabled)

	list, err := proposals.Proposals(ctx, owner.ID, lead.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Landing page", list[0].Details)
	assert.Empty(t, list[0].AttachmentURL)

	leadID, err := proposals.Delete(ctx, owner.ID, proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, lead.ID, leadID)
}
