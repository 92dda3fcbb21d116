package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/leadflow/internal/model"
)

func TestInteractionRepository(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	repo := NewInteractionRepository(conn)
	owner := createUser(t, conn, "ana@example.com")
	other := createUser(t, conn, "bruno@example.com")

	lead := &model.Lead{UserID: owner.ID, Name: "Lead", Email: "l@x.com", Status: model.LeadStatusNew}
	require.NoError(t, NewLeadRepository(conn).Create(ctx, lead))

	base := time.Date(2025, time.February, 1, 9, 0, 0, 0, time.UTC)
	first := &model.Interaction{LeadID: lead.ID, UserID: owner.ID, Message: "Primeiro contato", CreatedAt: base}
	second := &model.Interaction{LeadID: lead.ID, UserID: owner.ID, Message: "Enviei o orçamento", CreatedAt: base.Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	list, err := repo.ByLead(ctx, owner.ID, lead.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.False(t, list[0].Edited())

	first.Message = "Primeiro contato por telefone"
	require.NoError(t, repo.Update(ctx, first))

	got, err := repo.ByID(ctx, owner.ID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Primeiro contato por telefone", got.Message)
	assert.True(t, got.Edited())

	_, err = repo.ByID(ctx, other.ID, first.ID)
	assert.ErrorIs(t, err, ErrInteractionNotFound)

	err = repo.Delete(ctx, other.ID, first.ID)
	assert.ErrorIs(t, err, ErrInteractionNotFound)

	require.NoError(t, repo.Delete(ctx, owner.ID, first.ID))
	list, err = repo.ByLead(ctx, owner.ID, lead.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestProposalRepository(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	repo := NewProposalRepository(conn)
	owner := createUser(t, conn, "ana@example.com")

	lead := &model.Lead{UserID: owner.ID, Name: "Lead", Email: "l@x.com", Status: model.LeadStatusProposal}
	require.NoError(t, NewLeadRepository(conn).Create(ctx, lead))

	proposal := &model.Proposal{LeadID: lead.ID, UserID: owner.ID, Service: "Identidade visual", Details: "Logo e manual"}
	require.NoError(t, repo.Create(ctx, proposal))
	assert.NotZero(t, proposal.ID)

	proposal.Details = "Logo, manual e papelaria"
	require.NoError(t, repo.Update(ctx, proposal))

	got, err := repo.ByID(ctx, owner.ID, proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, "Logo, manual e papelaria", got.Details)

	require.NoError(t, repo.Delete(ctx, owner.ID, proposal.ID))
	_, err = repo.ByID(ctx, owner.ID, proposal.ID)
	assert.ErrorIs(t, err, ErrProposalNotFound)
}
