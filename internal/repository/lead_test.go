package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/leadflow/internal/model"
)

func TestLeadRepositoryCreateAndByID(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	repo := NewLeadRepository(conn)
	owner := createUser(t, conn, "ana@example.com")
	other := createUser(t, conn, "bruno@example.com")

	followUp := time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC)
	lead := &model.Lead{
		UserID:       owner.ID,
		Name:         "Carla Souza",
		Email:        "carla@acme.com",
		Company:      ptr("Acme"),
		Value:        1500,
		Status:       model.LeadStatusNew,
		FollowUpDate: &followUp,
	}

	err := repo.Create(ctx, lead)
	require.NoError(t, err)
	assert.NotZero(t, lead.ID)
	assert.False(t, lead.CreatedAt.IsZero())

	got, err := repo.ByID(ctx, owner.ID, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Carla Souza", got.Name)
	assert.Equal(t, "Acme", got.CompanyName())
	assert.Nil(t, got.Phone)
	assert.Equal(t, 1500.0, got.Value)
	assert.Equal(t, model.LeadStatusNew, got.Status)
	require.NotNil(t, got.FollowUpDate)
	assert.True(t, followUp.Equal(*got.FollowUpDate))

	_, err = repo.ByID(ctx, other.ID, lead.ID)
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestLeadRepositoryUpdate(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	repo := NewLeadRepository(conn)
	owner := createUser(t, conn, "ana@example.com")
	other := createUser(t, conn, "bruno@example.com")

	stale := time.Now().Add(-10 * 24 * time.Hour)
	lead := &model.Lead{UserID: owner.ID, Name: "Lead", Email: "l@x.com", Status: model.LeadStatusNew, CreatedAt: stale, UpdatedAt: stale}
	require.NoError(t, repo.Create(ctx, lead))

	lead.Name = "Lead Renamed"
	lead.Phone = ptr("11 99999-0000")
	require.NoError(t, repo.Update(ctx, lead))

	got, err := repo.ByID(ctx, owner.ID, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lead Renamed", got.Name)
	assert.Equal(t, "11 99999-0000", got.PhoneNumber())
	assert.True(t, got.UpdatedAt.After(stale))

	err = repo.UpdateStatus(ctx, owner.ID, lead.ID, model.LeadStatusWon)
	require.NoError(t, err)
	got, err = repo.ByID(ctx, owner.ID, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusWon, got.Status)

	err = repo.UpdateStatus(ctx, other.ID, lead.ID, model.LeadStatusLost)
	assert.ErrorIs(t, err, ErrLeadNotFound)

	lead.UserID = other.ID
	err = repo.Update(ctx, lead)
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestLeadRepositoryDeleteCascades(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	leads := NewLeadRepository(conn)
	interactions := NewInteractionRepository(conn)
	proposals := NewProposalRepository(conn)
	owner := createUser(t, conn, "ana@example.com")

	lead := &model.Lead{UserID: owner.ID, Name: "Lead", Email: "l@x.com", Status: model.LeadStatusNew}
	require.NoError(t, leads.Create(ctx, lead))
	require.NoError(t, interactions.Create(ctx, &model.Interaction{LeadID: lead.ID, UserID: owner.ID, Message: "Ligação"}))
	require.NoError(t, proposals.Create(ctx, &model.Proposal{LeadID: lead.ID, UserID: owner.ID, Service: "Site", Details: "Landing page"}))

	require.NoError(t, leads.Delete(ctx, owner.ID, lead.ID))

	remaining, err := interactions.ByLead(ctx, owner.ID, lead.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	props, err := proposals.ByLead(ctx, owner.ID, lead.ID)
	require.NoError(t, err)
	assert.Empty(t, props)

	err = leads.Delete(ctx, owner.ID, lead.ID)
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestLeadRepositorySearch(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	repo := NewLeadRepository(conn)
	owner := createUser(t, conn, "ana@example.com")
	other := createUser(t, conn, "bruno@example.com")

	for _, lead := range []*model.Lead{
		{UserID: owner.ID, Name: "Marina Lopes", Email: "marina@studio.com", Company: ptr("Studio Norte")},
		{UserID: owner.ID, Name: "Pedro", Email: "pedro@gmail.com", Phone: ptr("21 98888-1234")},
		{UserID: owner.ID, Name: "Rafa", Email: "rafa@norte.io"},
		{UserID: owner.ID, Name: "100% Certo", Email: "c@c.com"},
		{UserID: other.ID, Name: "Norte Outro", Email: "x@norte.io"},
	} {
		lead.Status = model.LeadStatusNew
		require.NoError(t, repo.Create(ctx, lead))
	}

	names := func(q LeadQuery) []string {
		leads, err := repo.Leads(ctx, owner.ID, q)
		require.NoError(t, err)
		var out []string
		for _, l := range leads {
			out = append(out, l.Name)
		}
		return out
	}

	assert.ElementsMatch(t, []string{"Marina Lopes", "Rafa"}, names(LeadQuery{Search: "NORTE"}))
	assert.Equal(t, []string{"Pedro"}, names(LeadQuery{Search: "98888"}))
	assert.Equal(t, []string{"Marina Lopes"}, names(LeadQuery{Search: "  marina "}))
	assert.Equal(t, []string{"100% Certo"}, names(LeadQuery{Search: "0%"}))
	assert.Empty(t, names(LeadQuery{Search: "nobody"}))
	assert.Len(t, names(LeadQuery{}), 4)
}

func TestLeadRepositorySortNullsLast(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	repo := NewLeadRepository(conn)
	owner := createUser(t, conn, "ana@example.com")

	base := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)
	for i, lead := range []*model.Lead{
		{Name: "sem empresa", Company: nil, Value: 10},
		{Name: "beta", Company: ptr("beta ltda"), Value: 300},
		{Name: "Alfa", Company: ptr("Alfa SA"), Value: 20},
	} {
		lead.UserID = owner.ID
		lead.Email = "x@x.com"
		lead.Status = model.LeadStatusNew
		lead.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		lead.UpdatedAt = lead.CreatedAt
		require.NoError(t, repo.Create(ctx, lead))
	}

	names := func(q LeadQuery) []string {
		leads, err := repo.Leads(ctx, owner.ID, q)
		require.NoError(t, err)
		var out []string
		for _, l := range leads {
			out = append(out, l.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Alfa", "beta", "sem empresa"}, names(LeadQuery{SortBy: LeadSortCompany}))
	assert.Equal(t, []string{"beta", "Alfa", "sem empresa"}, names(LeadQuery{SortBy: LeadSortCompany, Desc: true}))
	assert.Equal(t, []string{"sem empresa", "Alfa", "beta"}, names(LeadQuery{SortBy: LeadSortValue}))
	assert.Equal(t, []string{"Alfa", "beta", "sem empresa"}, names(LeadQuery{SortBy: LeadSortName}))
	assert.Equal(t, []string{"Alfa", "beta", "sem empresa"}, names(LeadQuery{}))
	assert.Equal(t, []string{"Alfa", "beta", "sem empresa"}, names(LeadQuery{SortBy: "lead_name; DROP TABLE leads"}))
}

func TestLeadOrderBy(t *testing.T) {
	assert.Equal(t, "ORDER BY created_at DESC, id DESC", leadOrderBy("", false))
	assert.Equal(t, "ORDER BY (follow_up_date IS NULL), follow_up_date DESC, id ASC", leadOrderBy(LeadSortFollowUp, true))
}
