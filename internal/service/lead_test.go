package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/leadflow/internal/events"
	"github.com/leadflow/leadflow/internal/model"
	"github.com/leadflow/leadflow/internal/repository"
)

func TestLeadServiceCreate(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	rec := &recorder{}
	leads := NewLeadService(repository.NewLeadRepository(conn), rec)
	user := newTestUser(t, conn, "ana@example.com", "Ana")

	lead, err := leads.Create(ctx, user.ID, LeadInput{
		Name:         "  Carla Souza ",
		Email:        "Carla@Acme.com",
		Company:      "Acme",
		Phone:        " ",
		Value:        "1.999,99",
		FollowUpDate: "2025-03-12",
	})
	require.NoError(t, err)

	got, err := leads.Lead(ctx, user.ID, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Carla Souza", got.Name)
	assert.Equal(t, "carla@acme.com", got.Email)
	assert.Equal(t, "Acme", got.CompanyName())
	assert.Nil(t, got.Phone)
	assert.InDelta(t, 1999.99, got.Value, 0.001)
	assert.Equal(t, model.LeadStatusNew, got.Status)
	require.NotNil(t, got.FollowUpDate)
	assert.Equal(t, []events.Op{events.OpCreated}, rec.ops())
}

func TestLeadServiceCreateValidates(t *testing.T) {
	repo := &mockLeadRepository{}
	leads := NewLeadService(repo, events.Discard{})
	ctx := context.Background()

	tests := []struct {
		name  string
		input LeadInput
	}{
		{"missing name", LeadInput{Email: "a@b.com"}},
		{"bad email", LeadInput{Name: "Ana", Email: "nope"}},
		{"negative value", LeadInput{Name: "Ana", Email: "a@b.com", Value: "-10"}},
		{"unknown status", LeadInput{Name: "Ana", Email: "a@b.com", Status: "archived"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := leads.Create(ctx, "user-1", tt.input)
			assert.Error(t, err)
		})
	}

	// Validation failures never reach the store
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLeadServiceRequiresOwner(t *testing.T) {
	repo := &mockLeadRepository{}
	leads := NewLeadService(repo, events.Discard{})
	ctx := context.Background()

	_, err := leads.Leads(ctx, "", LeadFilter{}, time.Now())
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = leads.Create(ctx, "", LeadInput{Name: "Ana", Email: "a@b.com"})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	err = leads.UpdateStatus(ctx, "", 1, model.LeadStatusWon)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	err = leads.Delete(ctx, "", 1)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	repo.AssertExpectations(t)
}

func TestLeadServiceStoreErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("transport failure is unavailable", func(t *testing.T) {
		repo := &mockLeadRepository{}
		repo.On("Leads", ctx, "user-1", repository.LeadQuery{}).Return(nil, errors.New("connection refused"))
		leads := NewLeadService(repo, events.Discard{})

		_, err := leads.Leads(ctx, "user-1", LeadFilter{}, time.Now())
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("missing lead is not found", func(t *testing.T) {
		repo := &mockLeadRepository{}
		repo.On("UpdateStatus", ctx, "user-1", int64(9), model.LeadStatusWon).Return(repository.ErrLeadNotFound)
		rec := &recorder{}
		leads := NewLeadService(repo, rec)

		err := leads.UpdateStatus(ctx, "user-1", 9, model.LeadStatusWon)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, err, repository.ErrLeadNotFound)
		assert.Empty(t, rec.ops())
	})
}

func TestLeadServiceUpdateStatus(t *testing.T) {
	repo := &mockLeadRepository{}
	ctx := context.Background()
	rec := &recorder{}
	leads := NewLeadService(repo, rec)

	err := leads.UpdateStatus(ctx, "user-1", 1, "archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	// Any status can follow any other
	for _, status := range []model.LeadStatus{model.LeadStatusWon, model.LeadStatusNew, model.LeadStatusLost, model.LeadStatusContacted} {
		repo.On("UpdateStatus", ctx, "user-1", int64(1), status).Return(nil).Once()
		err = leads.UpdateStatus(ctx, "user-1", 1, status)
		require.NoError(t, err)
	}

	repo.AssertExpectations(t)
	assert.Len(t, rec.ops(), 4)
}

func TestLeadServiceOverdueFilter(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	leads := NewLeadService(repository.NewLeadRepository(conn), events.Discard{})
	user := newTestUser(t, conn, "ana@example.com", "Ana")

	_, err := leads.Create(ctx, user.ID, LeadInput{Name: "Atrasado", Email: "a@x.com", FollowUpDate: "2025-03-10"})
	require.NoError(t, err)
	_, err = leads.Create(ctx, user.ID, LeadInput{Name: "Hoje", Email: "b@x.com", FollowUpDate: "2025-03-12"})
	require.NoError(t, err)
	_, err = leads.Create(ctx, user.ID, LeadInput{Name: "Sem data", Email: "c@x.com"})
	require.NoError(t, err)

	now := time.Date(2025, time.March, 12, 15, 0, 0, 0, time.UTC)
	overdue, err := leads.Leads(ctx, user.ID, LeadFilter{OverdueOnly: true}, now)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "Atrasado", overdue[0].Name)

	board, err := leads.Board(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, board, len(model.LeadStatuses))
	assert.Len(t, board[0].Leads, 3)
}
