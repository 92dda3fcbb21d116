package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/leadflow/internal/events"
	"github.com/leadflow/leadflow/internal/model"
	"github.com/leadflow/leadflow/internal/repository"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc123", "abc123", false},
		{"Bearer abc123 trailing", "abc123", false},
		{"", "", true},
		{"Basic abc123", "", true},
		{"bearer abc123", "", true},
		{"Bearer ", "", true},
		{"Bearer", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := BearerToken(tt.header)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrIntakeAuthHeader)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIntakeSubmitInsertsNewLead(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, conn, "ana@example.com", "Ana")
	tokens := repository.NewFormTokenRepository(conn)
	leadRepo := repository.NewLeadRepository(conn)
	require.NoError(t, tokens.Create(ctx, &model.FormToken{Token: "tok", UserID: user.ID}))

	rec := &recorder{}
	intake := NewIntakeService(tokens, leadRepo, rec)

	lead, err := intake.Submit(ctx, "tok", IntakeLead{LeadName: "Carla", Email: "carla@acme.com"})
	require.NoError(t, err)

	got, err := leadRepo.ByID(ctx, user.ID, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusNew, got.Status)
	assert.Nil(t, got.Phone)
	assert.Nil(t, got.Company)
	assert.Zero(t, got.Value)
	assert.Equal(t, []events.Op{events.OpCreated}, rec.ops())
}

func TestIntakeSubmitWithOptionalFields(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, conn, "ana@example.com", "Ana")
	tokens := repository.NewFormTokenRepository(conn)
	leadRepo := repository.NewLeadRepository(conn)
	require.NoError(t, tokens.Create(ctx, &model.FormToken{Token: "tok", UserID: user.ID}))

	intake := NewIntakeService(tokens, leadRepo, events.Discard{})
	value := 2500.5
	lead, err := intake.Submit(ctx, "tok", IntakeLead{
		LeadName: "Carla",
		Email:    "carla@acme.com",
		Telefone: "+55 11 99999-0000",
		Company:  "Acme",
		Value:    &value,
	})
	require.NoError(t, err)

	got, err := leadRepo.ByID(ctx, user.ID, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "+55 11 99999-0000", got.PhoneNumber())
	assert.Equal(t, "Acme", got.CompanyName())
	assert.Equal(t, 2500.5, got.Value)
}

func TestIntakeSubmitInvalidTokenInsertsNothing(t *testing.T) {
	conn := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, conn, "ana@example.com", "Ana")
	leadRepo := repository.NewLeadRepository(conn)
	intake := NewIntakeService(repository.NewFormTokenRepository(conn), leadRepo, events.Discard{})

	_, err := intake.Submit(ctx, "unknown", IntakeLead{LeadName: "Carla", Email: "carla@acme.com"})
	assert.ErrorIs(t, err, ErrIntakeInvalidToken)

	leads, err := leadRepo.Leads(ctx, user.ID, repository.LeadQuery{})
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestIntakeSubmitChecksFieldsBeforeToken(t *testing.T) {
	tokens := &mockFormTokenRepository{}
	leads := &mockLeadRepository{}
	intake := NewIntakeService(tokens, leads, events.Discard{})

	_, err := intake.Submit(context.Background(), "tok", IntakeLead{LeadName: "Carla"})
	assert.ErrorIs(t, err, ErrIntakeRequiredFields)

	_, err = intake.Submit(context.Background(), "tok", IntakeLead{Email: "carla@acme.com"})
	assert.ErrorIs(t, err, ErrIntakeRequiredFields)

	tokens.AssertNotCalled(t, "Owner", mock.Anything, mock.Anything)
	leads.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestIntakeSubmitInsertFailure(t *testing.T) {
	ctx := context.Background()
	tokens := &mockFormTokenRepository{}
	tokens.On("Owner", ctx, "tok").Return(&model.FormToken{Token: "tok", UserID: "user-1"}, nil)
	leads := &mockLeadRepository{}
	leads.On("Create", ctx, mock.AnythingOfType("*model.Lead")).Return(errors.New("disk full"))
	rec := &recorder{}

	intake := NewIntakeService(tokens, leads, rec)
	_, err := intake.Submit(ctx, "tok", IntakeLead{LeadName: "Carla", Email: "carla@acme.com"})

	assert.ErrorIs(t, err, ErrIntakeInsertFailed)
	assert.Empty(t, rec.ops())
	leads.AssertExpectations(t)
}
