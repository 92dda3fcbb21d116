package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/leadflow/internal/db"
	"github.com/leadflow/leadflow/internal/events"
	"github.com/leadflow/leadflow/internal/model"
	"github.com/leadflow/leadflow/internal/repository"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conn, err := sqlx.Connect("sqlite", db.SQLiteDSN(":memory:"))
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	err = db.RunMigrations(conn.DB, "sqlite")
	require.NoError(t, err)

	return conn
}

// newTestUser creates a verified user with a profile.
func newTestUser(t *testing.T, conn *sqlx.DB, email, name string) *model.User {
	t.Helper()

	auth := NewAuthService(
		repository.NewUserRepository(conn),
		repository.NewProfileRepository(conn),
		repository.NewTokenRepository(conn),
		devEmail(),
		"secret", false, time.Hour, time.Hour, time.Hour,
	)
	now := time.Now()
	user, err := auth.createUser(context.Background(), email, name, nil, &now)
	require.NoError(t, err)

	return user
}

func devEmail() *EmailService {
	return NewEmailService("", "noreply@example.com", "http://localhost:8090", "LeadFlow", true)
}

type recorder struct {
	mu      sync.Mutex
	changes []events.Change
}

func (r *recorder) Publish(_ context.Context, change events.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, change)
}

func (r *recorder) ops() []events.Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	ops := make([]events.Op, 0, len(r.changes))
	for _, c := range r.changes {
		ops = append(ops, c.Op)
	}
	return ops
}

type mockLeadRepository struct {
	mock.Mock
}

func (m *mockLeadRepository) Create(ctx context.Context, lead *model.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *mockLeadRepository) ByID(ctx context.Context, userID string, leadID int64) (*model.Lead, error) {
	args := m.Called(ctx, userID, leadID)
	lead, _ := args.Get(0).(*model.Lead)
	return lead, args.Error(1)
}

func (m *mockLeadRepository) Leads(ctx context.Context, userID string, q repository.LeadQuery) ([]*model.Lead, error) {
	args := m.Called(ctx, userID, q)
	leads, _ := args.Get(0).([]*model.Lead)
	return leads, args.Error(1)
}

func (m *mockLeadRepository) Update(ctx context.Context, lead *model.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *mockLeadRepository) UpdateStatus(ctx context.Context, userID string, leadID int64, status model.LeadStatus) error {
	args := m.Called(ctx, userID, leadID, status)
	return args.Error(0)
}

func (m *mockLeadRepository) Delete(ctx context.Context, userID string, leadID int64) error {
	args := m.Called(ctx, userID, leadID)
	return args.Error(0)
}

type mockFormTokenRepository struct {
	mock.Mock
}

func (m *mockFormTokenRepository) Create(ctx context.Context, token *model.FormToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockFormTokenRepository) Owner(ctx context.Context, token string) (*model.FormToken, error) {
	args := m.Called(ctx, token)
	t, _ := args.Get(0).(*model.FormToken)
	return t, args.Error(1)
}

func (m *mockFormTokenRepository) Tokens(ctx context.Context, userID string) ([]*model.FormToken, error) {
	args := m.Called(ctx, userID)
	tokens, _ := args.Get(0).([]*model.FormToken)
	return tokens, args.Error(1)
}

func (m *mockFormTokenRepository) Delete(ctx context.Context, userID, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}
