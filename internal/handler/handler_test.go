package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/leadflow/internal/ctxkeys"
	"github.com/leadflow/leadflow/internal/db"
	"github.com/leadflow/leadflow/internal/events"
	"github.com/leadflow/leadflow/internal/model"
	"github.com/leadflow/leadflow/internal/repository"
	"github.com/leadflow/leadflow/internal/service"
	"github.com/leadflow/leadflow/internal/ui/layouts"
)

var testNow = time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC)

type fixture struct {
	db      *sqlx.DB
	user    *model.User
	profile *model.Profile
	leads   repository.LeadRepository
}

// newFixture opens a migrated in-memory database with one logged-in user.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := sqlx.Connect("sqlite", db.SQLiteDSN(":memory:"))
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	err = db.RunMigrations(conn.DB, "sqlite")
	require.NoError(t, err)

	ctx := context.Background()
	user := &model.User{
		ID:              "00000000-0000-0000-0000-000000000001",
		Email:           "ana@example.com",
		EmailVerifiedAt: &testNow,
		CreatedAt:       testNow,
	}
	err = repository.NewUserRepository(conn).Create(ctx, user)
	require.NoError(t, err)

	profile := &model.Profile{UserID: user.ID, Name: "Ana"}
	err = repository.NewProfileRepository(conn).Create(ctx, profile)
	require.NoError(t, err)

	return &fixture{
		db:      conn,
		user:    user,
		profile: profile,
		leads:   repository.NewLeadRepository(conn),
	}
}

func (f *fixture) createLead(t *testing.T, name string, status model.LeadStatus) *model.Lead {
	t.Helper()

	lead := &model.Lead{
		UserID: f.user.ID,
		Name:   name,
		Email:  strings.ToLower(name) + "@example.com",
		Status: status,
		Value:  1500,
	}
	err := f.leads.Create(context.Background(), lead)
	require.NoError(t, err)

	return lead
}

// request builds a request as the fixture user would send it after the
// session and clock middleware ran.
func (f *fixture) request(method, target string, body io.Reader) *http.Request {
	r := httptest.NewRequest(method, target, body)
	if body != nil {
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	ctx := ctxkeys.WithUser(r.Context(), f.user)
	ctx = ctxkeys.WithProfile(ctx, f.profile)
	ctx = ctxkeys.WithNow(ctx, func() time.Time { return testNow })
	return r.WithContext(ctx)
}

func htmx(r *http.Request, target string) *http.Request {
	r.Header.Set("HX-Request", "true")
	if target != "" {
		r.Header.Set("HX-Target", target)
	}
	return r
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", errors.Join(service.ErrNotFound, repository.ErrLeadNotFound), service.ErrNotFound.Error()},
		{"store failure hides details", errors.Join(service.ErrUnavailable, errors.New("disk I/O error")), service.ErrUnavailable.Error()},
		{"no session", service.ErrUnauthenticated, service.ErrUnauthenticated.Error()},
		{"validation message passes through", errors.New("nome é obrigatório"), "nome é obrigatório"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, userMessage(tt.err))
		})
	}
}

func TestPathID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/leads/7", nil)
	r.SetPathValue("id", "7")
	id, ok := pathID(r)
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)

	for _, bad := range []string{"", "0", "-3", "abc"} {
		r.SetPathValue("id", bad)
		_, ok = pathID(r)
		assert.False(t, ok, bad)
	}
}

func TestRedirect(t *testing.T) {
	w := httptest.NewRecorder()
	redirect(w, htmx(httptest.NewRequest(http.MethodDelete, "/leads/1", nil), ""), "/leads")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/leads", w.Header().Get("HX-Redirect"))

	w = httptest.NewRecorder()
	redirect(w, httptest.NewRequest(http.MethodPost, "/auth/logout", nil), "/login")
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestNotFound(t *testing.T) {
	w := httptest.NewRecorder()
	notFound(w, httptest.NewRequest(http.MethodGet, "/leads/99", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Página não encontrada")

	// HTMX requests keep the screen and show a toast
	w = httptest.NewRecorder()
	notFound(w, htmx(httptest.NewRequest(http.MethodGet, "/leads/99/panel", nil), "dialog"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "toast-container")
	assert.Contains(t, w.Body.String(), service.ErrNotFound.Error())
}

func TestChangedClosesDialog(t *testing.T) {
	w := httptest.NewRecorder()
	changed(w, httptest.NewRequest(http.MethodPost, "/leads", nil), "Lead adicionado")
	assert.Equal(t, "closeDialog, leadflow:changed", w.Header().Get("HX-Trigger"))
	assert.Contains(t, w.Body.String(), "Lead adicionado")

	w = httptest.NewRecorder()
	refreshed(w, httptest.NewRequest(http.MethodPost, "/leads/1/interactions", nil), "Interação adicionada")
	assert.Equal(t, "leadflow:changed", w.Header().Get("HX-Trigger"))
}

func TestRenderPageContentOnly(t *testing.T) {
	f := newFixture(t)
	f.createLead(t, "Maria", model.LeadStatusNew)
	h := NewLeadHandler(
		service.NewLeadService(f.leads, events.Discard{}),
		nil,
		nil,
	)

	w := httptest.NewRecorder()
	h.LeadsPage(w, htmx(f.request(http.MethodGet, "/leads", nil), layouts.ContentID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "<!doctype html>")
	assert.Contains(t, w.Body.String(), "Maria")

	w = httptest.NewRecorder()
	h.LeadsPage(w, f.request(http.MethodGet, "/leads", nil))
	assert.Contains(t, w.Body.String(), "<!doctype html>")
}
