package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/leadflow/internal/events"
	"github.com/leadflow/leadflow/internal/model"
	"github.com/leadflow/leadflow/internal/repository"
	"github.com/leadflow/leadflow/internal/service"
)

// failingStatusRepository refuses every status write.
type failingStatusRepository struct {
	repository.LeadRepository
}

func (failingStatusRepository) UpdateStatus(context.Context, string, int64, model.LeadStatus) error {
	return errors.New("database is locked")
}

// column returns the markup of one pipeline column.
func column(t *testing.T, body string, status model.LeadStatus) string {
	t.Helper()

	start := strings.Index(body, fmt.Sprintf(`data-status-column="%s"`, status))
	require.NotEqual(t, -1, start, "column %s missing", status)

	rest := body[start+1:]
	end := strings.Index(rest, `data-status-column=`)
	if end == -1 {
		return rest
	}
	return rest[:end]
}

func statusRequest(f *fixture, leadID int64, status model.LeadStatus) *http.Request {
	form := url.Values{"status": {string(status)}}
	r := htmx(f.request(http.MethodPatch, fmt.Sprintf("/pipeline/leads/%d/status", leadID), strings.NewReader(form.Encode())), "pipeline-board")
	r.SetPathValue("id", fmt.Sprint(leadID))
	return r
}

func TestUpdateStatusMovesCard(t *testing.T) {
	f := newFixture(t)
	lead := f.createLead(t, "Maria", model.LeadStatusNew)
	h := NewPipelineHandler(service.NewLeadService(f.leads, events.Discard{}))

	w := httptest.NewRecorder()
	h.UpdateStatus(w, statusRequest(f, lead.ID, model.LeadStatusWon))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	card := fmt.Sprintf(`data-lead-id="%d"`, lead.ID)
	assert.Contains(t, column(t, body, model.LeadStatusWon), card)
	assert.NotContains(t, column(t, body, model.LeadStatusNew), card)
	assert.Contains(t, body, "Maria movido para Fechado")

	stored, err := f.leads.ByID(context.Background(), f.user.ID, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LeadStatusWon, stored.Status)
}

func TestUpdateStatusFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	lead := f.createLead(t, "Maria", model.LeadStatusNew)
	h := NewPipelineHandler(service.NewLeadService(failingStatusRepository{f.leads}, events.Discard{}))

	w := httptest.NewRecorder()
	h.UpdateStatus(w, statusRequest(f, lead.ID, model.LeadStatusWon))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `id="pipeline-board"`)

	// The board comes from the store, so the card is back in its old column
	card := fmt.Sprintf(`data-lead-id="%d"`, lead.ID)
	assert.Contains(t, column(t, body, model.LeadStatusNew), card)
	assert.NotContains(t, column(t, body, model.LeadStatusWon), card)

	assert.Contains(t, body, "Erro ao atualizar status")
	assert.Contains(t, body, service.ErrUnavailable.Error())
	assert.NotContains(t, body, "database is locked")
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	lead := f.createLead(t, "Maria", model.LeadStatusContacted)
	h := NewPipelineHandler(service.NewLeadService(f.leads, events.Discard{}))

	w := httptest.NewRecorder()
	h.UpdateStatus(w, statusRequest(f, lead.ID, "archived"))

	body := w.Body.String()
	assert.Contains(t, column(t, body, model.LeadStatusContacted), fmt.Sprintf(`data-lead-id="%d"`, lead.ID))
	assert.Contains(t, body, "Erro ao atualizar status")
}

func TestPipelinePageOpensLead(t *testing.T) {
	f := newFixture(t)
	lead := f.createLead(t, "Maria", model.LeadStatusNew)
	h := NewPipelineHandler(service.NewLeadService(f.leads, events.Discard{}))

	panel := fmt.Sprintf(`/leads/%d/panel`, lead.ID)

	w := httptest.NewRecorder()
	h.PipelinePage(w, f.request(http.MethodGet, fmt.Sprintf("/pipeline?leadId=%d", lead.ID), nil))
	assert.Contains(t, w.Body.String(), `hx-trigger="load"`)
	assert.Contains(t, w.Body.String(), panel)

	// A change-feed re-fetch keeps the same URL but must not reopen the panel
	w = httptest.NewRecorder()
	h.PipelinePage(w, htmx(f.request(http.MethodGet, fmt.Sprintf("/pipeline?leadId=%d", lead.ID), nil), "content"))
	assert.NotContains(t, w.Body.String(), `hx-trigger="load"`)
}
