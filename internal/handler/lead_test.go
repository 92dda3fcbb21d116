package handler

import (
	"context"
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
	"github.com/leadflow/leadflow/internal/ui/pages"
)

type leadHandlers struct {
	leads        *LeadHandler
	interactions *InteractionHandler
}

func newLeadHandlers(f *fixture) leadHandlers {
	interactions := service.NewInteractionService(f.leads, repository.NewInteractionRepository(f.db), events.Discard{})
	// No storage: attachments are disabled
	files := service.NewFileService(repository.NewFileRepository(f.db), nil)
	proposals := service.NewProposalService(f.leads, repository.NewProposalRepository(f.db), files, events.Discard{})

	return leadHandlers{
		leads:        NewLeadHandler(service.NewLeadService(f.leads, events.Discard{}), interactions, proposals),
		interactions: NewInteractionHandler(interactions),
	}
}

func form(values url.Values) *strings.Reader {
	return strings.NewReader(values.Encode())
}

func TestLeadsPageSearch(t *testing.T) {
	f := newFixture(t)
	f.createLead(t, "Maria", model.LeadStatusNew)
	f.createLead(t, "João", model.LeadStatusContacted)
	h := newLeadHandlers(f)

	w := httptest.NewRecorder()
	h.leads.LeadsPage(w, f.request(http.MethodGet, "/leads?search=mar", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Maria")
	assert.NotContains(t, w.Body.String(), "João")
}

func TestCreateLead(t *testing.T) {
	f := newFixture(t)
	h := newLeadHandlers(f)

	w := httptest.NewRecorder()
	r := htmx(f.request(http.MethodPost, "/leads", form(url.Values{
		"lead_name": {"Maria"},
		"email":     {"maria@example.com"},
		"value":     {"1.999,99"},
	})), "dialog")
	h.leads.Create(w, r)

	assert.Equal(t, changedTrigger, w.Header().Get("HX-Trigger"))
	assert.Contains(t, w.Body.String(), "Lead adicionado")

	leads, err := f.leads.Leads(context.Background(), f.user.ID, repository.LeadQuery{})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, 1999.99, leads[0].Value)
	assert.Equal(t, model.LeadStatusNew, leads[0].Status)
}

func TestCreateLeadInvalidKeepsForm(t *testing.T) {
	f := newFixture(t)
	h := newLeadHandlers(f)

	w := httptest.NewRecorder()
	r := htmx(f.request(http.MethodPost, "/leads", form(url.Values{
		"lead_name": {""},
		"email":     {"maria@example.com"},
	})), "dialog")
	h.leads.Create(w, r)

	assert.Empty(t, w.Header().Get("HX-Trigger"))
	assert.Contains(t, w.Body.String(), "nome é obrigatório")
	assert.Contains(t, w.Body.String(), "maria@example.com")
}

func TestPanelRefreshOfDeletedLeadKeepsScreen(t *testing.T) {
	f := newFixture(t)
	h := newLeadHandlers(f)

	w := httptest.NewRecorder()
	r := htmx(f.request(http.MethodGet, "/leads/42/panel", nil), pages.DetailID)
	r.SetPathValue("id", "42")
	h.leads.Panel(w, r)

	assert.Equal(t, "none", w.Header().Get("HX-Reswap"))
	assert.Empty(t, w.Body.String())
}

func TestPanelShowsInteractions(t *testing.T) {
	f := newFixture(t)
	lead := f.createLead(t, "Maria", model.LeadStatusContacted)
	h := newLeadHandlers(f)

	w := httptest.NewRecorder()
	r := htmx(f.request(http.MethodPost, "/leads/1/interactions", form(url.Values{"message": {"Ligou pedindo **desconto**"}})), "")
	r.SetPathValue("id", fmt.Sprint(lead.ID))
	h.interactions.Create(w, r)
	assert.Equal(t, "leadflow:changed", w.Header().Get("HX-Trigger"))

	w = httptest.NewRecorder()
	r = htmx(f.request(http.MethodGet, "/leads/1/panel", nil), pages.DetailID)
	r.SetPathValue("id", fmt.Sprint(lead.ID))
	h.leads.Panel(w, r)

	body := w.Body.String()
	assert.Contains(t, body, `id="lead-detail"`)
	assert.Contains(t, body, "<strong>desconto</strong>")
	assert.NotContains(t, body, "Nenhuma interação registrada ainda.")
	// No storage configured
	assert.NotContains(t, body, `name="attachment"`)
}

func TestCreateInteractionRequiresMessage(t *testing.T) {
	f := newFixture(t)
	lead := f.createLead(t, "Maria", model.LeadStatusContacted)
	h := newLeadHandlers(f)

	w := httptest.NewRecorder()
	r := htmx(f.request(http.MethodPost, "/leads/1/interactions", form(url.Values{"message": {"   "}})), "")
	r.SetPathValue("id", fmt.Sprint(lead.ID))
	h.interactions.Create(w, r)

	assert.Empty(t, w.Header().Get("HX-Trigger"))
	assert.Contains(t, w.Body.String(), service.ErrMessageRequired.Error())
}

func TestDeleteLead(t *testing.T) {
	tests := []struct {
		name       string
		currentURL string
		redirect   bool
	}{
		{"from its own page", "http://localhost/leads/%d", true},
		{"from the pipeline", "http://localhost/pipeline", false},
		{"from a lead page with a query", "http://localhost/leads/%d?tab=proposals", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			lead := f.createLead(t, "Maria", model.LeadStatusNew)
			h := newLeadHandlers(f)

			currentURL := tt.currentURL
			if strings.Contains(currentURL, "%d") {
				currentURL = fmt.Sprintf(currentURL, lead.ID)
			}

			w := httptest.NewRecorder()
			r := htmx(f.request(http.MethodDelete, fmt.Sprintf("/leads/%d", lead.ID), nil), "")
			r.Header.Set("HX-Current-URL", currentURL)
			r.SetPathValue("id", fmt.Sprint(lead.ID))
			h.leads.Delete(w, r)

			if tt.redirect {
				assert.Equal(t, "/leads", w.Header().Get("HX-Redirect"))
			} else {
				assert.Empty(t, w.Header().Get("HX-Redirect"))
				assert.Equal(t, changedTrigger, w.Header().Get("HX-Trigger"))
			}

			_, err := f.leads.ByID(context.Background(), f.user.ID, lead.ID)
			assert.ErrorIs(t, err, repository.ErrLeadNotFound)
		})
	}
}

func TestLeadsAreScopedToOwner(t *testing.T) {
	f := newFixture(t)
	other := f.createLead(t, "Alheio", model.LeadStatusNew)

	h := newLeadHandlers(f)
	intruder := *f
	intruder.user = &model.User{ID: "00000000-0000-0000-0000-000000000002", Email: "eve@example.com"}

	w := httptest.NewRecorder()
	r := intruder.request(http.MethodGet, fmt.Sprintf("/leads/%d", other.ID), nil)
	r.SetPathValue("id", fmt.Sprint(other.ID))
	h.leads.LeadPage(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "Alheio")
}
