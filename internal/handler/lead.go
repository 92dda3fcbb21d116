package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/leadflow/leadflow/internal/ctxkeys"
	"github.com/leadflow/leadflow/internal/model"
	"github.com/leadflow/leadflow/internal/repository"
	"github.com/leadflow/leadflow/internal/service"
	"github.com/leadflow/leadflow/internal/ui"
	"github.com/leadflow/leadflow/internal/ui/layouts"
	"github.com/leadflow/leadflow/internal/ui/pages"
)

type LeadHandler struct {
	leadService        *service.LeadService
	interactionService *service.InteractionService
	proposalService    *service.ProposalService
}

func NewLeadHandler(
	leadService *service.LeadService,
	interactionService *service.InteractionService,
	proposalService *service.ProposalService,
) *LeadHandler {
	return &LeadHandler{
		leadService:        leadService,
		interactionService: interactionService,
		proposalService:    proposalService,
	}
}

var leadSortKeys = map[string]bool{
	repository.LeadSortName:      true,
	repository.LeadSortCompany:   true,
	repository.LeadSortValue:     true,
	repository.LeadSortStatus:    true,
	repository.LeadSortFollowUp:  true,
	repository.LeadSortCreatedAt: true,
}

func (h *LeadHandler) LeadsPage(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	q := r.URL.Query()

	view := pages.LeadsView{
		Search:      strings.TrimSpace(q.Get("search")),
		OverdueOnly: q.Get("filter") == pages.FilterOverdue,
		Desc:        q.Get("desc") == "1",
	}
	if leadSortKeys[q.Get("sort")] {
		view.SortBy = q.Get("sort")
	}

	filter := service.LeadFilter{
		LeadQuery: repository.LeadQuery{
			Search: view.Search,
			SortBy: view.SortBy,
			Desc:   view.Desc,
		},
		OverdueOnly: view.OverdueOnly,
	}

	leads, err := h.leadService.Leads(r.Context(), user.ID, filter, ctxkeys.Now(r.Context()))
	if err != nil {
		slog.Error("failed to list leads", "error", err, "user_id", user.ID)
		http.Error(w, "Falha ao carregar os leads", http.StatusInternalServerError)
		return
	}
	view.Leads = leads

	renderPage(w, r, pages.Leads(view), pages.LeadsContent(view))
}

func (h *LeadHandler) LeadPage(w http.ResponseWriter, r *http.Request) {
	view, ok := h.detail(w, r)
	if !ok {
		return
	}

	renderPage(w, r, pages.LeadDetail(view), pages.LeadDetailContent(view))
}

// Panel serves the lead detail as a dialog, or only its body when the
// detail is refreshing itself.
func (h *LeadHandler) Panel(w http.ResponseWriter, r *http.Request) {
	view, ok := h.detail(w, r)
	if !ok {
		return
	}

	if r.Header.Get("HX-Target") == pages.DetailID {
		ui.Render(w, r, pages.LeadDetailBody(view))
		return
	}
	ui.Render(w, r, pages.LeadPanel(view))
}

func (h *LeadHandler) detail(w http.ResponseWriter, r *http.Request) (pages.LeadDetailView, bool) {
	user := ctxkeys.User(r.Context())

	leadID, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return pages.LeadDetailView{}, false
	}

	lead, err := h.leadService.Lead(r.Context(), user.ID, leadID)
	if err != nil {
		logFailure(r, "failed to load lead", err, "user_id", user.ID, "lead_id", leadID)
		if target := r.Header.Get("HX-Target"); target == pages.DetailID || target == layouts.ContentID {
			// A re-fetch racing the delete redirect; keep what is on screen
			w.Header().Set("HX-Reswap", "none")
			return pages.LeadDetailView{}, false
		}
		notFound(w, r)
		return pages.LeadDetailView{}, false
	}

	interactions, err := h.interactionService.Interactions(r.Context(), user.ID, leadID)
	if err != nil {
		slog.Error("failed to load interactions", "error", err, "user_id", user.ID, "lead_id", leadID)
	}

	proposals, err := h.proposalService.Proposals(r.Context(), user.ID, leadID)
	if err != nil {
		slog.Error("failed to load proposals", "error", err, "user_id", user.ID, "lead_id", leadID)
	}

	return pages.LeadDetailView{
		Lead:               lead,
		Interactions:       interactions,
		Proposals:          proposals,
		AttachmentsEnabled: h.proposalService.AttachmentsEnabled(),
	}, true
}

func (h *LeadHandler) NewDialog(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, pages.LeadForm(pages.LeadFormView{}))
}

func (h *LeadHandler) EditDialog(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	leadID, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}

	lead, err := h.leadService.Lead(r.Context(), user.ID, leadID)
	if err != nil {
		logFailure(r, "failed to load lead", err, "user_id", user.ID, "lead_id", leadID)
		toastError(w, r, "Erro", userMessage(err))
		return
	}

	ui.Render(w, r, pages.LeadForm(pages.LeadFormView{
		LeadID:   lead.ID,
		LeadName: lead.Name,
		Input:    inputFromLead(lead),
	}))
}

func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	input := leadInputFromForm(r)

	lead, err := h.leadService.Create(r.Context(), user.ID, input)
	if err != nil {
		logFailure(r, "failed to create lead", err, "user_id", user.ID)
		ui.Render(w, r, pages.LeadForm(pages.LeadFormView{Input: input, Error: userMessage(err)}))
		return
	}

	slog.Info("lead created", "user_id", user.ID, "lead_id", lead.ID)
	changed(w, r, "Lead adicionado")
}

func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	leadID, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}

	input := leadInputFromForm(r)

	_, err := h.leadService.Update(r.Context(), user.ID, leadID, input)
	if err != nil {
		logFailure(r, "failed to update lead", err, "user_id", user.ID, "lead_id", leadID)
		ui.Render(w, r, pages.LeadForm(pages.LeadFormView{
			LeadID:   leadID,
			LeadName: input.Name,
			Input:    input,
			Error:    userMessage(err),
		}))
		return
	}

	changed(w, r, "Lead atualizado")
}

// Delete removes the lead. From the lead's own page the browser goes back to
// the list; anywhere else the dialog closes and the view re-fetches.
func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	leadID, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}

	err := h.leadService.Delete(r.Context(), user.ID, leadID)
	if err != nil {
		logFailure(r, "failed to delete lead", err, "user_id", user.ID, "lead_id", leadID)
		toastError(w, r, "Erro ao excluir lead", userMessage(err))
		return
	}

	slog.Info("lead deleted", "user_id", user.ID, "lead_id", leadID)

	if onLeadPage(r, leadID) {
		redirect(w, r, "/leads")
		return
	}
	changed(w, r, "Lead excluído")
}

func onLeadPage(r *http.Request, leadID int64) bool {
	current, err := url.Parse(r.Header.Get("HX-Current-URL"))
	if err != nil {
		return false
	}
	return current.Path == "/leads/"+strconv.FormatInt(leadID, 10)
}

func leadInputFromForm(r *http.Request) service.LeadInput {
	return service.LeadInput{
		Name:         r.FormValue("lead_name"),
		Email:        r.FormValue("email"),
		Phone:        r.FormValue("telefone"),
		Company:      r.FormValue("company"),
		Instagram:    r.FormValue("instagram"),
		Origin:       r.FormValue("origin"),
		Value:        r.FormValue("value"),
		Status:       r.FormValue("status"),
		FollowUpDate: r.FormValue("follow_up_date"),
	}
}

func inputFromLead(lead *model.Lead) service.LeadInput {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}

	return service.LeadInput{
		Name:         lead.Name,
		Email:        lead.Email,
		Phone:        deref(lead.Phone),
		Company:      deref(lead.Company),
		Instagram:    deref(lead.Instagram),
		Origin:       deref(lead.Origin),
		Value:        ui.MoneyInput(lead.Value),
		Status:       string(lead.Status),
		FollowUpDate: ui.DateInput(lead.FollowUpDate),
	}
}
