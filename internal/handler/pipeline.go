package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/leadflow/leadflow/internal/ctxkeys"
	"github.com/leadflow/leadflow/internal/lifecycle"
	"github.com/leadflow/leadflow/internal/middleware"
	"github.com/leadflow/leadflow/internal/model"
	"github.com/leadflow/leadflow/internal/service"
	"github.com/leadflow/leadflow/internal/ui"
	"github.com/leadflow/leadflow/internal/ui/pages"
)

type PipelineHandler struct {
	leadService *service.LeadService
}

func NewPipelineHandler(leadService *service.LeadService) *PipelineHandler {
	return &PipelineHandler{
		leadService: leadService,
	}
}

// PipelinePage shows the kanban board; ?leadId= opens that lead's panel.
func (h *PipelineHandler) PipelinePage(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	columns, err := h.leadService.Board(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to load pipeline", "error", err, "user_id", user.ID)
		http.Error(w, "Falha ao carregar o pipeline", http.StatusInternalServerError)
		return
	}

	openLeadID, _ := strconv.ParseInt(r.URL.Query().Get("leadId"), 10, 64)
	if ui.IsHTMX(r) {
		// Re-fetches after a change must not reopen the panel
		openLeadID = 0
	}

	renderPage(w, r, pages.Pipeline(columns, openLeadID), pages.PipelineContent(columns, openLeadID))
}

// UpdateStatus answers a card drop. The card has already moved in the browser;
// the response is the store's board either way, so a failed write puts the
// card back in its old column.
func (h *PipelineHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	leadID, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}

	status := model.LeadStatus(r.FormValue("status"))
	updateErr := h.leadService.UpdateStatus(r.Context(), user.ID, leadID, status)
	middleware.RecordStatusChange(string(status), updateErr == nil)

	columns, err := h.leadService.Board(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to reload pipeline", "error", err, "user_id", user.ID)
		w.Header().Set("HX-Reswap", "none")
		toastError(w, r, "Erro ao atualizar status", userMessage(err))
		return
	}

	if updateErr != nil {
		logFailure(r, "failed to update lead status", updateErr, "user_id", user.ID, "lead_id", leadID, "status", status)
		ui.Render(w, r, pages.PipelineBoard(columns))
		toastError(w, r, "Erro ao atualizar status", userMessage(updateErr))
		return
	}

	slog.Info("lead status changed", "user_id", user.ID, "lead_id", leadID, "status", status)
	ui.Render(w, r, pages.PipelineBoard(columns))
	toastSuccess(w, r, leadName(columns, leadID)+" movido para "+status.Label())
}

func leadName(columns []lifecycle.Column, leadID int64) string {
	for _, column := range columns {
		for _, lead := range column.Leads {
			if lead.ID == leadID {
				return lead.Name
			}
		}
	}
	return "Lead"
}
