package handler

import (
	"net/http"

	"github.com/leadflow/leadflow/internal/ctxkeys"
	"github.com/leadflow/leadflow/internal/model"
	"github.com/leadflow/leadflow/internal/service"
	"github.com/leadflow/leadflow/internal/ui"
	"github.com/leadflow/leadflow/internal/ui/pages"
)

type InteractionHandler struct {
	interactionService *service.InteractionService
}

func NewInteractionHandler(interactionService *service.InteractionService) *InteractionHandler {
	return &InteractionHandler{
		interactionService: interactionService,
	}
}

func (h *InteractionHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	leadID, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}

	_, err := h.interactionService.Create(r.Context(), user.ID, leadID, r.FormValue("message"))
	if err != nil {
		logFailure(r, "failed to create interaction", err, "user_id", user.ID, "lead_id", leadID)
		toastError(w, r, "Erro ao adicionar interação", userMessage(err))
		return
	}

	refreshed(w, r, "Interação adicionada")
}

// Show renders one interaction; the edit form's cancel button swaps back to it.
func (h *InteractionHandler) Show(w http.ResponseWriter, r *http.Request) {
	interaction, ok := h.interaction(w, r)
	if !ok {
		return
	}
	ui.Render(w, r, pages.InteractionItem(interaction))
}

func (h *InteractionHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	interaction, ok := h.interaction(w, r)
	if !ok {
		return
	}
	ui.Render(w, r, pages.InteractionEditForm(interaction, ""))
}

func (h *InteractionHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	interactionID, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}

	message := r.FormValue("message")

	interaction, err := h.interactionService.Update(r.Context(), user.ID, interactionID, message)
	if err != nil {
		logFailure(r, "failed to update interaction", err, "user_id", user.ID, "interaction_id", interactionID)
		draft := &model.Interaction{ID: interactionID, Message: message}
		ui.Render(w, r, pages.InteractionEditForm(draft, userMessage(err)))
		return
	}

	ui.Render(w, r, pages.InteractionItem(interaction))
	toastSuccess(w, r, "Interação atualizada")
}

func (h *InteractionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	interactionID, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}

	_, err := h.interactionService.Delete(r.Context(), user.ID, interactionID)
	if err != nil {
		logFailure(r, "failed to delete interaction", err, "user_id", user.ID, "interaction_id", interactionID)
		toastError(w, r, "Erro ao excluir interação", userMessage(err))
		return
	}

	refreshed(w, r, "Interação excluída")
}

func (h *InteractionHandler) interaction(w http.ResponseWriter, r *http.Request) (*model.Interaction, bool) {
	user := ctxkeys.User(r.Context())

	interactionID, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return nil, false
	}

	interaction, err := h.interactionService.Interaction(r.Context(), user.ID, interactionID)
	if err != nil {
		logFailure(r, "failed to load interaction", err, "user_id", user.ID, "interaction_id", interactionID)
		w.Header().Set("HX-Reswap", "none")
		toastError(w, r, "Erro", userMessage(err))
		return nil, false
	}

	return interaction, true
}
