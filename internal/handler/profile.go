package handler

import (
	"log/slog"
	"net/http"

	"github.com/leadflow/leadflow/internal/ctxkeys"
	"github.com/leadflow/leadflow/internal/service"
	"github.com/leadflow/leadflow/internal/ui"
	"github.com/leadflow/leadflow/internal/ui/layouts"
)

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

// UpdateName saves the display name and refreshes the sidebar's user menu.
func (h *ProfileHandler) UpdateName(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.profileService.UpdateName(r.Context(), user.ID, r.FormValue("name"))
	if err != nil {
		slog.Warn("failed to update name", "error", err, "user_id", user.ID)
		toastError(w, r, "Erro ao salvar", err.Error())
		return
	}

	profile, err := h.profileService.ByUserID(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to load profile", "error", err, "user_id", user.ID)
	}

	toastSuccess(w, r, "Nome atualizado")

	if profile != nil {
		ui.Render(w, r, layouts.UserMenuOOB(profile.Name, user.Email))
	}
}
