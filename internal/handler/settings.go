package handler

import (
	"log/slog"
	"net/http"

	"github.com/leadflow/leadflow/internal/ctxkeys"
	"github.com/leadflow/leadflow/internal/model"
	"github.com/leadflow/leadflow/internal/service"
	"github.com/leadflow/leadflow/internal/ui"
	"github.com/leadflow/leadflow/internal/ui/components/toast"
	"github.com/leadflow/leadflow/internal/ui/pages"
)

type SettingsHandler struct {
	userService      *service.UserService
	formTokenService *service.FormTokenService
}

func NewSettingsHandler(userService *service.UserService, formTokenService *service.FormTokenService) *SettingsHandler {
	return &SettingsHandler{
		userService:      userService,
		formTokenService: formTokenService,
	}
}

func (h *SettingsHandler) SettingsPage(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	profile := ctxkeys.Profile(r.Context())

	// The session user carries no password hash
	account, err := h.userService.ByID(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to load user", "error", err, "user_id", user.ID)
		http.Error(w, "Falha ao carregar as configurações", http.StatusInternalServerError)
		return
	}

	tokens, err := h.formTokenService.Tokens(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to load form tokens", "error", err, "user_id", user.ID)
	}

	view := pages.SettingsView{
		Name:        profile.Name,
		Email:       user.Email,
		HasPassword: account.HasPassword(),
		Tokens:      tokens,
	}

	// Coming back from a forgot-password link
	if r.URL.Query().Get("password_removed") == "1" {
		ui.RenderOOB(w, r, toast.Toast(toast.Props{
			Title:       "Senha removida",
			Description: "Por segurança, sua senha foi removida. Defina uma nova abaixo.",
			Variant:     toast.VariantInfo,
			Icon:        true,
			Dismissible: true,
			Duration:    8000,
		}), ui.ToastTarget)
	}

	renderPage(w, r, pages.Settings(view), pages.SettingsContent(view))
}

func (h *SettingsHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	created, err := h.formTokenService.Create(r.Context(), user.ID, r.FormValue("label"))
	if err != nil {
		logFailure(r, "failed to create form token", err, "user_id", user.ID)
		w.Header().Set("HX-Reswap", "none")
		toastError(w, r, "Erro ao criar token", userMessage(err))
		return
	}

	slog.Info("form token created", "user_id", user.ID, "label", created.Label)
	h.renderTokens(w, r, user.ID, created)
	toastSuccess(w, r, "Token criado")
}

func (h *SettingsHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.formTokenService.Revoke(r.Context(), user.ID, r.PathValue("token"))
	if err != nil {
		logFailure(r, "failed to revoke form token", err, "user_id", user.ID)
		w.Header().Set("HX-Reswap", "none")
		toastError(w, r, "Erro ao revogar token", userMessage(err))
		return
	}

	slog.Info("form token revoked", "user_id", user.ID)
	h.renderTokens(w, r, user.ID, nil)
	toastSuccess(w, r, "Token revogado")
}

func (h *SettingsHandler) renderTokens(w http.ResponseWriter, r *http.Request, userID string, created *model.FormToken) {
	tokens, err := h.formTokenService.Tokens(r.Context(), userID)
	if err != nil {
		slog.Error("failed to load form tokens", "error", err, "user_id", userID)
	}
	ui.Render(w, r, pages.TokensSection(tokens, created))
}
