package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/leadflow/leadflow/internal/ctxkeys"
	"github.com/leadflow/leadflow/internal/service"
	"github.com/leadflow/leadflow/internal/ui"
	"github.com/leadflow/leadflow/internal/ui/pages"
)

var errPasswordMismatch = errors.New("as senhas não conferem")

type AccountHandler struct {
	authService *service.AuthService
	userService *service.UserService
}

func NewAccountHandler(authService *service.AuthService, userService *service.UserService) *AccountHandler {
	return &AccountHandler{
		authService: authService,
		userService: userService,
	}
}

func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	newPassword := r.FormValue("new_password")
	if newPassword != r.FormValue("confirm_password") {
		ui.Render(w, r, pages.PasswordSection(true, errPasswordMismatch.Error()))
		return
	}

	err := h.userService.UpdatePassword(r.Context(), user.ID, r.FormValue("current_password"), newPassword)
	if err != nil {
		slog.Warn("password update failed", "error", err, "user_id", user.ID)
		ui.Render(w, r, pages.PasswordSection(true, err.Error()))
		return
	}

	slog.Info("password updated", "user_id", user.ID)
	ui.Render(w, r, pages.PasswordSection(true, ""))
	toastSuccess(w, r, "Senha alterada")
}

// SetPassword adds a password to an account created by magic link or OAuth.
func (h *AccountHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	newPassword := r.FormValue("new_password")
	if newPassword != r.FormValue("confirm_password") {
		ui.Render(w, r, pages.PasswordSection(false, errPasswordMismatch.Error()))
		return
	}

	err := h.userService.SetPassword(r.Context(), user.ID, newPassword)
	if errors.Is(err, service.ErrPasswordAlreadySet) {
		ui.Render(w, r, pages.PasswordSection(true, err.Error()))
		return
	}
	if err != nil {
		slog.Warn("set password failed", "error", err, "user_id", user.ID)
		ui.Render(w, r, pages.PasswordSection(false, err.Error()))
		return
	}

	slog.Info("password set", "user_id", user.ID)
	ui.Render(w, r, pages.PasswordSection(true, ""))
	toastSuccess(w, r, "Senha definida. Agora você também pode entrar com e-mail e senha.")
}

func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.userService.DeleteAccount(r.Context(), user.ID)
	if err != nil {
		slog.Error("account deletion failed", "error", err, "user_id", user.ID)
		toastError(w, r, "Erro", "Não foi possível excluir a conta. Tente novamente.")
		return
	}

	slog.Info("account deleted", "user_id", user.ID, "email", user.Email)
	h.authService.ClearJWTCookie(w)
	redirect(w, r, "/login")
}
