package handler

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"github.com/leadflow/leadflow/internal/config"
	"github.com/leadflow/leadflow/internal/ctxkeys"
	"github.com/leadflow/leadflow/internal/model"
	"github.com/leadflow/leadflow/internal/service"
	"github.com/leadflow/leadflow/internal/ui"
	"github.com/leadflow/leadflow/internal/ui/pages"
)

const (
	oauthStateCookie = "oauth_state"
	oauthFailed      = "Falha na autenticação. Tente novamente."
	genericFailure   = "Ocorreu um erro. Tente novamente."
)

type oauthIdentity struct {
	Email string
	Name  string
}

// oauthProvider is one social login: its OAuth config and how to read the
// user's verified email from the provider's API.
type oauthProvider struct {
	name     string
	config   *oauth2.Config
	identify func(client *http.Client) (oauthIdentity, error)
}

type authHandler struct {
	authService *service.AuthService
	isProd      bool
	google      *oauthProvider
	github      *oauthProvider
}

func NewAuthHandler(authService *service.AuthService, cfg *config.Config) *authHandler {
	h := &authHandler{
		authService: authService,
		isProd:      cfg.IsProduction(),
	}

	if cfg.GoogleClientID != "" {
		h.google = &oauthProvider{
			name: "google",
			config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				RedirectURL:  cfg.AppURL + "/auth/google/callback",
				Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
				Endpoint:     google.Endpoint,
			},
			identify: googleIdentity,
		}
	}

	if cfg.GitHubClientID != "" {
		h.github = &oauthProvider{
			name: "github",
			config: &oauth2.Config{
				ClientID:     cfg.GitHubClientID,
				ClientSecret: cfg.GitHubClientSecret,
				RedirectURL:  cfg.AppURL + "/auth/github/callback",
				Scopes:       []string{"user:email"},
				Endpoint:     github.Endpoint,
			},
			identify: githubIdentity,
		}
	}

	return h
}

func (h *authHandler) renderLogin(w http.ResponseWriter, r *http.Request, v pages.LoginView) {
	v.Google = h.google != nil
	v.GitHub = h.github != nil
	ui.Render(w, r, pages.Login(v))
}

func (h *authHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, pages.LoginView{})
}

func (h *authHandler) PasswordLogin(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if email == "" || password == "" {
		h.renderLogin(w, r, pages.LoginView{Email: email, Error: "Informe e-mail e senha."})
		return
	}

	user, err := h.authService.Login(r.Context(), email, password)
	if err != nil {
		slog.Warn("password login failed", "error", err, "email", email)

		view := pages.LoginView{Email: email, Error: service.ErrInvalidCredentials.Error()}
		switch {
		case errors.Is(err, service.ErrEmailNotVerified):
			view.Error = err.Error()
			view.Unverified = true
		case errors.Is(err, service.ErrPasswordless):
			view.Error = err.Error()
		case !errors.Is(err, service.ErrInvalidCredentials):
			view.Error = genericFailure
		}
		h.renderLogin(w, r, view)
		return
	}

	h.startSession(w, r, user, "password")
}

func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.ClearJWTCookie(w)
	redirect(w, r, "/login")
}

func (h *authHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, pages.Signup(pages.SignupView{}))
}

func (h *authHandler) Signup(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))

	user, err := h.authService.Signup(r.Context(), name, email, r.FormValue("password"))
	if err != nil {
		slog.Warn("signup failed", "error", err, "email", email)
		// Validation errors are user-facing; internal ones are wrapped as "failed to ..."
		msg := err.Error()
		if errors.Is(err, service.ErrUnavailable) || strings.HasPrefix(msg, "failed") {
			msg = genericFailure
		}
		ui.Render(w, r, pages.Signup(pages.SignupView{Name: name, Email: email, Error: msg}))
		return
	}

	ui.Render(w, r, pages.CheckEmail(user.Email, "Enviamos um link de confirmação. Abra-o para ativar sua conta."))
}

func (h *authHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.VerifyEmail(r.Context(), r.PathValue("token"))
	if err != nil {
		slog.Warn("email verification failed", "error", err)
		h.renderLogin(w, r, pages.LoginView{Error: service.ErrInvalidLink.Error()})
		return
	}

	h.startSession(w, r, user, "email_verification")
}

func (h *authHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))

	err := h.authService.ResendVerification(r.Context(), email)
	if err != nil {
		slog.Warn("resend verification failed", "error", err, "email", email)
	}

	ui.Render(w, r, pages.CheckEmail(email, "Se a conta existir e ainda não estiver confirmada, enviamos um novo link."))
}

// SendMagicLink logs in, or signs up, by email alone.
func (h *authHandler) SendMagicLink(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))

	err := h.authService.SendMagicLink(r.Context(), email)
	if errors.Is(err, service.ErrInvalidEmail) {
		h.renderLogin(w, r, pages.LoginView{Email: email, Error: err.Error()})
		return
	}
	if err != nil {
		// Same answer either way, so addresses cannot be probed
		slog.Warn("magic link send failed", "error", err, "email", email)
	}

	ui.Render(w, r, pages.CheckEmail(email, "Enviamos um link de acesso. Ele expira em poucos minutos."))
}

func (h *authHandler) VerifyMagicLink(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.VerifyMagicLink(r.Context(), r.PathValue("token"))
	if err != nil {
		slog.Warn("magic link verification failed", "error", err)
		h.renderLogin(w, r, pages.LoginView{Error: service.ErrInvalidLink.Error()})
		return
	}

	h.startSession(w, r, user, "magic_link")
}

func (h *authHandler) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, pages.ForgotPassword("", ""))
}

func (h *authHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))

	err := h.authService.SendForgotPasswordLink(r.Context(), email)
	if errors.Is(err, service.ErrInvalidEmail) {
		ui.Render(w, r, pages.ForgotPassword(email, err.Error()))
		return
	}
	if err != nil {
		slog.Warn("forgot password link send failed", "error", err, "email", email)
	}

	ui.Render(w, r, pages.CheckEmail(email, "Se houver uma conta com senha para este e-mail, enviamos um link de acesso."))
}

// VerifyForgotPassword logs the user in with the emailed link and removes the
// old password; settings then asks for a new one.
func (h *authHandler) VerifyForgotPassword(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.ResetPassword(r.Context(), r.PathValue("token"))
	if err != nil {
		slog.Warn("forgot password verification failed", "error", err)
		h.renderLogin(w, r, pages.LoginView{Error: service.ErrInvalidLink.Error()})
		return
	}

	err = h.authService.StartSession(w, user)
	if err != nil {
		slog.Error("failed to start session", "error", err, "user_id", user.ID)
		h.renderLogin(w, r, pages.LoginView{Error: genericFailure})
		return
	}

	slog.Info("user logged in via forgot password flow", "user_id", user.ID)
	http.Redirect(w, r, "/settings?password_removed=1", http.StatusSeeOther)
}

func (h *authHandler) OnboardingPage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, pages.Onboarding("", ""))
}

func (h *authHandler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	name := strings.TrimSpace(r.FormValue("name"))

	err := h.authService.CompleteOnboarding(r.Context(), user.ID, name)
	if err != nil {
		slog.Warn("onboarding failed", "error", err, "user_id", user.ID)
		ui.Render(w, r, pages.Onboarding(name, err.Error()))
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *authHandler) GoogleAuth(w http.ResponseWriter, r *http.Request) {
	h.oauthRedirect(w, r, h.google)
}

func (h *authHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	h.oauthCallback(w, r, h.google)
}

func (h *authHandler) GitHubAuth(w http.ResponseWriter, r *http.Request) {
	h.oauthRedirect(w, r, h.github)
}

func (h *authHandler) GitHubCallback(w http.ResponseWriter, r *http.Request) {
	h.oauthCallback(w, r, h.github)
}

// oauthRedirect sends the user to the provider's consent screen with a state
// cookie for CSRF protection.
func (h *authHandler) oauthRedirect(w http.ResponseWriter, r *http.Request, p *oauthProvider) {
	if p == nil {
		http.NotFound(w, r)
		return
	}

	state := generateOAuthState()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.isProd, // r.TLS is unreliable behind a proxy
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})

	http.Redirect(w, r, p.config.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

func (h *authHandler) oauthCallback(w http.ResponseWriter, r *http.Request, p *oauthProvider) {
	if p == nil {
		http.NotFound(w, r)
		return
	}

	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || cookie.Value != state {
		slog.Warn("oauth state validation failed", "provider", p.name, "error", err)
		h.renderLogin(w, r, pages.LoginView{Error: oauthFailed})
		return
	}

	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("oauth callback missing code", "provider", p.name)
		h.renderLogin(w, r, pages.LoginView{Error: oauthFailed})
		return
	}

	token, err := p.config.Exchange(r.Context(), code)
	if err != nil {
		slog.Error("oauth token exchange failed", "provider", p.name, "error", err)
		h.renderLogin(w, r, pages.LoginView{Error: oauthFailed})
		return
	}

	identity, err := p.identify(p.config.Client(r.Context(), token))
	if err != nil {
		slog.Error("failed to read oauth identity", "provider", p.name, "error", err)
		h.renderLogin(w, r, pages.LoginView{Error: oauthFailed})
		return
	}
	if identity.Email == "" {
		slog.Warn("oauth identity without email", "provider", p.name)
		h.renderLogin(w, r, pages.LoginView{Error: "Não foi possível obter seu e-mail. Verifique as permissões da conta."})
		return
	}

	user, err := h.authService.AuthenticateOAuth(r.Context(), identity.Email, identity.Name, p.name)
	if err != nil {
		slog.Error("oauth authentication failed", "provider", p.name, "error", err, "email", identity.Email)
		h.renderLogin(w, r, pages.LoginView{Error: oauthFailed})
		return
	}

	h.startSession(w, r, user, p.name)
}

// startSession sets the session cookie and sends the user on, through
// onboarding when the account still has no name.
func (h *authHandler) startSession(w http.ResponseWriter, r *http.Request, user *model.User, method string) {
	err := h.authService.StartSession(w, user)
	if err != nil {
		slog.Error("failed to start session", "error", err, "user_id", user.ID)
		h.renderLogin(w, r, pages.LoginView{Error: genericFailure})
		return
	}

	slog.Info("user logged in", "user_id", user.ID, "method", method)

	needsOnboarding, err := h.authService.NeedsOnboarding(r.Context(), user.ID)
	if err != nil {
		slog.Warn("failed to check onboarding status", "error", err, "user_id", user.ID)
	}
	if needsOnboarding {
		http.Redirect(w, r, "/auth/onboarding", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func googleIdentity(client *http.Client) (oauthIdentity, error) {
	var info struct {
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
	}
	err := getJSON(client, "https://www.googleapis.com/oauth2/v2/userinfo", &info)
	if err != nil {
		return oauthIdentity{}, err
	}
	if !info.VerifiedEmail {
		return oauthIdentity{Name: info.Name}, nil
	}
	return oauthIdentity{Email: info.Email, Name: info.Name}, nil
}

// githubIdentity falls back to /user/emails when the profile email is private.
func githubIdentity(client *http.Client) (oauthIdentity, error) {
	var info struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Login string `json:"login"`
	}
	err := getJSON(client, "https://api.github.com/user", &info)
	if err != nil {
		return oauthIdentity{}, err
	}

	identity := oauthIdentity{Email: info.Email, Name: info.Name}
	if identity.Name == "" {
		identity.Name = info.Login
	}
	if identity.Email != "" {
		return identity, nil
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	err = getJSON(client, "https://api.github.com/user/emails", &emails)
	if err != nil {
		return oauthIdentity{}, err
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			identity.Email = e.Email
			break
		}
	}
	return identity, nil
}

func getJSON(client *http.Client, url string, v any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			slog.Error("failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

// generateOAuthState creates a random state token for OAuth CSRF protection
func generateOAuthState() string {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		panic("failed to generate oauth state: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
