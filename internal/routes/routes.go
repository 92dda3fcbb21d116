package routes

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leadflow/leadflow/internal/app"
	"github.com/leadflow/leadflow/internal/handler"
	"github.com/leadflow/leadflow/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	home := handler.NewHomeHandler()
	health := handler.NewHealthHandler(app.DB)
	auth := handler.NewAuthHandler(app.AuthService, app.Cfg)
	account := handler.NewAccountHandler(app.AuthService, app.UserService)
	profile := handler.NewProfileHandler(app.ProfileService)
	settings := handler.NewSettingsHandler(app.UserService, app.FormTokenService)
	dashboard := handler.NewDashboardHandler(app.TaskService)
	pipeline := handler.NewPipelineHandler(app.LeadService)
	lead := handler.NewLeadHandler(app.LeadService, app.InteractionService, app.ProposalService)
	interaction := handler.NewInteractionHandler(app.InteractionService)
	proposal := handler.NewProposalHandler(app.LeadService, app.ProposalService)
	events := handler.NewEventsHandler(app.Hub)
	intake := handler.NewIntakeHandler(app.IntakeService, app.IntakeLimiter)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	// Operations
	mux.HandleFunc("GET /healthz", health.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Home
	mux.HandleFunc("GET /{$}", home.HomePage)

	// Public intake (bearer token, CORS)
	mux.Handle("/api/public/leads", intake.Handler())

	rateLimit := middleware.RateLimit(app.AuthLimiter)

	// Auth Pages
	mux.HandleFunc("GET /login", middleware.RequireGuest(auth.LoginPage))
	mux.HandleFunc("GET /signup", middleware.RequireGuest(auth.SignupPage))
	mux.HandleFunc("GET /forgot-password", middleware.RequireGuest(auth.ForgotPasswordPage))
	mux.HandleFunc("GET /auth/onboarding", middleware.RequireAuth(auth.OnboardingPage))

	// OAuth
	mux.HandleFunc("GET /auth/google", rateLimit(middleware.RequireGuest(auth.GoogleAuth)))
	mux.HandleFunc("GET /auth/google/callback", rateLimit(auth.GoogleCallback))
	mux.HandleFunc("GET /auth/github", rateLimit(middleware.RequireGuest(auth.GitHubAuth)))
	mux.HandleFunc("GET /auth/github/callback", rateLimit(auth.GitHubCallback))

	// Token Verifications
	mux.HandleFunc("GET /auth/verify-email/{token}", auth.VerifyEmail)
	mux.HandleFunc("GET /auth/magic-link/{token}", auth.VerifyMagicLink)
	mux.HandleFunc("GET /auth/forgot-password/{token}", auth.VerifyForgotPassword)

	// Auth Actions
	mux.HandleFunc("POST /login", rateLimit(middleware.RequireGuest(auth.PasswordLogin)))
	mux.HandleFunc("POST /signup", rateLimit(middleware.RequireGuest(auth.Signup)))
	mux.HandleFunc("POST /forgot-password", rateLimit(middleware.RequireGuest(auth.ForgotPassword)))
	mux.HandleFunc("POST /auth/magic-link", rateLimit(middleware.RequireGuest(auth.SendMagicLink)))
	mux.HandleFunc("POST /auth/resend-verification", rateLimit(middleware.RequireGuest(auth.ResendVerification)))
	mux.HandleFunc("POST /auth/onboarding", middleware.RequireAuth(auth.CompleteOnboarding))
	mux.HandleFunc("POST /auth/logout", auth.Logout)

	// ============================================================================
	// PROTECTED ROUTES
	// ============================================================================

	// Change feed
	mux.HandleFunc("GET /events", middleware.RequireAuth(events.Stream))

	// Dashboard & tasks
	mux.HandleFunc("GET /dashboard", middleware.RequireAuth(dashboard.DashboardPage))
	mux.HandleFunc("GET /tasks/new", middleware.RequireAuth(dashboard.NewTaskDialog))
	mux.HandleFunc("GET /tasks/{id}/edit", middleware.RequireAuth(dashboard.EditTaskDialog))
	mux.HandleFunc("POST /tasks", middleware.RequireAuth(dashboard.CreateTask))
	mux.HandleFunc("POST /tasks/{id}/complete", middleware.RequireAuth(dashboard.CompleteTask))
	mux.HandleFunc("PUT /tasks/{id}", middleware.RequireAuth(dashboard.UpdateTask))
	mux.HandleFunc("DELETE /tasks/{id}", middleware.RequireAuth(dashboard.DeleteTask))

	// Pipeline
	mux.HandleFunc("GET /pipeline", middleware.RequireAuth(pipeline.PipelinePage))
	mux.HandleFunc("PATCH /pipeline/leads/{id}/status", middleware.RequireAuth(pipeline.UpdateStatus))

	// Leads
	mux.HandleFunc("GET /leads", middleware.RequireAuth(lead.LeadsPage))
	mux.HandleFunc("GET /leads/new", middleware.RequireAuth(lead.NewDialog))
	mux.HandleFunc("GET /leads/{id}", middleware.RequireAuth(lead.LeadPage))
	mux.HandleFunc("GET /leads/{id}/panel", middleware.RequireAuth(lead.Panel))
	mux.HandleFunc("GET /leads/{id}/edit", middleware.RequireAuth(lead.EditDialog))
	mux.HandleFunc("POST /leads", middleware.RequireAuth(lead.Create))
	mux.HandleFunc("PUT /leads/{id}", middleware.RequireAuth(lead.Update))
	mux.HandleFunc("DELETE /leads/{id}", middleware.RequireAuth(lead.Delete))

	// Interactions
	mux.HandleFunc("POST /leads/{id}/interactions", middleware.RequireAuth(interaction.Create))
	mux.HandleFunc("GET /interactions/{id}", middleware.RequireAuth(interaction.Show))
	mux.HandleFunc("GET /interactions/{id}/edit", middleware.RequireAuth(interaction.EditForm))
	mux.HandleFunc("PUT /interactions/{id}", middleware.RequireAuth(interaction.Update))
	mux.HandleFunc("DELETE /interactions/{id}", middleware.RequireAuth(interaction.Delete))

	// Proposals
	mux.HandleFunc("POST /leads/{id}/proposals", middleware.RequireAuth(proposal.Create))
	mux.HandleFunc("GET /proposals/{id}", middleware.RequireAuth(proposal.Show))
	mux.HandleFunc("GET /proposals/{id}/edit", middleware.RequireAuth(proposal.EditForm))
	mux.HandleFunc("GET /proposals/{id}/attachment", middleware.RequireAuth(proposal.Attachment))
	mux.HandleFunc("PUT /proposals/{id}", middleware.RequireAuth(proposal.Update))
	mux.HandleFunc("DELETE /proposals/{id}", middleware.RequireAuth(proposal.Delete))

	// Settings
	mux.HandleFunc("GET /settings", middleware.RequireAuth(settings.SettingsPage))
	mux.HandleFunc("PUT /settings/profile", middleware.RequireAuth(profile.UpdateName))
	mux.HandleFunc("PUT /settings/password", middleware.RequireAuth(account.ChangePassword))
	mux.HandleFunc("POST /settings/password", middleware.RequireAuth(account.SetPassword))
	mux.HandleFunc("DELETE /settings/account", middleware.RequireAuth(account.DeleteAccount))
	mux.HandleFunc("POST /settings/tokens", middleware.RequireAuth(settings.CreateToken))
	mux.HandleFunc("DELETE /settings/tokens/{token}", middleware.RequireAuth(settings.RevokeToken))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	// 404
	mux.HandleFunc("/{path...}", home.NotFoundPage)

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		// Config must be first (CSRF cookie and views read it)
		middleware.Config(app.Cfg),
		// Generate CSP nonce (must be before SecurityHeaders)
		middleware.NonceMiddleware,
		middleware.SecurityHeaders(app.Cfg.IsProduction()),
		// Application clock in APP_TIMEZONE
		middleware.Clock(app.Cfg.Timezone),
		middleware.CSRFProtection,
		middleware.AuthMiddleware(app.AuthService, app.UserService, app.ProfileService),
		// After auth so lines carry user_id
		middleware.RequestLogging,
		middleware.WithURLPath,
		// Last: the mux sets r.Pattern on the request it receives
		middleware.Metrics,
	)
}
