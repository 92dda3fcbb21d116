package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/cors"

	"github.com/leadflow/leadflow/internal/middleware"
	"github.com/leadflow/leadflow/internal/service"
)

const maxIntakeBody = 64 << 10

var errIntakeRateLimited = errors.New("Muitas requisições. Tente novamente mais tarde.")

// Headers sent on every intake response, preflight or not.
var intakeCORSHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "authorization, x-client-info, apikey, content-type",
}

// IntakeHandler serves the public endpoint external forms post leads to.
// It is authenticated by bearer form token, not by session.
type IntakeHandler struct {
	intakeService *service.IntakeService
	limiter       *middleware.RateLimiter
	cors          *cors.Cors
}

func NewIntakeHandler(intakeService *service.IntakeService, limiter *middleware.RateLimiter) *IntakeHandler {
	return &IntakeHandler{
		intakeService: intakeService,
		limiter:       limiter,
		cors: cors.New(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"},
			// Preflights still reach Preflight so they get the fixed header set
			OptionsPassthrough: true,
			MaxAge:             86400,
		}),
	}
}

// Handler serves every method on the intake route. OPTIONS is the preflight;
// anything else goes through Submit, so a wrong method still gets a JSON 400
// with CORS headers.
func (h *IntakeHandler) Handler() http.Handler {
	return h.cors.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range intakeCORSHeaders {
			w.Header().Set(k, v)
		}

		if r.Method == http.MethodOptions {
			h.Preflight(w, r)
			return
		}
		h.Submit(w, r)
	}))
}

// Preflight answers 200 with no body.
func (h *IntakeHandler) Preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Submit creates a lead from the form body. Every failure is a 400 with a
// message the form can show as-is.
func (h *IntakeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ip := middleware.ClientIP(r)
	if h.limiter != nil && !h.limiter.Allow(ip) {
		slog.Warn("intake rate limit exceeded", "ip", ip)
		middleware.RecordIntake("rate_limited")
		intakeError(w, errIntakeRateLimited)
		return
	}

	token, err := service.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		middleware.RecordIntake("rejected")
		intakeError(w, err)
		return
	}

	var in service.IntakeLead
	err = json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIntakeBody)).Decode(&in)
	if err != nil {
		slog.Warn("invalid intake body", "error", err, "ip", ip)
		middleware.RecordIntake("rejected")
		intakeError(w, service.ErrIntakeInvalidBody)
		return
	}

	if r.Method != http.MethodPost {
		slog.Warn("intake called with wrong method", "method", r.Method, "ip", ip)
		middleware.RecordIntake("rejected")
		intakeError(w, service.ErrIntakeInvalidBody)
		return
	}

	lead, err := h.intakeService.Submit(r.Context(), token, in)
	if err != nil {
		slog.Warn("intake submission rejected", "error", err, "ip", ip)
		middleware.RecordIntake("rejected")
		intakeError(w, err)
		return
	}

	slog.Info("lead received from public form", "user_id", lead.UserID, "lead_id", lead.ID)
	middleware.RecordIntake("created")
	writeJSON(w, http.StatusOK, map[string]string{"message": service.IntakeSuccessMessage})
}

// intakeError reports the public message for err. Wrapped store failures keep
// only the sentinel's text.
func intakeError(w http.ResponseWriter, err error) {
	msg := err.Error()
	for _, public := range []error{
		service.ErrIntakeAuthHeader,
		service.ErrIntakeRequiredFields,
		service.ErrIntakeInvalidToken,
		service.ErrIntakeInvalidBody,
		service.ErrIntakeInsertFailed,
	} {
		if errors.Is(err, public) {
			msg = public.Error()
			break
		}
	}
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to write json response", "error", err)
	}
}
