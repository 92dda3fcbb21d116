package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/leadflow/internal/events"
	"github.com/leadflow/leadflow/internal/middleware"
	"github.com/leadflow/leadflow/internal/model"
	"github.com/leadflow/leadflow/internal/repository"
	"github.com/leadflow/leadflow/internal/service"
)

const testFormToken = "form-token-123"

func newIntakeHandler(t *testing.T, f *fixture, limiter *middleware.RateLimiter) http.Handler {
	t.Helper()

	tokens := repository.NewFormTokenRepository(f.db)
	err := tokens.Create(context.Background(), &model.FormToken{
		Token:  testFormToken,
		UserID: f.user.ID,
		Label:  "Site",
	})
	require.NoError(t, err)

	return NewIntakeHandler(service.NewIntakeService(tokens, f.leads, events.Discard{}), limiter).Handler()
}

func postIntake(h http.Handler, auth, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/api/public/leads", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Origin", "https://site.example.com")
	if auth != "" {
		r.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()

	var out map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &out)
	require.NoError(t, err, w.Body.String())
	return out
}

func assertCORS(t *testing.T, w *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "authorization, x-client-info, apikey, content-type", w.Header().Get("Access-Control-Allow-Headers"))
}

func TestIntakeCreatesLead(t *testing.T) {
	f := newFixture(t)
	h := newIntakeHandler(t, f, nil)

	w := postIntake(h, "Bearer "+testFormToken, `{"lead_name":"Maria","email":"maria@example.com","company":"ACME","value":2500.5}`)

	require.Equal(t, http.StatusOK, w.Code)
	assertCORS(t, w)
	assert.Equal(t, map[string]string{"message": "Lead adicionado com sucesso!"}, decode(t, w))

	leads, err := f.leads.Leads(context.Background(), f.user.ID, repository.LeadQuery{})
	require.NoError(t, err)
	require.Len(t, leads, 1)

	lead := leads[0]
	assert.Equal(t, "Maria", lead.Name)
	assert.Equal(t, model.LeadStatusNew, lead.Status)
	assert.Equal(t, 2500.5, lead.Value)
	require.NotNil(t, lead.Company)
	assert.Equal(t, "ACME", *lead.Company)
	assert.Nil(t, lead.Phone)
}

func TestIntakeMissingValueIsZero(t *testing.T) {
	f := newFixture(t)
	h := newIntakeHandler(t, f, nil)

	w := postIntake(h, "Bearer "+testFormToken, `{"lead_name":"Maria","email":"maria@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)

	leads, err := f.leads.Leads(context.Background(), f.user.ID, repository.LeadQuery{})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Zero(t, leads[0].Value)
	assert.Nil(t, leads[0].Company)
}

func TestIntakeFailuresAre400(t *testing.T) {
	tests := []struct {
		name string
		auth string
		body string
		want string
	}{
		{
			name: "no authorization header",
			body: `{"lead_name":"Maria","email":"maria@example.com"}`,
			want: "Token de autorização ausente ou mal formatado.",
		},
		{
			name: "not a bearer token",
			auth: "Basic abc",
			body: `{"lead_name":"Maria","email":"maria@example.com"}`,
			want: "Token de autorização ausente ou mal formatado.",
		},
		{
			name: "empty bearer token",
			auth: "Bearer ",
			body: `{"lead_name":"Maria","email":"maria@example.com"}`,
			want: "Token de autorização ausente ou mal formatado.",
		},
		{
			name: "body is not json",
			auth: "Bearer " + testFormToken,
			body: `lead_name=Maria`,
			want: "Corpo da requisição inválido.",
		},
		{
			name: "missing email",
			auth: "Bearer " + testFormToken,
			body: `{"lead_name":"Maria"}`,
			want: "Nome e email são campos obrigatórios.",
		},
		{
			name: "required fields checked before the token",
			auth: "Bearer unknown",
			body: `{"email":"maria@example.com"}`,
			want: "Nome e email são campos obrigatórios.",
		},
		{
			name: "unknown token",
			auth: "Bearer unknown",
			body: `{"lead_name":"Maria","email":"maria@example.com"}`,
			want: "Token inválido ou não encontrado.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			h := newIntakeHandler(t, f, nil)

			w := postIntake(h, tt.auth, tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assertCORS(t, w)
			assert.Equal(t, map[string]string{"error": tt.want}, decode(t, w))

			leads, err := f.leads.Leads(context.Background(), f.user.ID, repository.LeadQuery{})
			require.NoError(t, err)
			assert.Empty(t, leads)
		})
	}
}

func TestIntakePreflight(t *testing.T) {
	f := newFixture(t)
	h := newIntakeHandler(t, f, nil)

	r := httptest.NewRequest(http.MethodOptions, "/api/public/leads", nil)
	r.Header.Set("Origin", "https://site.example.com")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	r.Header.Set("Access-Control-Request-Headers", "authorization, content-type")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assertCORS(t, w)

	// Plain OPTIONS without preflight headers gets the same answer
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/public/leads", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assertCORS(t, w)
}

func TestIntakeRateLimit(t *testing.T) {
	f := newFixture(t)
	limiter := middleware.NewRateLimiter(2, time.Minute)
	defer limiter.Stop()
	h := newIntakeHandler(t, f, limiter)

	body := `{"lead_name":"Maria","email":"maria@example.com"}`
	for range 2 {
		w := postIntake(h, "Bearer "+testFormToken, body)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := postIntake(h, "Bearer "+testFormToken, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assertCORS(t, w)
	assert.Contains(t, decode(t, w)["error"], "Muitas requisições")
}

func TestIntakeOtherMethodsAre400(t *testing.T) {
	f := newFixture(t)
	h := newIntakeHandler(t, f, nil)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			r := httptest.NewRequest(method, "/api/public/leads", strings.NewReader(`{"lead_name":"Maria","email":"maria@example.com"}`))
			r.Header.Set("Authorization", "Bearer "+testFormToken)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assertCORS(t, w)
			assert.Equal(t, map[string]string{"error": "Corpo da requisição inválido."}, decode(t, w))
		})
	}

	leads, err := f.leads.Leads(context.Background(), f.user.ID, repository.LeadQuery{})
	require.NoError(t, err)
	assert.Empty(t, leads)
}
