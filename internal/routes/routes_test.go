package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/leadflow/internal/app"
	"github.com/leadflow/leadflow/internal/config"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()

	a, err := app.New(context.Background(), &config.Config{
		AppName:      "LeadFlow",
		AppEnv:       "test",
		AppURL:       "http://localhost:8090",
		Timezone:     time.UTC,
		DBDriver:     "sqlite",
		DBConnection: filepath.Join(t.TempDir(), "leadflow.db"),
		JWTSecret:    "test-secret",
		JWTExpiry:    time.Hour,
	})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	return a
}

func TestPublicIntakeAnswersEveryMethodWithJSON(t *testing.T) {
	handler := SetupRoutes(newTestApp(t))

	tests := []struct {
		method string
		status int
	}{
		{http.MethodGet, http.StatusBadRequest},
		{http.MethodPut, http.StatusBadRequest},
		{http.MethodDelete, http.StatusBadRequest},
		{http.MethodPost, http.StatusBadRequest},
		{http.MethodOptions, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, "/api/public/leads", nil)
			r.Header.Set("Origin", "https://site.example.com")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

			if tt.status == http.StatusBadRequest {
				var body map[string]string
				err := json.Unmarshal(w.Body.Bytes(), &body)
				require.NoError(t, err, w.Body.String())
				assert.NotEmpty(t, body["error"])
			} else {
				assert.Empty(t, w.Body.String())
			}
		})
	}
}

func TestProtectedPagesRedirectToLogin(t *testing.T) {
	handler := SetupRoutes(newTestApp(t))

	for _, path := range []string{"/dashboard", "/pipeline", "/leads", "/settings"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusSeeOther, w.Code, path)
		assert.Equal(t, "/login", w.Header().Get("Location"), path)
	}
}
