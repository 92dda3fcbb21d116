package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/leadflow/internal/config"
)

func newGoogleOnlyAuthHandler() *authHandler {
	return NewAuthHandler(nil, &config.Config{
		AppURL:         "http://localhost:8090",
		GoogleClientID: "client-id",
	})
}

func TestLoginPageShowsConfiguredProviders(t *testing.T) {
	h := newGoogleOnlyAuthHandler()

	w := httptest.NewRecorder()
	h.LoginPage(w, httptest.NewRequest(http.MethodGet, "/login", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Continuar com Google")
	assert.NotContains(t, w.Body.String(), "Continuar com GitHub")
}

func TestOAuthRedirectSetsState(t *testing.T) {
	h := newGoogleOnlyAuthHandler()

	w := httptest.NewRecorder()
	h.GoogleAuth(w, httptest.NewRequest(http.MethodGet, "/auth/google", nil))

	require.Equal(t, http.StatusTemporaryRedirect, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, oauthStateCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	location := w.Header().Get("Location")
	assert.True(t, strings.HasPrefix(location, "https://accounts.google.com/"), location)
	assert.Contains(t, location, "state="+cookies[0].Value)
	assert.Contains(t, location, "redirect_uri=http%3A%2F%2Flocalhost%3A8090%2Fauth%2Fgoogle%2Fcallback")
}

func TestOAuthCallbackRejectsStateMismatch(t *testing.T) {
	h := newGoogleOnlyAuthHandler()

	tests := []struct {
		name   string
		cookie string
		state  string
	}{
		{"no cookie", "", "abc"},
		{"different state", "abc", "xyz"},
		{"empty state", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=c&state="+tt.state, nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: tt.cookie})
			}

			w := httptest.NewRecorder()
			h.GoogleCallback(w, r)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), oauthFailed)
		})
	}
}

func TestUnconfiguredProviderIsNotFound(t *testing.T) {
	h := newGoogleOnlyAuthHandler()

	w := httptest.NewRecorder()
	h.GitHubAuth(w, httptest.NewRequest(http.MethodGet, "/auth/github", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	h.GitHubCallback(w, httptest.NewRequest(http.MethodGet, "/auth/github/callback?state=a&code=b", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateOAuthState(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		state := generateOAuthState()
		assert.Len(t, state, 43)
		assert.False(t, seen[state], "duplicate state %s", state)
		seen[state] = true
	}
}
