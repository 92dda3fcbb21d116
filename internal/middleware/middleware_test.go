package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/leadflow/leadflow/internal/ctxkeys"
	"github.com/leadflow/leadflow/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func ok(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRequireAuthRedirectsToLogin(t *testing.T) {
	handler := RequireAuth(ok)

	t.Run("browser", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/pipeline", nil))

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, LoginPath, rec.Header().Get("Location"))
	})

	t.Run("htmx", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/pipeline", nil)
		req.Header.Set("HX-Request", "true")
		rec := httptest.NewRecorder()
		handler(rec, req)

		assert.Equal(t, LoginPath, rec.Header().Get("HX-Redirect"))
	})
}

func TestRequireAuthOnboarding(t *testing.T) {
	handler := RequireAuth(ok)
	user := &model.User{ID: "user-1"}

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	ctx := ctxkeys.WithUser(req.Context(), user)
	ctx = ctxkeys.WithProfile(ctx, &model.Profile{UserID: user.ID})
	rec := httptest.NewRecorder()
	handler(rec, req.WithContext(ctx))
	assert.Equal(t, OnboardingPath, rec.Header().Get("Location"))

	ctx = ctxkeys.WithProfile(ctx, &model.Profile{UserID: user.ID, Name: "Ana"})
	rec = httptest.NewRecorder()
	handler(rec, req.WithContext(ctx))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireGuest(t *testing.T) {
	handler := RequireGuest(ok)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler(rec, req.WithContext(ctxkeys.WithUser(req.Context(), &model.User{ID: "u"})))
	assert.Equal(t, HomePath, rec.Header().Get("Location"))
}

func TestClock(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	var got time.Time
	handler := Clock(loc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ctxkeys.Now(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, loc, got.Location())
}

func TestCSRFProtection(t *testing.T) {
	handler := CSRFProtection(http.HandlerFunc(ok))

	t.Run("rejects post without token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/leads", strings.NewReader("a=b")))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("accepts matching header", func(t *testing.T) {
		token := generateCSRFToken()
		req := httptest.NewRequest(http.MethodPost, "/leads", nil)
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: token})
		req.Header.Set(csrfHeader, token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("public api is exempt", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/public/leads", strings.NewReader("{}")))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)
	defer limiter.Stop()

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"))

	handler := RateLimit(limiter)(ok)
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", ClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ClientIP(req))
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	handler := Chain(http.HandlerFunc(ok), mw("first"), mw("second"))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestSecurityHeadersUseNonce(t *testing.T) {
	var nonce string
	handler := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nonce = GetNonce(r.Context())
	}), NonceMiddleware, SecurityHeaders(true))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotEmpty(t, nonce)
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "'nonce-"+nonce+"'")
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestMetricsPassesThrough(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /leads/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	Metrics(mux).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leads/7", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
