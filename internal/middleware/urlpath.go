package middleware

import (
	"net/http"

	"github.com/leadflow/leadflow/internal/ctxkeys"
)

// WithURLPath adds the current URL's path and query to the context. Views use
// it for the active nav item and to re-fetch themselves when data changes.
func WithURLPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxWithPath := ctxkeys.WithURLPath(r.Context(), r.URL.RequestURI())
		next.ServeHTTP(w, r.WithContext(ctxWithPath))
	})
}
