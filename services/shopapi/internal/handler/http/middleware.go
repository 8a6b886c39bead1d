package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/pkg/httputil"
)

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Envelope{
					"success": false,
					"message": "Content-Type must be application/json",
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// KnownPath rejects API paths other than allowed. An empty allowed accepts
// every path, each with its own cart.
func KnownPath(allowed string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowed != "" && chi.URLParam(r, "path") != allowed {
				httputil.WriteJSON(w, http.StatusNotFound, httputil.Envelope{
					"success": false,
					"message": "unknown api path",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
