package middleware

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront/pkg/logger"
)

// RequestLogger stores base, enriched with the request's identifiers, as the
// request-scoped logger that handlers fetch with logger.FromContext. Mount it
// after RequestLogging, Tracing and Session.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			// The shop API does not mount Session but still logs the caller's id.
			if logger.SessionIDFromContext(ctx) == "" {
				if id := r.Header.Get(SessionHeader); validSessionID(id) {
					ctx = logger.WithSessionID(ctx, id)
				}
			}
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
