package middleware

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/pkg/logger"
)

// SessionHeader carries the shopper's session identifier between the browser
// and the storefront.
const SessionHeader = "X-Session-ID"

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func validSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

// Session puts the X-Session-ID of the request in context and echoes it on
// the response. A missing or malformed id is replaced by a fresh UUID.
func Session() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(SessionHeader)
			if !validSessionID(id) {
				id = uuid.NewString()
			}
			w.Header().Set(SessionHeader, id)
			next.ServeHTTP(w, r.WithContext(logger.WithSessionID(r.Context(), id)))
		})
	}
}
