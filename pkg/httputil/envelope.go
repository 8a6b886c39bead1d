package httputil

import (
	"errors"
	"log/slog"
	"maps"
	"net/http"
	"slices"

	"github.com/utafrali/storefront/pkg/validator"
)

// Envelope is the shop API shape: a success flag, an optional message and
// the payload keys merged beside them.
type Envelope map[string]any

// WriteEnvelope writes payload with "success": true added.
func WriteEnvelope(w http.ResponseWriter, status int, payload Envelope) {
	body := maps.Clone(payload)
	if body == nil {
		body = Envelope{}
	}
	body["success"] = true
	WriteJSON(w, status, body)
}

// WriteEnvelopeError writes {"success": false, "message": ...} with the same
// status rules as WriteError. Validation failures list one sorted message per
// field.
func WriteEnvelopeError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		msgs := slices.Sorted(maps.Values(valErr.Fields()))
		WriteJSON(w, http.StatusBadRequest, Envelope{"success": false, "message": msgs})
		return
	}

	status, _, message := describe(r, err, fallback)
	WriteJSON(w, status, Envelope{"success": false, "message": message})
}
