// Package httputil writes the two JSON response shapes used in this module:
// the platform shape {"data":...} / {"error":{...}} served by the storefront
// BFF, and the flat {"success":...} envelope spoken by the shop API.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/validator"
)

const internalMessage = "an internal error occurred"

// Response is the platform response shape.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the error member of Response.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v with the given status. Encoding errors are dropped
// because the header is already out.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// describe picks the status, code and client-facing message for err. 500s
// are logged with the request-scoped logger, or fallback when none is set,
// and their cause is never shown.
func describe(r *http.Request, err error, fallback *slog.Logger) (int, string, string) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		l := logger.FromContext(r.Context())
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		l.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
		return status, "INTERNAL_ERROR", internalMessage
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return status, appErr.Code, appErr.Message
	}
	return status, apperrors.Code(err), err.Error()
}

// WriteError writes err in the platform shape, tagged with the request's
// correlation ID.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	status, code, message := describe(r, err, fallback)
	WriteJSON(w, status, Response{Error: &ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: logger.CorrelationIDFromContext(r.Context()),
	}})
}

// WriteValidationError writes a 400. A ValidationError reports its fields;
// anything else, typically a decode failure, is INVALID_INPUT.
func WriteValidationError(w http.ResponseWriter, r *http.Request, err error) {
	body := &ErrorResponse{Code: "INVALID_INPUT", Message: err.Error()}
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		body = &ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "request validation failed",
			Fields:  valErr.Fields(),
		}
	}
	body.RequestID = logger.CorrelationIDFromContext(r.Context())
	WriteJSON(w, http.StatusBadRequest, Response{Error: body})
}
