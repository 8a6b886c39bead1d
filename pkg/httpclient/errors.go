package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// maxErrorBody caps how much of a failed response is read.
const maxErrorBody = 1 << 20

// errorBody matches both failure shapes the storefront reads: the platform's
// {"error":{"code","message"}} and the shop API's {"success":false,"message"}
// where message is a string or a list of strings.
type errorBody struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Success *bool           `json:"success"`
	Message json.RawMessage `json:"message"`
}

// EnvelopeMessage flattens a shop API "message" field into one string.
func EnvelopeMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return strings.Join(list, "; ")
	}
	return string(raw)
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// turns it into an error. Recognised 4xx bodies and 503 become AppErrors
// carrying the downstream status; other 5xx and unrecognised bodies become
// plain errors quoting the status and body.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	code, message, ok := decodeErrorBody(raw)
	if !ok {
		return fmt.Errorf("%s returned status %d: %s", serviceName, resp.StatusCode, raw)
	}
	if resp.StatusCode >= 500 && resp.StatusCode != http.StatusServiceUnavailable {
		return fmt.Errorf("%s server error (%d/%s): %s", serviceName, resp.StatusCode, code, message)
	}
	return apperrors.FromStatus(resp.StatusCode, code, serviceName+": "+message)
}

func decodeErrorBody(raw []byte) (code, message string, ok bool) {
	var body errorBody
	if json.Unmarshal(raw, &body) != nil {
		return "", "", false
	}
	switch {
	case body.Error != nil:
		return body.Error.Code, body.Error.Message, true
	case body.Success != nil && !*body.Success:
		return "", EnvelopeMessage(body.Message), true
	}
	return "", "", false
}
