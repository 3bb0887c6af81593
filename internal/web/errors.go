package web

// errors.go provides unified error responses for the API.
//
// The technical error is logged with the request id; the client receives a
// stable code and a message that is safe to show.

import (
	"net/http"

	"github.com/JonMunkholm/csvintake/internal/logging"
)

// Codes returned in ErrorResponse.Code alongside the core ErrorCode values.
const (
	CodeBadRequest    = "REQ001"
	CodeTooLarge      = "REQ002"
	CodeUnknownSchema = "REQ003"
	CodeUnavailable   = "SRV001"
	CodeBusy          = "SRV003"
	CodeImportFailed  = "SRV002"
)

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondError logs err and writes a JSON error with the given status.
// message is what the client sees; err may carry more detail.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", code,
	}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}

	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}
