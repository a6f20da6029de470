package rest

import (
	"encoding/json"
	"net/http"

	"github.com/addonhub/addonhub-backend/internal/pkg/logger"
)

// APIError represents a structured API error response
type APIError struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// Error codes for common scenarios
const (
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeUpstreamError  = "UPSTREAM_ERROR"
	ErrCodeInternalError  = "INTERNAL_ERROR"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondError sends a structured error response with error code and the
// request ID from context.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, status, APIError{
		Error:     message,
		Code:      code,
		Message:   message,
		RequestID: logger.FromContext(r.Context()),
	})
}
