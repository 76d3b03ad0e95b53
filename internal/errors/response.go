package errors

import (
	"encoding/json"
	"net/http"
)

// Status values used in aggregator response envelopes.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrorResponse is the error envelope returned by the aggregator API.
type ErrorResponse struct {
	Status  string         `json:"status"`
	Code    string         `json:"code,omitempty"` // e.g. FEE_MISMATCH, PAYMENT_FAILED
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// NewErrorResponse creates an error envelope.
func NewErrorResponse(code, message string, details map[string]any) ErrorResponse {
	return ErrorResponse{
		Status:  StatusError,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// WriteJSON writes the envelope with the given HTTP status.
func (e ErrorResponse) WriteJSON(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(e)
}

// WriteError is a convenience function to write an error envelope in one call.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	NewErrorResponse(code, message, nil).WriteJSON(w, status)
}
