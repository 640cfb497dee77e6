package httputil

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every error response. Details name the
// offending input fields, when there are any.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// WriteJSON encodes v as the response body
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// WriteError writes an ErrorResponse
func WriteError(w http.ResponseWriter, status int, message string, details ...string) {
	_ = WriteJSON(w, status, ErrorResponse{Error: message, Details: details})
}
