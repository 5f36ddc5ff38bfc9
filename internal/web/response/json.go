// Package response holds the JSON rendering helpers every API handler
// goes through, including the error-to-status mapping for domain errors.
package response

import (
	"encoding/json"
	"net/http"
)

// JSON renders a value as a JSON response with the given status code.
func JSON(w http.ResponseWriter, statusCode int, value interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	// Encoding failures after the header is written can only be logged by
	// the caller's middleware; the status line is already on the wire.
	_ = json.NewEncoder(w).Encode(value)
}

// OK renders a 200 response.
func OK(w http.ResponseWriter, value interface{}) {
	JSON(w, http.StatusOK, value)
}

// NoContent renders an empty 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
