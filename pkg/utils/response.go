package utils

import (
	"encoding/json"
	"net/http"
)

// Envelope is the body shape shared by every JSON endpoint: success and
// message, plus endpoint-specific keys.
type Envelope map[string]interface{}

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondSuccess sends {"success": true, "message": message} merged with payload.
func RespondSuccess(w http.ResponseWriter, status int, message string, payload Envelope) {
	body := Envelope{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range payload {
		body[k] = v
	}
	RespondJSON(w, status, body)
}

// RespondError sends an error response
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, Envelope{
		"success": false,
		"message": message,
	})
}
