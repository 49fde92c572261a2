package handlers

import (
	"encoding/json"
	"net/http"
)

// writeJSON serializes payload with the right content type.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
