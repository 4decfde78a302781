package handlers

import (
	"encoding/json"
	"log"
	"net/http"
)

// respondJSON writes v as the JSON response body with the given status.
// Encoding failures are logged; the status line has already been sent at
// that point, so nothing else can be done for the client.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			log.Printf("Failed to encode JSON response: %v", err)
		}
	}
}
