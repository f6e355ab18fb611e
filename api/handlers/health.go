package handlers

import (
	"net/http"
	"time"
)

// Health responds to liveness probes.
func Health(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]any{
			"status":    "healthy",
			"version":   version,
			"timestamp": time.Now().UTC(),
		})
	}
}
