package http

import (
	"encoding/json"
	"net/http"
)

// HealthHandler reports process liveness. It deliberately does not touch
// the database; readiness of the storage layer surfaces through the API
// endpoints themselves.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
