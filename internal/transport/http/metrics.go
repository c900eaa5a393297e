package http

import (
	"net/http"

	"github.com/VictoriaMetrics/metrics"
)

// MetricsHandler exposes the process metrics in Prometheus text format.
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	metrics.WritePrometheus(w, true)
}
