package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/andrescamil/Sistema-reserva-recursos-compartidos/internal/notify"
)

// Subscriber is the hub side consumed by the event stream.
type Subscriber interface {
	Subscribe(resourceID string) (<-chan notify.QueueUpdate, func())
}

const heartbeatInterval = 30 * time.Second

// HandleQueueStream serves an SSE stream of queue-change hints for one
// resource. Each event is an invalidation hint only; clients re-fetch the
// queue through the read API. Delivery is best-effort, missed hints are
// fine.
func HandleQueueStream(hub Subscriber) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resourceID, action, ok := parseResourcePath(r.URL.Path)
		if !ok || action != "events" {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, codeStreamUnsupported, "streaming unsupported")
			return
		}

		updates, cancel := hub.Subscribe(resourceID)
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case update := <-updates:
				payload, err := json.Marshal(update)
				if err != nil {
					continue
				}
				if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
					return
				}
				flusher.Flush()
			case <-heartbeat.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
