package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/safeher/platform/internal/feed"
)

// SSEHandler streams live SOS events to responder dashboards. Clients
// authenticate with a `token` query parameter because EventSource cannot set
// headers.
type SSEHandler struct {
	hub       *feed.Hub
	heartbeat time.Duration
	log       zerolog.Logger
}

// NewSSEHandler creates the handler.
func NewSSEHandler(hub *feed.Hub, heartbeat time.Duration, logger zerolog.Logger) *SSEHandler {
	return &SSEHandler{hub: hub, heartbeat: heartbeat, log: logger}
}

// Stream serves one SSE connection until the client disconnects.
func (h *SSEHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := h.hub.Subscribe()
	defer sub.Unsubscribe()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case event, open := <-sub.C:
			if !open {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.log.Warn().Err(err).Msg("sse: encode event failed")
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
