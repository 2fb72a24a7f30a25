package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"amsd/pkg/types"
)

// EventHub fans backend events out to any number of SSE clients. The
// backend supports a single subscriber, so the hub registers once (via
// Publish as the ams.EventFunc) and multiplexes from there.
type EventHub struct {
	mu      sync.Mutex
	clients map[chan types.Event]struct{}
}

func NewEventHub() *EventHub {
	return &EventHub{clients: make(map[chan types.Event]struct{})}
}

// Publish is an ams.EventFunc. Slow clients are skipped rather than
// blocking the backend; the next STATE_CHANGED resynchronizes them.
func (h *EventHub) Publish(event, payload string) {
	ev := types.Event{Name: event, Payload: payload}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *EventHub) subscribe() chan types.Event {
	ch := make(chan types.Event, 64)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	sseClients.Inc()
	return ch
}

func (h *EventHub) unsubscribe(ch chan types.Event) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	sseClients.Dec()
}

// ClientCount returns the number of connected SSE clients.
func (h *EventHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP streams events as server-sent events until the client
// disconnects or the server shuts down.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev := <-ch:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
