package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"classcoins/internal/events"
)

// EventsHandler streams change events to clients over server-sent events
type EventsHandler struct {
	bus *events.Bus
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(bus *events.Bus) *EventsHandler {
	return &EventsHandler{bus: bus}
}

type eventPayload struct {
	Kind      events.Kind `json:"kind"`
	StudentID string      `json:"student_id,omitempty"`
	At        int64       `json:"at"`
}

// Stream subscribes the connection to the change bus and forwards each
// event as an SSE message until the client disconnects.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "Streaming not supported", nil)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	ch := make(chan events.ChangeEvent, 16)
	cancel := h.bus.Subscribe(func(ev events.ChangeEvent) {
		select {
		case ch <- ev:
		default:
			// Slow client; drop rather than block publishers.
		}
	})
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			body, err := json.Marshal(eventPayload{
				Kind:      ev.Kind,
				StudentID: ev.StudentID,
				At:        ev.At.Unix(),
			})
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, body)
			flusher.Flush()
		}
	}
}
