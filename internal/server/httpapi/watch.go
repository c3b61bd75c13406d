package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// handleWatch streams change events for one collection as server-sent
// events. The stream stays open until the client disconnects; each event is
// one JSON-encoded watch.Event.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	collection := r.URL.Query().Get("collection")
	if collection == "" {
		writeError(w, http.StatusBadRequest, "missing_collection")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported")
		return
	}

	events, cancel, err := s.broker.Subscribe(r.Context(), collection)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
