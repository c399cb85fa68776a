// ABOUTME: Server-Sent Events stream of new messages for one session
// ABOUTME: Lets a UI window follow sends made from another window or from the CLI server

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/2389/gemini-bridge/internal/conversation"
)

// writeSSEEvent writes a single SSE event to the response writer.
func (s *Server) writeSSEEvent(w http.ResponseWriter, event string, data any) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("failed to marshal SSE data", "error", err)
		return
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", dataJSON)
}

// handleEvents streams message and deletion events for a session until the
// client goes away, the session is deleted, or the server shuts down.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		sendJSONError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if s.broadcaster == nil {
		sendJSONError(w, http.StatusNotImplemented, CodeInternal, "event streaming is not enabled")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		sendJSONError(w, http.StatusInternalServerError, CodeInternal, "streaming not supported")
		return
	}
	if _, err := s.store.GetSession(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}

	events, _ := s.broadcaster.Subscribe(r.Context(), id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	s.writeSSEEvent(w, "connected", map[string]int64{"session_id": id})
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.closing:
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.writeSSEEvent(w, string(ev.Kind), ev)
			flusher.Flush()
			if ev.Kind == conversation.EventDeleted {
				return
			}
		}
	}
}
