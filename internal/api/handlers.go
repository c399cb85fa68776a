// ABOUTME: HTTP handlers for prompts, sessions, messages, sends and exports
// ABOUTME: Prompt runs use the server's base context so a dropped client does not kill the tool

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/2389/gemini-bridge/internal/config"
	"github.com/2389/gemini-bridge/internal/dedupe"
	"github.com/2389/gemini-bridge/internal/export"
	"github.com/2389/gemini-bridge/internal/store"
)

// PromptRequest is the JSON request body for POST /api/prompt and
// POST /api/sessions/{id}/send.
type PromptRequest struct {
	Prompt string `json:"prompt"`
}

// PromptResponse is the JSON response for POST /api/prompt.
type PromptResponse struct {
	Response string `json:"response"`
}

// CreateSessionRequest is the JSON request body for POST /api/sessions.
type CreateSessionRequest struct {
	Name string `json:"name"`
}

// CreateSessionResponse is the JSON response for POST /api/sessions.
type CreateSessionResponse struct {
	ID int64 `json:"id"`
}

// AppendMessageRequest is the JSON request body for
// POST /api/sessions/{id}/messages. FromUser is the author tag stored
// verbatim; empty means "user".
type AppendMessageRequest struct {
	Text     string `json:"text"`
	FromUser string `json:"from_user"`
}

// MessageResponse is one message as returned to the UI. Role is the closed
// view of the author tag: "user" or "tool".
type MessageResponse struct {
	*store.Message
	Role string `json:"role"`
	HTML string `json:"html,omitempty"`
}

func (s *Server) messageResponse(m *store.Message, withHTML bool) MessageResponse {
	resp := MessageResponse{Message: m, Role: m.Role().String()}
	if withHTML {
		resp.HTML = s.renderHTML(m.Text)
	}
	return resp
}

// handlePrompt runs a one-off prompt. Nothing is persisted.
func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	var req PromptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendJSONError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if req.Prompt == "" {
		sendJSONError(w, http.StatusBadRequest, CodeBadRequest, "prompt is required")
		return
	}

	resp, err := s.prompter.RunPrompt(s.baseCtx, req.Prompt)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PromptResponse{Response: resp})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.ListSessions(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []*store.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendJSONError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	id, err := s.store.CreateSession(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("session created", "session_id", id)
	writeJSON(w, http.StatusCreated, CreateSessionResponse{ID: id})
}

// handleDeleteSession is idempotent: deleting a missing session is a 204.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := anySessionID(r)
	if err != nil {
		sendJSONError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	if err := s.conversation.DeleteSession(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListMessages returns the session's messages with rendered HTML.
func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		sendJSONError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	if _, err := s.store.GetSession(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	msgs, err := s.store.ListMessages(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, s.messageResponse(m, true))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleAppendMessage records a message without running the tool.
func (s *Server) handleAppendMessage(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		sendJSONError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	var req AppendMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendJSONError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	author := req.FromUser
	if author == "" {
		author = store.AuthorUser
	}
	msg, err := s.conversation.Record(r.Context(), id, req.Text, author)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.messageResponse(msg, false))
}

// handleSend records a prompt, runs it, and records the reply.
//
// An Idempotency-Key header is claimed before anything is written; a repeat
// inside the dedupe window is rejected with 409. The claim is released when
// the send fails before the prompt is recorded, so a corrected retry can
// reuse the key.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		sendJSONError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	var req PromptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendJSONError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if req.Prompt == "" {
		sendJSONError(w, http.StatusBadRequest, CodeBadRequest, "prompt is required")
		return
	}

	var claimed string
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		claimed = dedupe.Key(id, key)
		if !s.dedupe.Claim(claimed) {
			s.logger.Info("duplicate send rejected", "session_id", id, "request_id", RequestID(r.Context()))
			sendJSONError(w, http.StatusConflict, CodeDuplicate, "duplicate request")
			return
		}
	}

	ex, err := s.conversation.Send(s.baseCtx, id, req.Prompt)
	if err != nil {
		if ex == nil && claimed != "" {
			s.dedupe.Release(claimed)
		}
		s.writeErrorWith(w, r, err, ex)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

var contentTypes = map[export.Format]string{
	export.FormatMarkdown: "text/markdown; charset=utf-8",
	export.FormatText:     "text/plain; charset=utf-8",
	export.FormatJSON:     "application/json",
}

// handleExport renders the transcript as an attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		sendJSONError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	tag := r.URL.Query().Get("format")

	content, suffix, err := s.exporter.Export(r.Context(), id, tag)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentTypes[export.Format(tag)])
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(id, suffix)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}

// ResolveResponse is the JSON response for GET /api/resolve.
type ResolveResponse struct {
	Path  string `json:"path"`
	Found bool   `json:"found"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var resp ResolveResponse
	if s.resolver != nil {
		resp.Path, resp.Found = s.resolver.Resolve(r.Context())
	}
	writeJSON(w, http.StatusOK, resp)
}

var errNoToolConfig = errors.New("tool configuration is not available")

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if s.tool == nil {
		sendJSONError(w, http.StatusNotFound, CodeNotFound, errNoToolConfig.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.tool.Snapshot())
}

// handlePutConfig persists the new tool config and swaps it in. Running
// prompts keep the config they started with.
func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	if s.tool == nil {
		sendJSONError(w, http.StatusNotFound, CodeNotFound, errNoToolConfig.Error())
		return
	}
	var t config.Tool
	if err := decodeJSON(w, r, &t); err != nil {
		sendJSONError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	if err := s.tool.Set(t); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("tool config updated", "extra_args", len(t.ExtraArgs), "path_set", t.ExecutablePath != nil)
	writeJSON(w, http.StatusOK, s.tool.Snapshot())
}
