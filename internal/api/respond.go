// ABOUTME: JSON response helpers and the mapping from domain errors to HTTP statuses
// ABOUTME: Quota, tool and launch failures keep distinct codes so the UI can tell them apart

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/2389/gemini-bridge/internal/auth"
	"github.com/2389/gemini-bridge/internal/conversation"
	"github.com/2389/gemini-bridge/internal/export"
	"github.com/2389/gemini-bridge/internal/invoke"
	"github.com/2389/gemini-bridge/internal/store"
)

// Error codes carried in the "code" field of error responses.
const (
	CodeQuotaExceeded     = "QUOTA_EXCEEDED"
	CodeToolError         = "TOOL_ERROR"
	CodeLaunchFailed      = "LAUNCH_FAILED"
	CodeNotFound          = "NOT_FOUND"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeBadRequest        = "BAD_REQUEST"
	CodeDuplicate         = "DUPLICATE_REQUEST"
	CodeInternal          = "INTERNAL"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	// Exchange is set when a send failed after the prompt was recorded.
	Exchange *conversation.Exchange `json:"exchange,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// sendJSONError writes a JSON error response.
func sendJSONError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// errorStatus maps err to a status, code and client-facing message. The
// message for tool errors is the raw stderr.
func errorStatus(err error) (int, string, string) {
	var toolErr *invoke.ToolError
	switch {
	// Quota first: ErrQuotaExceeded also matches ErrToolFailed.
	case errors.Is(err, invoke.ErrQuotaExceeded):
		return http.StatusTooManyRequests, CodeQuotaExceeded, invoke.ErrQuotaExceeded.Error()
	case errors.As(err, &toolErr):
		return http.StatusBadGateway, CodeToolError, toolErr.Stderr
	case errors.Is(err, invoke.ErrLaunchFailed):
		return http.StatusBadGateway, CodeLaunchFailed, err.Error()
	case errors.Is(err, store.ErrSessionNotFound):
		return http.StatusNotFound, CodeNotFound, store.ErrSessionNotFound.Error()
	case errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusBadRequest, CodeUnsupportedFormat, err.Error()
	default:
		return http.StatusInternalServerError, CodeInternal, "internal server error"
	}
}

// writeError maps err and writes it, logging anything unexpected.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeErrorWith(w, r, err, nil)
}

func (s *Server) writeErrorWith(w http.ResponseWriter, r *http.Request, err error, ex *conversation.Exchange) {
	status, code, msg := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			"request_id", RequestID(r.Context()),
			"subject", auth.SubjectFrom(r.Context()),
			"path", r.URL.Path,
			"error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code, Exchange: ex})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

// sessionID parses the {id} path value. Ids are assigned from 1.
func sessionID(r *http.Request) (int64, error) {
	id, err := anySessionID(r)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid session id %q", r.PathValue("id"))
	}
	return id, nil
}

// anySessionID parses the {id} path value without range checks. Deleting an
// id that was never assigned is a no-op, not a bad request.
func anySessionID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid session id %q", raw)
	}
	return id, nil
}
