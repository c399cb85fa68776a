// ABOUTME: Reads a session's messages in time order and renders them in the requested format
// ABOUTME: Validates the format before touching storage; writing the result is the caller's job

package export

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/2389/gemini-bridge/internal/store"
)

// MessageSource is the subset of store.Store the exporter reads from.
type MessageSource interface {
	GetSession(ctx context.Context, id int64) (*store.Session, error)
	ListMessagesByTime(ctx context.Context, sessionID int64) ([]*store.Message, error)
}

// Exporter renders stored sessions.
type Exporter struct {
	source MessageSource
	logger *slog.Logger
}

// New creates an Exporter reading from source.
func New(source MessageSource, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		source: source,
		logger: logger.With("component", "export"),
	}
}

// Export returns the rendered transcript and its file suffix. It fails with
// ErrUnsupportedFormat before any read, and with store.ErrSessionNotFound for
// an unknown session.
func (e *Exporter) Export(ctx context.Context, sessionID int64, tag string) (string, string, error) {
	format, err := ParseFormat(tag)
	if err != nil {
		return "", "", err
	}

	if _, err := e.source.GetSession(ctx, sessionID); err != nil {
		return "", "", err
	}

	msgs, err := e.source.ListMessagesByTime(ctx, sessionID)
	if err != nil {
		return "", "", fmt.Errorf("reading messages: %w", err)
	}

	content, err := Render(format, msgs)
	if err != nil {
		return "", "", err
	}

	e.logger.Debug("exported session", "session_id", sessionID, "format", format, "messages", len(msgs))
	return content, format.Suffix(), nil
}

// FileName is the default file name offered for an export.
func FileName(sessionID int64, suffix string) string {
	return fmt.Sprintf("session_%d.%s", sessionID, suffix)
}
