// ABOUTME: Transcript renderers for markdown, plain text and JSON
// ABOUTME: Pure functions over an ordered message slice; no storage or file I/O

package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2389/gemini-bridge/internal/store"
)

// ErrUnsupportedFormat is returned for any format tag other than markdown,
// txt or json.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format is a transcript representation.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
	FormatJSON     Format = "json"
)

// Formats lists every supported format in display order.
var Formats = []Format{FormatMarkdown, FormatText, FormatJSON}

// ParseFormat validates a format tag. Matching is exact.
func ParseFormat(tag string) (Format, error) {
	switch f := Format(tag); f {
	case FormatMarkdown, FormatText, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, tag)
	}
}

// Suffix is the file extension for the format, without a dot.
func (f Format) Suffix() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// jsonMessage is the exported shape of one message.
type jsonMessage struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"session_id"`
	Text      string    `json:"text"`
	FromUser  string    `json:"from_user"`
	Timestamp time.Time `json:"timestamp"`
}

// Render formats msgs, which must already be in the desired order.
func Render(f Format, msgs []*store.Message) (string, error) {
	switch f {
	case FormatMarkdown:
		return renderMarkdown(msgs), nil
	case FormatText:
		return renderText(msgs), nil
	case FormatJSON:
		return renderJSON(msgs)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(f))
	}
}

func renderMarkdown(msgs []*store.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		if m.Role() == store.RoleUser {
			b.WriteString("**User:** ")
		} else {
			b.WriteString("**Gemini:** ")
		}
		b.WriteString(m.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

func renderText(msgs []*store.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.Author)
		b.WriteString(": ")
		b.WriteString(m.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

func renderJSON(msgs []*store.Message) (string, error) {
	out := make([]jsonMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, jsonMessage{
			ID:        m.ID,
			SessionID: m.SessionID,
			Text:      m.Text,
			FromUser:  m.Author,
			Timestamp: m.Timestamp.UTC(),
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding messages: %w", err)
	}
	return string(data), nil
}
