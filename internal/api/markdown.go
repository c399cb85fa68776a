// ABOUTME: Markdown to HTML rendering for message bodies shown in the chat UI
// ABOUTME: Raw HTML in message text is omitted, never passed through

package api

import (
	"bytes"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// renderHTML converts a message body to HTML. On failure the escaped text is
// returned in a paragraph.
func (s *Server) renderHTML(text string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(text), &buf); err != nil {
		s.logger.Error("failed to convert markdown", "error", err)
		return "<p>" + html.EscapeString(text) + "</p>"
	}
	return buf.String()
}
