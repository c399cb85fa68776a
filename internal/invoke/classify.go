// ABOUTME: Classifies a finished run into a response or a typed error
// ABOUTME: Recognizes the tool's JSON error array and promotes quota 429s to ErrQuotaExceeded

package invoke

import (
	"encoding/json"
	"strconv"
	"strings"
)

const (
	quotaCode   = 429
	quotaPhrase = "Quota exceeded"
)

// toolErrorPayload is one element of the JSON array the tool prints on stderr:
// [{"error": {"code": 429, "message": "..."}}]
type toolErrorPayload struct {
	Error *struct {
		Code    json.RawMessage `json:"code"`
		Message json.RawMessage `json:"message"`
	} `json:"error"`
}

// Classify returns stdout verbatim on success. On failure it returns
// ErrQuotaExceeded for a recognized quota payload and a *ToolError carrying the
// raw stderr otherwise. Stdout is never inspected on failure.
func Classify(out *Outcome) (string, error) {
	if out.Success() {
		return out.Stdout, nil
	}
	if isQuotaExceeded(out.Stderr) {
		return "", ErrQuotaExceeded
	}
	return "", &ToolError{ExitCode: out.ExitCode, Stderr: out.Stderr}
}

func isQuotaExceeded(stderr string) bool {
	// Only the first element matters; later elements may have any shape.
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(stderr), &elems); err != nil || len(elems) == 0 {
		return false
	}
	var first toolErrorPayload
	if err := json.Unmarshal(elems[0], &first); err != nil || first.Error == nil {
		return false
	}
	e := first.Error

	// code must be the integer literal 429; "429" or 429.0 do not count.
	if strings.TrimSpace(string(e.Code)) != strconv.Itoa(quotaCode) {
		return false
	}

	var msg string
	if err := json.Unmarshal(e.Message, &msg); err != nil {
		return false
	}
	return strings.Contains(msg, quotaPhrase)
}
