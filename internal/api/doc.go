// Package api serves the bridge over local HTTP so a chat front end can run
// prompts, manage sessions and messages, export transcripts, and edit the
// tool configuration.
//
// Error bodies are JSON objects with "error" and "code". Tool failures keep
// their classification: QUOTA_EXCEEDED (429), TOOL_ERROR (502, raw stderr as
// the message) and LAUNCH_FAILED (502).
package api
