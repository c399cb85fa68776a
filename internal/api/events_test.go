// ABOUTME: Tests for the per-session Server-Sent Events stream
// ABOUTME: Uses a real listener so flushing and disconnects behave as in production

package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/gemini-bridge/internal/conversation"
	"github.com/2389/gemini-bridge/internal/store"
)

type sseEvent struct {
	name string
	data string
}

// readEvents parses the stream into events until it ends.
func readEvents(resp *http.Response) <-chan sseEvent {
	out := make(chan sseEvent, 16)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(resp.Body)
		var ev sseEvent
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				ev.name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				ev.data = strings.TrimPrefix(line, "data: ")
			case line == "" && ev.name != "":
				out <- ev
				ev = sseEvent{}
			}
		}
	}()
	return out
}

func nextEvent(t *testing.T, events <-chan sseEvent) sseEvent {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "stream ended early")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return sseEvent{}
	}
}

func openStream(t *testing.T, ctx context.Context, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestEvents_StreamsMessagesUntilDeleted(t *testing.T) {
	env := newTestEnv(t, nil)
	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	id := env.createSession(t, "watched")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resp := openStream(t, ctx, ts.URL+sessionPath(id, "/events"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := readEvents(resp)
	assert.Equal(t, "connected", nextEvent(t, events).name)

	rec := env.do(t, http.MethodPost, sessionPath(id, "/send"), PromptRequest{Prompt: "hi"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, want := range []struct{ text, author string }{
		{"hi", store.AuthorUser},
		{"hello", store.AuthorTool},
	} {
		ev := nextEvent(t, events)
		require.Equal(t, string(conversation.EventMessage), ev.name)

		var payload conversation.Event
		require.NoError(t, json.Unmarshal([]byte(ev.data), &payload))
		require.NotNil(t, payload.Message)
		assert.Equal(t, want.text, payload.Message.Text)
		assert.Equal(t, want.author, payload.Message.Author)
		assert.Equal(t, id, payload.SessionID)
	}

	rec = env.do(t, http.MethodDelete, sessionPath(id, ""), nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, string(conversation.EventDeleted), nextEvent(t, events).name)

	select {
	case _, ok := <-events:
		assert.False(t, ok, "stream closes after deletion")
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not close after deletion")
	}
}

func TestEvents_OtherSessionsNotDelivered(t *testing.T) {
	env := newTestEnv(t, nil)
	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	watched := env.createSession(t, "watched")
	other := env.createSession(t, "other")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := readEvents(openStream(t, ctx, ts.URL+sessionPath(watched, "/events")))
	require.Equal(t, "connected", nextEvent(t, events).name)

	env.do(t, http.MethodPost, sessionPath(other, "/messages"), AppendMessageRequest{Text: "elsewhere"}, nil)
	env.do(t, http.MethodPost, sessionPath(watched, "/messages"), AppendMessageRequest{Text: "here"}, nil)

	var payload conversation.Event
	require.NoError(t, json.Unmarshal([]byte(nextEvent(t, events).data), &payload))
	assert.Equal(t, "here", payload.Message.Text)
}

func TestEvents_UnknownSession(t *testing.T) {
	env := newTestEnv(t, nil)
	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	resp := openStream(t, context.Background(), ts.URL+sessionPath(404, "/events"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEvents_Disabled(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.Broadcaster = nil })

	rec := env.do(t, http.MethodGet, sessionPath(1, "/events"), nil, nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestEvents_EndOnShutdown(t *testing.T) {
	env := newTestEnv(t, nil)
	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	id := env.createSession(t, "watched")
	events := readEvents(openStream(t, context.Background(), ts.URL+sessionPath(id, "/events")))
	require.Equal(t, "connected", nextEvent(t, events).name)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	// The httptest server owns the listener; Shutdown still signals streams.
	_ = env.server.Shutdown(ctx)

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end on shutdown")
	}
}
