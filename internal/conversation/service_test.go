// ABOUTME: Tests for Service.Send with a fake prompter and the in-memory store
// ABOUTME: Verifies record-first ordering, failure replies, and broadcast of recorded messages

package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/gemini-bridge/internal/invoke"
	"github.com/2389/gemini-bridge/internal/store"
)

type fakePrompter struct {
	reply   string
	err     error
	prompts []string
	// seen is called when RunPrompt starts, before returning.
	seen func()
}

func (f *fakePrompter) RunPrompt(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.seen != nil {
		f.seen()
	}
	return f.reply, f.err
}

func newSession(t *testing.T, s *store.MockStore) int64 {
	t.Helper()
	id, err := s.CreateSession(context.Background(), "test")
	require.NoError(t, err)
	return id
}

func TestSend_RecordsPromptAndReply(t *testing.T) {
	st := store.NewMockStore()
	id := newSession(t, st)
	p := &fakePrompter{reply: "Hello!"}

	ex, err := New(st, p, nil).Send(context.Background(), id, "hi")

	require.NoError(t, err)
	require.NotNil(t, ex.Reply)
	assert.Equal(t, "hi", ex.Prompt.Text)
	assert.Equal(t, store.AuthorUser, ex.Prompt.Author)
	assert.Equal(t, "Hello!", ex.Reply.Text)
	assert.Equal(t, store.AuthorTool, ex.Reply.Author)
	assert.Equal(t, []string{"hi"}, p.prompts)

	msgs, err := st.ListMessages(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Text)
	assert.Equal(t, "Hello!", msgs[1].Text)
}

func TestSend_PromptRecordedBeforeToolRuns(t *testing.T) {
	st := store.NewMockStore()
	id := newSession(t, st)

	var countAtRun int
	p := &fakePrompter{reply: "ok"}
	p.seen = func() {
		msgs, _ := st.ListMessages(context.Background(), id)
		countAtRun = len(msgs)
	}

	_, err := New(st, p, nil).Send(context.Background(), id, "hi")
	require.NoError(t, err)
	assert.Equal(t, 1, countAtRun)
}

func TestSend_ToolFailureStoresFailureReply(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"quota", invoke.ErrQuotaExceeded},
		{"tool error", &invoke.ToolError{ExitCode: 1, Stderr: "boom"}},
		{"launch", &invoke.LaunchError{Program: "gemini", Err: errors.New("not found")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := store.NewMockStore()
			id := newSession(t, st)

			ex, err := New(st, &fakePrompter{err: tt.err}, nil).Send(context.Background(), id, "hi")

			assert.ErrorIs(t, err, tt.err)
			require.NotNil(t, ex)
			require.NotNil(t, ex.Reply)
			assert.Equal(t, FailureReply, ex.Reply.Text)
			assert.Equal(t, store.AuthorTool, ex.Reply.Author)

			msgs, _ := st.ListMessages(context.Background(), id)
			assert.Len(t, msgs, 2)
		})
	}
}

func TestSend_QuotaStaysDistinguishable(t *testing.T) {
	st := store.NewMockStore()
	id := newSession(t, st)

	_, err := New(st, &fakePrompter{err: invoke.ErrQuotaExceeded}, nil).Send(context.Background(), id, "hi")

	assert.True(t, errors.Is(err, invoke.ErrQuotaExceeded))
	var toolErr *invoke.ToolError
	assert.False(t, errors.As(err, &toolErr))
}

func TestSend_UnknownSessionDoesNotRunTool(t *testing.T) {
	st := store.NewMockStore()
	p := &fakePrompter{reply: "never"}

	ex, err := New(st, p, nil).Send(context.Background(), 404, "hi")

	assert.Nil(t, ex)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
	assert.Empty(t, p.prompts)
}

func TestSend_ReplyStoreFailureKeepsToolError(t *testing.T) {
	st := store.NewMockStore()
	id := newSession(t, st)
	diskFull := errors.New("disk full")
	st.AppendErr = func(_ int64, author string) error {
		if author == store.AuthorTool {
			return diskFull
		}
		return nil
	}

	ex, err := New(st, &fakePrompter{err: invoke.ErrQuotaExceeded}, nil).Send(context.Background(), id, "hi")

	require.NotNil(t, ex)
	assert.NotNil(t, ex.Prompt)
	assert.Nil(t, ex.Reply)
	assert.ErrorIs(t, err, invoke.ErrQuotaExceeded)
	assert.ErrorIs(t, err, diskFull)
}

func TestSend_PublishesRecordedMessages(t *testing.T) {
	st := store.NewMockStore()
	id := newSession(t, st)
	b := NewBroadcaster(nil)
	defer b.Close()

	ch, _ := b.Subscribe(t.Context(), id)
	svc := New(st, &fakePrompter{reply: "Hello!"}, nil).WithBroadcaster(b)

	_, err := svc.Send(context.Background(), id, "hi")
	require.NoError(t, err)

	first := receive(t, ch)
	second := receive(t, ch)
	assert.Equal(t, EventMessage, first.Kind)
	assert.Equal(t, "hi", first.Message.Text)
	assert.Equal(t, "Hello!", second.Message.Text)
}

func TestRecordAndDelete(t *testing.T) {
	st := store.NewMockStore()
	id := newSession(t, st)
	b := NewBroadcaster(nil)
	defer b.Close()

	ch, _ := b.Subscribe(t.Context(), id)
	svc := New(st, &fakePrompter{}, nil).WithBroadcaster(b)

	msg, err := svc.Record(context.Background(), id, "note", "assistant")
	require.NoError(t, err)
	assert.Equal(t, "assistant", msg.Author)
	assert.Equal(t, "note", receive(t, ch).Message.Text)

	_, err = svc.Record(context.Background(), id+1, "x", store.AuthorUser)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)

	require.NoError(t, svc.DeleteSession(context.Background(), id))
	ev := receive(t, ch)
	assert.Equal(t, EventDeleted, ev.Kind)
	assert.Nil(t, ev.Message)

	msgs, _ := st.ListMessages(context.Background(), id)
	assert.Empty(t, msgs)
}
