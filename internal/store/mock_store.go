// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite, with optional injected append failures

package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	messages map[int64][]*Message // keyed by session ID
	nextSess int64
	nextMsg  int64
	now      func() time.Time

	// AppendErr, when set, is consulted before every append; a non-nil
	// return fails the append without writing.
	AppendErr func(sessionID int64, author string) error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		sessions: make(map[int64]*Session),
		messages: make(map[int64][]*Message),
		now:      time.Now,
	}
}

// CreateSession stores a new session.
func (m *MockStore) CreateSession(ctx context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSess++
	now := m.now().UTC()
	m.sessions[m.nextSess] = &Session{ID: m.nextSess, Name: name, CreatedAt: now, UpdatedAt: now}
	return m.nextSess, nil
}

// GetSession retrieves a session by ID.
func (m *MockStore) GetSession(ctx context.Context, id int64) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	// Return a copy
	result := *s
	return &result, nil
}

// ListSessions returns sessions in id order.
func (m *MockStore) ListSessions(ctx context.Context) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessCopy := *s
		sessions = append(sessions, &sessCopy)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })
	return sessions, nil
}

// AppendMessage stores a message.
func (m *MockStore) AppendMessage(ctx context.Context, sessionID int64, text, author string) (*Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.AppendErr != nil {
		if err := m.AppendErr(sessionID, author); err != nil {
			return nil, err
		}
	}

	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	m.nextMsg++
	now := m.now().UTC()
	msg := &Message{ID: m.nextMsg, SessionID: sessionID, Text: text, Author: author, Timestamp: now}
	m.messages[sessionID] = append(m.messages[sessionID], msg)
	sess.UpdatedAt = now

	msgCopy := *msg
	return &msgCopy, nil
}

// ListMessages returns a session's messages in insertion order.
func (m *MockStore) ListMessages(ctx context.Context, sessionID int64) ([]*Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.copyMessages(sessionID), nil
}

// ListMessagesByTime returns a session's messages ordered by timestamp then id.
func (m *MockStore) ListMessagesByTime(ctx context.Context, sessionID int64) ([]*Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	msgs := m.copyMessages(sessionID)
	sort.SliceStable(msgs, func(i, j int) bool {
		if !msgs[i].Timestamp.Equal(msgs[j].Timestamp) {
			return msgs[i].Timestamp.Before(msgs[j].Timestamp)
		}
		return msgs[i].ID < msgs[j].ID
	})
	return msgs, nil
}

func (m *MockStore) copyMessages(sessionID int64) []*Message {
	msgs := m.messages[sessionID]
	result := make([]*Message, len(msgs))
	for i, msg := range msgs {
		msgCopy := *msg
		result[i] = &msgCopy
	}
	return result
}

// DeleteSession removes a session and its messages. Missing ids are a no-op.
func (m *MockStore) DeleteSession(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.messages, id)
	delete(m.sessions, id)
	return nil
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}

// Ensure MockStore implements Store
var _ Store = (*MockStore)(nil)
