// ABOUTME: Store interface and data types for gemini-bridge persistence
// ABOUTME: Defines Session, Message, the closed Role view of author tags, and store errors

package store

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned when an operation references a session that
// does not exist.
var ErrSessionNotFound = errors.New("session not found")

// Author tags written by the bridge. The column is free text; other values are
// accepted and read back as RoleTool.
const (
	AuthorUser = "user"
	AuthorTool = "gemini"
)

// Role is the closed view of a message's author tag.
type Role int

const (
	RoleUser Role = iota
	RoleTool
)

func (r Role) String() string {
	if r == RoleUser {
		return "user"
	}
	return "tool"
}

// RoleOf maps a stored author tag to a Role. Only the exact tag "user" is a
// user message.
func RoleOf(author string) Role {
	if author == AuthorUser {
		return RoleUser
	}
	return RoleTool
}

// Session is a named conversation.
type Session struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"` // refreshed on every appended message
}

// Message is one entry in a session's transcript.
type Message struct {
	ID        int64     `json:"id"`
	SessionID int64     `json:"session_id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"` // raw tag as stored, see Role
	Timestamp time.Time `json:"timestamp"`
}

// Role returns the closed view of the message's author tag.
func (m *Message) Role() Role {
	return RoleOf(m.Author)
}

// Store defines the interface for conversation persistence.
type Store interface {
	// CreateSession inserts a session and returns its id.
	CreateSession(ctx context.Context, name string) (int64, error)

	// GetSession returns ErrSessionNotFound when id does not exist.
	GetSession(ctx context.Context, id int64) (*Session, error)

	// ListSessions returns every session in creation order.
	ListSessions(ctx context.Context) ([]*Session, error)

	// AppendMessage returns ErrSessionNotFound when sessionID does not exist,
	// and nothing is written.
	AppendMessage(ctx context.Context, sessionID int64, text, author string) (*Message, error)

	// ListMessages returns a session's messages in insertion order. An
	// unknown session yields an empty slice.
	ListMessages(ctx context.Context, sessionID int64) ([]*Message, error)

	// ListMessagesByTime returns a session's messages ordered by timestamp,
	// ties broken by id.
	ListMessagesByTime(ctx context.Context, sessionID int64) ([]*Message, error)

	// DeleteSession removes a session and all of its messages. Deleting a
	// missing id is a no-op.
	DeleteSession(ctx context.Context, id int64) error

	Close() error
}
