// Package store provides persistent conversation storage using SQLite.
//
// # Data Models
//
//   - Session: a named conversation with created/updated timestamps
//   - Message: one transcript entry with a free-text author tag
//
// The author tag is stored verbatim in the from_user column. Message.Role
// gives the closed view used by renderers: the exact tag "user" is RoleUser,
// anything else is RoleTool. The bridge itself writes AuthorUser and
// AuthorTool.
//
// # Schema
//
//	sessions(id INTEGER PK AUTOINCREMENT, name, created_at, updated_at)
//	messages(id INTEGER PK AUTOINCREMENT, session_id, text, from_user, timestamp,
//	         FOREIGN KEY(session_id) REFERENCES sessions(id) ON DELETE CASCADE)
//
// Timestamps are UTC text in a fixed-width layout with nanoseconds, so
// ORDER BY timestamp sorts chronologically.
//
// # Invariants
//
//   - AppendMessage on a missing session returns ErrSessionNotFound and
//     writes nothing.
//   - AppendMessage refreshes the owning session's updated_at in the same
//     transaction.
//   - DeleteSession removes the session and its messages in one transaction
//     and is a no-op for unknown ids.
//
// Foreign keys are enabled through the connection DSN, so every pooled
// connection enforces them.
//
// # Usage
//
//	s, err := store.NewSQLiteStore(path)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	id, _ := s.CreateSession(ctx, "Trip planning")
//	_, err = s.AppendMessage(ctx, id, "hi", store.AuthorUser)
//
// MockStore is an in-memory implementation with the same semantics for tests
// in other packages.
package store
