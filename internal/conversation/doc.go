// Package conversation ties prompt invocation to the conversation store.
//
// # Service
//
//	svc := conversation.New(store, invoker, logger).WithBroadcaster(b)
//	ex, err := svc.Send(ctx, sessionID, "hello")
//
// Send follows one rule: record first, then act. The prompt is stored as a
// "user" message before the tool starts, so a crash or failure still leaves
// the prompt in history. The reply is stored with the "gemini" author tag.
// When the tool fails, the fixed FailureReply text is stored in its place and
// the classified error (quota, launch failure, tool error) is returned along
// with the Exchange so the caller can show both messages and a specific hint.
//
// # Broadcaster
//
// Broadcaster fans recorded messages and session deletions out to every
// client watching a session. It is purely in-memory; a slow subscriber loses
// events rather than blocking the publisher.
package conversation
