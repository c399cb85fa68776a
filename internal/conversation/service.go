// ABOUTME: Service records a prompt, runs it through the tool, and records the reply
// ABOUTME: Record first, then act: the user message is stored before the tool is started

package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/2389/gemini-bridge/internal/store"
)

// FailureReply is stored as the tool's reply when a run fails.
const FailureReply = "An error occurred while processing your request."

// MessageStore defines what the service needs from storage.
type MessageStore interface {
	AppendMessage(ctx context.Context, sessionID int64, text, author string) (*store.Message, error)
	DeleteSession(ctx context.Context, id int64) error
}

// Prompter runs one prompt through the external tool.
type Prompter interface {
	RunPrompt(ctx context.Context, prompt string) (string, error)
}

// Service is the conversation layer shared by the CLI and the HTTP API.
type Service struct {
	store       MessageStore
	prompter    Prompter
	broadcaster *Broadcaster
	logger      *slog.Logger
}

// New creates a new conversation Service.
func New(store MessageStore, prompter Prompter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		prompter: prompter,
		logger:   logger.With("component", "conversation"),
	}
}

// WithBroadcaster publishes every recorded message to b.
func (s *Service) WithBroadcaster(b *Broadcaster) *Service {
	s.broadcaster = b
	return s
}

// Exchange is the pair of messages recorded by one Send.
type Exchange struct {
	Prompt *store.Message `json:"prompt"`
	Reply  *store.Message `json:"reply,omitempty"`
}

// Send records prompt as a user message, runs it, and records the reply.
//
// If the prompt cannot be recorded the tool is not run. If the tool fails,
// FailureReply is recorded and the classified tool error is returned together
// with the Exchange.
func (s *Service) Send(ctx context.Context, sessionID int64, prompt string) (*Exchange, error) {
	userMsg, err := s.store.AppendMessage(ctx, sessionID, prompt, store.AuthorUser)
	if err != nil {
		return nil, fmt.Errorf("recording prompt: %w", err)
	}
	s.publish(userMsg)

	s.logger.Debug("user message recorded", "session_id", sessionID, "message_id", userMsg.ID)

	reply, runErr := s.prompter.RunPrompt(ctx, prompt)
	if runErr != nil {
		s.logger.Warn("prompt failed", "session_id", sessionID, "error", runErr)
		reply = FailureReply
	}

	ex := &Exchange{Prompt: userMsg}
	replyMsg, err := s.store.AppendMessage(ctx, sessionID, reply, store.AuthorTool)
	if err != nil {
		err = fmt.Errorf("recording reply: %w", err)
		if runErr != nil {
			err = errors.Join(runErr, err)
		}
		return ex, err
	}
	ex.Reply = replyMsg
	s.publish(replyMsg)

	s.logger.Debug("reply recorded", "session_id", sessionID, "message_id", replyMsg.ID, "failed", runErr != nil)
	return ex, runErr
}

// Record appends a message without running the tool.
func (s *Service) Record(ctx context.Context, sessionID int64, text, author string) (*store.Message, error) {
	msg, err := s.store.AppendMessage(ctx, sessionID, text, author)
	if err != nil {
		return nil, err
	}
	s.publish(msg)
	return msg, nil
}

// DeleteSession removes the session and notifies watchers.
func (s *Service) DeleteSession(ctx context.Context, sessionID int64) error {
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	if s.broadcaster != nil {
		s.broadcaster.Publish(&Event{Kind: EventDeleted, SessionID: sessionID})
	}
	return nil
}

func (s *Service) publish(msg *store.Message) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Publish(&Event{Kind: EventMessage, SessionID: msg.SessionID, Message: msg})
}
