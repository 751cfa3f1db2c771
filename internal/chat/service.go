// Package chat implements the stateless conversation flow: every
// request persists the user message, reconstructs the full history from
// the database, runs the agent, and persists the reply with its
// tool-call audit records. The server keeps no conversation state in
// memory, so any replica can serve any request and a crash mid-request
// leaves a cleanly replayable prefix.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AyeshaQadir7/taskie-todo-app/internal/agent"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/model"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/store"
)

// Message length bounds, matching the task tool limits.
const (
	minMessageLength = 1
	maxMessageLength = 5000
)

// titleLimit caps the conversation title derived from the first message.
const titleLimit = 60

var (
	// ErrConversationNotFound is returned when the conversation ID is
	// unknown or owned by another user.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrAgentTimeout is returned when the agent misses its deadline.
	ErrAgentTimeout = errors.New("agent timeout")
)

// ValidationError marks a bad chat request; handlers map it to 400.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// IsValidation reports whether err is a chat validation error.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Runner is the agent abstraction the chat service drives. Implemented
// by *agent.Agent; replaced by a stub in tests.
type Runner interface {
	ProcessMessage(ctx context.Context, userID string, history []model.Message) (*agent.Result, error)
}

// Reply is the outcome of one chat turn: the conversation and its full
// message history, tool calls included.
type Reply struct {
	ConversationID string
	Messages       []model.Message
}

// Service orchestrates the per-request conversation cycle.
type Service struct {
	store      store.Store
	runner     Runner
	timeout    time.Duration
	historyMax int
	logger     *zap.Logger
}

// NewService creates a chat service. timeout bounds agent execution;
// historyMax bounds how many prior messages are replayed to the agent.
func NewService(
	s store.Store,
	runner Runner,
	timeout time.Duration,
	historyMax int,
	logger *zap.Logger,
) *Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if historyMax <= 0 {
		historyMax = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      s,
		runner:     runner,
		timeout:    timeout,
		historyMax: historyMax,
		logger:     logger,
	}
}

// Send processes one chat turn for userID. When conversationID is empty
// a new conversation is created; otherwise it must exist and belong to
// the user. The returned Reply carries the full conversation history in
// chronological order.
func (s *Service) Send(
	ctx context.Context,
	userID, conversationID, message string,
) (*Reply, error) {
	trimmed := strings.TrimSpace(message)
	if len(trimmed) < minMessageLength {
		return nil, &ValidationError{msg: "message must not be empty"}
	}
	if utf8.RuneCountInString(message) > maxMessageLength {
		return nil, &ValidationError{msg: fmt.Sprintf("message must be %d characters or less", maxMessageLength)}
	}

	conv, err := s.getOrCreateConversation(ctx, userID, conversationID, trimmed)
	if err != nil {
		return nil, err
	}

	// Persist the user message before the agent runs. If anything
	// fails past this point the turn can be replayed without loss.
	userMsg, err := s.store.CreateMessage(ctx, model.Message{
		ConversationID: conv.ID,
		Role:           model.RoleUser,
		Content:        trimmed,
	})
	if err != nil {
		return nil, fmt.Errorf("persisting user message: %w", err)
	}

	history, err := s.store.GetMessages(ctx, conv.ID, s.historyMax)
	if err != nil {
		return nil, fmt.Errorf("reconstructing history: %w", err)
	}

	s.logger.Info("invoking agent",
		zap.String("conversation_id", conv.ID),
		zap.Int("history_messages", len(history)),
	)

	result, err := s.runAgent(ctx, userID, history)
	if err != nil {
		return nil, err
	}

	assistantMsg, err := s.store.CreateMessage(ctx, model.Message{
		ConversationID: conv.ID,
		Role:           model.RoleAssistant,
		Content:        result.Content,
	})
	if err != nil {
		return nil, fmt.Errorf("persisting assistant message: %w", err)
	}

	for _, tc := range result.ToolCalls {
		if _, err := s.store.CreateToolCall(ctx, model.ToolCall{
			MessageID:  assistantMsg.ID,
			ToolName:   tc.ToolName,
			Parameters: tc.Parameters,
			Result:     tc.Result,
		}); err != nil {
			return nil, fmt.Errorf("persisting tool call: %w", err)
		}
	}

	if err := s.store.TouchConversation(ctx, conv.ID); err != nil {
		return nil, err
	}

	messages, err := s.store.GetMessages(ctx, conv.ID, 0)
	if err != nil {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}

	s.logger.Info("chat turn completed",
		zap.String("conversation_id", conv.ID),
		zap.Int64("user_message_id", userMsg.ID),
		zap.Int64("assistant_message_id", assistantMsg.ID),
		zap.Int("tool_calls", len(result.ToolCalls)),
	)

	return &Reply{ConversationID: conv.ID, Messages: messages}, nil
}

// History returns a conversation's messages in chronological order with
// tool calls attached, after verifying ownership.
func (s *Service) History(
	ctx context.Context,
	userID, conversationID string,
) (*Reply, error) {
	conv, err := s.store.GetConversation(ctx, conversationID, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, err
	}

	messages, err := s.store.GetMessages(ctx, conv.ID, 0)
	if err != nil {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}

	return &Reply{ConversationID: conv.ID, Messages: messages}, nil
}

// List returns the user's conversations, most recently active first.
func (s *Service) List(
	ctx context.Context,
	userID string,
	limit, offset int,
) ([]model.Conversation, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	convs, err := s.store.ListConversations(ctx, userID, store.ConversationFilter{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []model.Conversation{}
	}
	return convs, nil
}

// getOrCreateConversation loads an existing conversation with an
// ownership check, or creates a new one titled after the first message.
func (s *Service) getOrCreateConversation(
	ctx context.Context,
	userID, conversationID, firstMessage string,
) (*model.Conversation, error) {
	if conversationID != "" {
		conv, err := s.store.GetConversation(ctx, conversationID, userID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		if err != nil {
			return nil, err
		}
		return conv, nil
	}

	conv := model.Conversation{
		ID:     uuid.New().String(),
		UserID: userID,
		Title:  deriveTitle(firstMessage),
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// runAgent executes the agent under the configured timeout.
func (s *Service) runAgent(
	ctx context.Context,
	userID string,
	history []model.Message,
) (*agent.Result, error) {
	agentCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.runner.ProcessMessage(agentCtx, userID, history)
	if err != nil {
		if errors.Is(agentCtx.Err(), context.DeadlineExceeded) {
			return nil, ErrAgentTimeout
		}
		return nil, fmt.Errorf("agent execution: %w", err)
	}
	return result, nil
}

// deriveTitle truncates the first user message into a conversation
// title. Truncation counts runes so multibyte text is never split.
func deriveTitle(message string) string {
	title := strings.TrimSpace(message)
	runes := []rune(title)
	if len(runes) > titleLimit {
		title = string(runes[:titleLimit-3]) + "..."
	}
	return title
}
