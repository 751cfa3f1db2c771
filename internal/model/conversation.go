package model

import (
	"encoding/json"
	"time"
)

// Message role constants.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation is a multi-turn exchange between one user and the agent.
// The server never holds it in memory; it is reconstructed from the
// database on every chat request.
type Conversation struct {
	// ID is a UUID so conversations can be created on any replica
	// without coordination.
	ID string `json:"id" db:"id"`

	// UserID is the owning user; the foreign key keeps foreign
	// conversation IDs unreachable.
	UserID string `json:"user_id" db:"user_id"`

	// Title is derived from the first user message when not set.
	Title string `json:"title,omitempty" db:"title"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Message is a single user or assistant turn within a conversation.
type Message struct {
	ID             int64     `json:"id" db:"id"`
	ConversationID string    `json:"conversation_id" db:"conversation_id"`
	Role           string    `json:"role" db:"role"`
	Content        string    `json:"content" db:"content"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`

	// ToolCalls are the audit records attached to an assistant message.
	// Populated on history reads, empty for user messages.
	ToolCalls []ToolCall `json:"tool_calls,omitempty" db:"-"`
}

// ToolCall records one task-tool invocation made by the agent while
// producing a message. Parameters and Result hold the raw JSON payloads;
// rows are written once and never updated.
type ToolCall struct {
	ID         int64           `json:"id" db:"id"`
	MessageID  int64           `json:"message_id" db:"message_id"`
	ToolName   string          `json:"tool_name" db:"tool_name"`
	Parameters json.RawMessage `json:"parameters" db:"parameters"`
	Result     json.RawMessage `json:"result,omitempty" db:"result"`
	ExecutedAt time.Time       `json:"executed_at" db:"executed_at"`
}
