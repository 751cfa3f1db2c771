package store

import (
	"context"
	"errors"

	"github.com/AyeshaQadir7/taskie-todo-app/internal/model"
)

// ErrNotFound is returned when a row does not exist or is owned by a
// different user. Callers cannot distinguish the two cases.
var ErrNotFound = errors.New("not found")

// TaskFilter controls filtering and sorting for task list queries.
type TaskFilter struct {
	Status         *string // "incomplete", "complete", or nil (all)
	SortByPriority bool    // high -> medium -> low, then created_at DESC
}

// ConversationFilter controls pagination for conversation listings.
type ConversationFilter struct {
	Limit  int
	Offset int
}

// Store defines the persistence interface for users, tasks, and the
// conversation audit trail. Every task/conversation operation is scoped
// by the owning user's ID.
type Store interface {
	// === Users ===

	CreateUser(ctx context.Context, user model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)

	// === Tasks ===

	CreateTask(ctx context.Context, task model.Task) (*model.Task, error)
	GetTasks(ctx context.Context, userID string, filter TaskFilter) ([]model.Task, error)
	GetTaskByID(ctx context.Context, id int64, userID string) (*model.Task, error)
	UpdateTask(ctx context.Context, task model.Task) (*model.Task, error)
	DeleteTask(ctx context.Context, id int64, userID string) error
	SetTaskStatus(ctx context.Context, id int64, userID, status string) (*model.Task, error)

	// === Conversations ===

	CreateConversation(ctx context.Context, conv model.Conversation) error
	GetConversation(ctx context.Context, id, userID string) (*model.Conversation, error)
	ListConversations(ctx context.Context, userID string, filter ConversationFilter) ([]model.Conversation, error)
	TouchConversation(ctx context.Context, id string) error

	// === Messages ===

	CreateMessage(ctx context.Context, msg model.Message) (*model.Message, error)
	GetMessages(ctx context.Context, conversationID string, limit int) ([]model.Message, error)

	// === Tool calls ===

	CreateToolCall(ctx context.Context, tc model.ToolCall) (*model.ToolCall, error)
	GetToolCallsForMessage(ctx context.Context, messageID int64) ([]model.ToolCall, error)
	GetToolCallsForConversation(ctx context.Context, conversationID string) ([]model.ToolCall, error)
}
