package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AyeshaQadir7/taskie-todo-app/internal/model"
)

// CreateConversation inserts a new conversation. Generates a UUID if ID
// is empty.
func (s *SQLiteStore) CreateConversation(
	ctx context.Context,
	conv model.Conversation,
) error {
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = now
	}
	if conv.UpdatedAt.IsZero() {
		conv.UpdatedAt = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, user_id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		conv.ID, conv.UserID, conv.Title, conv.CreatedAt, conv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating conversation %s: %w", conv.ID, err)
	}
	return nil
}

// GetConversation retrieves a conversation by ID, verifying ownership.
func (s *SQLiteStore) GetConversation(
	ctx context.Context,
	id, userID string,
) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.GetContext(ctx, &conv,
		"SELECT * FROM conversations WHERE id = ? AND user_id = ?", id, userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting conversation %s: %w", id, err)
	}
	return &conv, nil
}

// ListConversations retrieves the user's conversations ordered by most
// recent activity first.
func (s *SQLiteStore) ListConversations(
	ctx context.Context,
	userID string,
	filter ConversationFilter,
) ([]model.Conversation, error) {
	query := "SELECT * FROM conversations WHERE user_id = ? ORDER BY updated_at DESC"
	args := []interface{}{userID}

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	var convs []model.Conversation
	if err := s.db.SelectContext(ctx, &convs, query, args...); err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	return convs, nil
}

// TouchConversation bumps a conversation's updated_at to now.
func (s *SQLiteStore) TouchConversation(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE conversations SET updated_at = ? WHERE id = ?",
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("touching conversation %s: %w", id, err)
	}
	return nil
}

// CreateMessage appends a message to a conversation and returns it with
// the assigned ID. The foreign key rejects unknown conversation IDs.
func (s *SQLiteStore) CreateMessage(
	ctx context.Context,
	msg model.Message,
) (*model.Message, error) {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (conversation_id, role, content, created_at)
		VALUES (?, ?, ?, ?)`,
		msg.ConversationID, msg.Role, msg.Content, msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading message id: %w", err)
	}
	msg.ID = id

	return &msg, nil
}

// GetMessages retrieves a conversation's messages in chronological order
// with their tool calls attached. When limit is positive and the
// conversation is longer, only the most recent limit messages are
// returned (still oldest first).
func (s *SQLiteStore) GetMessages(
	ctx context.Context,
	conversationID string,
	limit int,
) ([]model.Message, error) {
	query := "SELECT * FROM messages WHERE conversation_id = ? ORDER BY id ASC"
	args := []interface{}{conversationID}

	if limit > 0 {
		// Inner query takes the newest rows; outer restores order.
		query = `SELECT * FROM (
			SELECT * FROM messages WHERE conversation_id = ? ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`
		args = append(args, limit)
	}

	var messages []model.Message
	if err := s.db.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}

	for i := range messages {
		if messages[i].Role != model.RoleAssistant {
			continue
		}
		calls, err := s.GetToolCallsForMessage(ctx, messages[i].ID)
		if err != nil {
			return nil, err
		}
		messages[i].ToolCalls = calls
	}

	return messages, nil
}

// CreateToolCall records a tool invocation against a message. Rows are
// immutable once written.
func (s *SQLiteStore) CreateToolCall(
	ctx context.Context,
	tc model.ToolCall,
) (*model.ToolCall, error) {
	if tc.ExecutedAt.IsZero() {
		tc.ExecutedAt = time.Now().UTC()
	}
	params := tc.Parameters
	if len(params) == 0 {
		params = []byte("{}")
	}

	var resultJSON interface{}
	if len(tc.Result) > 0 {
		resultJSON = string(tc.Result)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO tool_calls (message_id, tool_name, parameters, result, executed_at)
		VALUES (?, ?, ?, ?, ?)`,
		tc.MessageID, tc.ToolName, string(params), resultJSON, tc.ExecutedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating tool call for message %d: %w", tc.MessageID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading tool call id: %w", err)
	}
	tc.ID = id
	tc.Parameters = params

	return &tc, nil
}

// GetToolCallsForMessage retrieves the tool calls recorded for a message
// in execution order.
func (s *SQLiteStore) GetToolCallsForMessage(
	ctx context.Context,
	messageID int64,
) ([]model.ToolCall, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM tool_calls WHERE message_id = ? ORDER BY id ASC", messageID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying tool calls for message %d: %w", messageID, err)
	}
	defer rows.Close()

	return scanToolCalls(rows)
}

// GetToolCallsForConversation retrieves the full tool-call audit trail
// for a conversation, most recent first.
func (s *SQLiteStore) GetToolCallsForConversation(
	ctx context.Context,
	conversationID string,
) ([]model.ToolCall, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT tc.* FROM tool_calls tc
		JOIN messages m ON m.id = tc.message_id
		WHERE m.conversation_id = ?
		ORDER BY tc.executed_at DESC, tc.id DESC`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying tool calls for conversation %s: %w", conversationID, err)
	}
	defer rows.Close()

	return scanToolCalls(rows)
}

// scanToolCalls converts rows into ToolCall values, mapping the TEXT
// JSON columns onto RawMessage fields.
func scanToolCalls(rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}) ([]model.ToolCall, error) {
	var calls []model.ToolCall
	for rows.Next() {
		var (
			tc         model.ToolCall
			params     string
			resultText sql.NullString
		)
		err := rows.Scan(
			&tc.ID, &tc.MessageID, &tc.ToolName,
			&params, &resultText, &tc.ExecutedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning tool call row: %w", err)
		}
		tc.Parameters = []byte(params)
		if resultText.Valid {
			tc.Result = []byte(resultText.String)
		}
		calls = append(calls, tc)
	}
	return calls, rows.Err()
}
