package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AyeshaQadir7/taskie-todo-app/internal/model"
)

// CreateTask inserts a new task and returns it with the assigned ID and
// timestamps. Status and priority fall back to their defaults when empty.
func (s *SQLiteStore) CreateTask(
	ctx context.Context,
	task model.Task,
) (*model.Task, error) {
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = model.StatusIncomplete
	}
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (user_id, title, description, status, priority, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		task.UserID, task.Title, task.Description, task.Status, task.Priority,
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading task id: %w", err)
	}
	task.ID = id

	return &task, nil
}

// GetTasks retrieves all tasks owned by userID matching the filter.
// Default order is created_at DESC; priority sort orders high before
// medium before low, then created_at DESC within each group.
func (s *SQLiteStore) GetTasks(
	ctx context.Context,
	userID string,
	filter TaskFilter,
) ([]model.Task, error) {
	query := "SELECT * FROM tasks WHERE user_id = ?"
	args := []interface{}{userID}

	if filter.Status != nil {
		query += " AND status = ?"
		args = append(args, *filter.Status)
	}

	if filter.SortByPriority {
		query += ` ORDER BY CASE priority
			WHEN 'high' THEN 0
			WHEN 'medium' THEN 1
			ELSE 2
		END, created_at DESC`
	} else {
		query += " ORDER BY created_at DESC"
	}

	var tasks []model.Task
	if err := s.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}

	return tasks, nil
}

// GetTaskByID retrieves a single task, verifying ownership. A task owned
// by a different user is indistinguishable from a missing one.
func (s *SQLiteStore) GetTaskByID(
	ctx context.Context,
	id int64,
	userID string,
) (*model.Task, error) {
	var task model.Task
	err := s.db.GetContext(ctx, &task,
		"SELECT * FROM tasks WHERE id = ? AND user_id = ?", id, userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %d: %w", id, err)
	}
	return &task, nil
}

// UpdateTask writes title, description, and priority for a task the user
// owns, refreshing updated_at.
func (s *SQLiteStore) UpdateTask(
	ctx context.Context,
	task model.Task,
) (*model.Task, error) {
	task.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, priority = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		task.Title, task.Description, task.Priority, task.UpdatedAt,
		task.ID, task.UserID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating task %d: %w", task.ID, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, ErrNotFound
	}

	return s.GetTaskByID(ctx, task.ID, task.UserID)
}

// DeleteTask removes a task the user owns.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id int64, userID string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM tasks WHERE id = ? AND user_id = ?", id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting task %d: %w", id, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// SetTaskStatus sets a task's status and returns the updated row.
func (s *SQLiteStore) SetTaskStatus(
	ctx context.Context,
	id int64,
	userID, status string,
) (*model.Task, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET status = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		status, time.Now().UTC(), id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("setting status for task %d: %w", id, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, ErrNotFound
	}

	return s.GetTaskByID(ctx, id, userID)
}
