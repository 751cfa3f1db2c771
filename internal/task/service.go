// Package task holds the business rules for task CRUD: content limits,
// status and priority vocabulary, and ownership checks. Handlers and
// agent tools both go through it; nothing writes tasks directly.
package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/AyeshaQadir7/taskie-todo-app/internal/model"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/store"
)

// ErrNotFound is returned when a task does not exist or belongs to a
// different user.
var ErrNotFound = errors.New("task not found")

// ValidationError marks input that failed a business rule; handlers map
// it to 400.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// CreateInput holds the fields accepted when creating a task.
type CreateInput struct {
	Title       string
	Description string
	Priority    string
}

// UpdateInput holds the optional fields accepted when updating a task.
// Nil fields are left unchanged.
type UpdateInput struct {
	Title       *string
	Description *string
	Priority    *string
}

// ListFilter controls task listing.
type ListFilter struct {
	Status         string // "", "incomplete", or "complete"
	SortByPriority bool
}

// Service implements task operations over a Store with validation and
// per-user ownership enforcement.
type Service struct {
	store store.Store
}

// NewService creates a task service.
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// Create validates input and creates a task owned by userID.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationErrorf("title is required")
	}
	if utf8.RuneCountInString(in.Title) > model.MaxTitleLength {
		return nil, validationErrorf("title must be %d characters or less", model.MaxTitleLength)
	}
	if utf8.RuneCountInString(in.Description) > model.MaxDescriptionLength {
		return nil, validationErrorf("description must be %d characters or less", model.MaxDescriptionLength)
	}

	priority := in.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !model.ValidPriority(priority) {
		return nil, validationErrorf("invalid priority %q, must be low, medium, or high", priority)
	}

	return s.store.CreateTask(ctx, model.Task{
		UserID:      userID,
		Title:       title,
		Description: in.Description,
		Status:      model.StatusIncomplete,
		Priority:    priority,
	})
}

// List returns the user's tasks matching the filter.
func (s *Service) List(ctx context.Context, userID string, filter ListFilter) ([]model.Task, error) {
	if filter.Status != "" && !model.ValidStatus(filter.Status) {
		return nil, validationErrorf("invalid status %q, must be incomplete or complete", filter.Status)
	}

	sf := store.TaskFilter{SortByPriority: filter.SortByPriority}
	if filter.Status != "" {
		status := filter.Status
		sf.Status = &status
	}

	tasks, err := s.store.GetTasks(ctx, userID, sf)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

// Get returns a single task the user owns.
func (s *Service) Get(ctx context.Context, userID string, id int64) (*model.Task, error) {
	t, err := s.store.GetTaskByID(ctx, id, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return t, err
}

// Update applies a partial update to a task the user owns.
func (s *Service) Update(ctx context.Context, userID string, id int64, in UpdateInput) (*model.Task, error) {
	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, validationErrorf("title must not be empty")
		}
		if utf8.RuneCountInString(*in.Title) > model.MaxTitleLength {
			return nil, validationErrorf("title must be %d characters or less", model.MaxTitleLength)
		}
		current.Title = title
	}
	if in.Description != nil {
		if utf8.RuneCountInString(*in.Description) > model.MaxDescriptionLength {
			return nil, validationErrorf("description must be %d characters or less", model.MaxDescriptionLength)
		}
		current.Description = *in.Description
	}
	if in.Priority != nil {
		if !model.ValidPriority(*in.Priority) {
			return nil, validationErrorf("invalid priority %q, must be low, medium, or high", *in.Priority)
		}
		current.Priority = *in.Priority
	}

	updated, err := s.store.UpdateTask(ctx, *current)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return updated, err
}

// Delete removes a task the user owns.
func (s *Service) Delete(ctx context.Context, userID string, id int64) error {
	err := s.store.DeleteTask(ctx, id, userID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// Complete marks a task complete.
func (s *Service) Complete(ctx context.Context, userID string, id int64) (*model.Task, error) {
	return s.SetStatus(ctx, userID, id, model.StatusComplete)
}

// SetStatus sets a task's status to complete or incomplete.
func (s *Service) SetStatus(ctx context.Context, userID string, id int64, status string) (*model.Task, error) {
	if !model.ValidStatus(status) {
		return nil, validationErrorf("invalid status %q, must be incomplete or complete", status)
	}

	t, err := s.store.SetTaskStatus(ctx, id, userID, status)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return t, err
}
