package model

import "time"

// Normalized task status constants.
const (
	StatusIncomplete = "incomplete"
	StatusComplete   = "complete"
)

// Normalized task priority constants.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Limits applied to task content on every write path.
const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 5000
)

// ValidStatus reports whether s is a recognized task status.
func ValidStatus(s string) bool {
	return s == StatusIncomplete || s == StatusComplete
}

// ValidPriority reports whether p is a recognized task priority.
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Task is a single to-do item owned by exactly one user.
type Task struct {
	// ID is the auto-incremented identifier for this task.
	ID int64 `json:"id" db:"id"`

	// UserID is the owning user. Every read and write is scoped by it.
	UserID string `json:"user_id" db:"user_id"`

	// Title is the short summary of the task (1-255 characters).
	Title string `json:"title" db:"title"`

	// Description is the optional extended text (up to 5000 characters).
	Description string `json:"description,omitempty" db:"description"`

	// Status is "incomplete" or "complete".
	Status string `json:"status" db:"status"`

	// Priority is "low", "medium", or "high".
	Priority string `json:"priority" db:"priority"`

	// CreatedAt is when the task was created (UTC).
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is when the task was last modified (UTC).
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
