package local

import (
	"fmt"
	"strings"
)

// Service wraps Storage with validation and the user-facing confirmation
// messages the terminal UI displays.
type Service struct {
	storage *Storage
}

// NewService creates a local task service over fresh storage.
func NewService() *Service {
	return &Service{storage: NewStorage()}
}

// Add creates a task after trimming and validating the title.
func (s *Service) Add(title string) (Task, string, error) {
	clean := strings.TrimSpace(title)
	if clean == "" {
		return Task{}, "", fmt.Errorf("Task title cannot be empty. Please try again.")
	}

	task := s.storage.Add(Task{Title: clean, Priority: "medium"})
	msg := fmt.Sprintf("✓ Task added: Task #%d: %s", task.ID, task.Title)
	return task, msg, nil
}

// SetDetails sets a task's description and priority. An empty priority
// keeps the default.
func (s *Service) SetDetails(id int, description, priority string) (Task, error) {
	if err := s.requireExists(id); err != nil {
		return Task{}, err
	}

	if priority == "" {
		priority = "medium"
	}
	switch priority {
	case "low", "medium", "high":
	default:
		return Task{}, fmt.Errorf("invalid priority %q, must be low, medium, or high", priority)
	}

	s.storage.SetDetails(id, description, priority)
	task, _ := s.storage.Get(id)
	return task, nil
}

// List returns all tasks in insertion order.
func (s *Service) List() []Task {
	return s.storage.All()
}

// Update changes a task's title.
func (s *Service) Update(id int, title string) (Task, string, error) {
	if err := s.requireExists(id); err != nil {
		return Task{}, "", err
	}

	clean := strings.TrimSpace(title)
	if clean == "" {
		return Task{}, "", fmt.Errorf("Task title cannot be empty. Please try again.")
	}

	s.storage.SetTitle(id, clean)
	task, _ := s.storage.Get(id)
	return task, fmt.Sprintf("✓ Task #%d updated: %s", id, task.Title), nil
}

// Delete removes a task.
func (s *Service) Delete(id int) (string, error) {
	if err := s.requireExists(id); err != nil {
		return "", err
	}

	s.storage.Delete(id)
	remaining := len(s.storage.IDs())
	return fmt.Sprintf("✓ Task #%d deleted. %d task(s) remaining.", id, remaining), nil
}

// Complete marks a task as complete.
func (s *Service) Complete(id int) (Task, string, error) {
	if err := s.requireExists(id); err != nil {
		return Task{}, "", err
	}

	s.storage.SetCompleted(id, true)
	task, _ := s.storage.Get(id)
	return task, fmt.Sprintf("✓ Task #%d marked as complete.", id), nil
}

// Incomplete marks a task as not complete.
func (s *Service) Incomplete(id int) (Task, string, error) {
	if err := s.requireExists(id); err != nil {
		return Task{}, "", err
	}

	s.storage.SetCompleted(id, false)
	task, _ := s.storage.Get(id)
	return task, fmt.Sprintf("✓ Task #%d marked as incomplete.", id), nil
}

func (s *Service) requireExists(id int) error {
	ids := s.storage.IDs()
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	return fmt.Errorf("Task ID %d not found. Available IDs: %v", id, ids)
}
