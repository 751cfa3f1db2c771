// Package local implements the single-user, in-memory todo session used
// by the terminal UI. Nothing here touches the database; IDs are
// sequential and state is lost when the process exits.
package local

import "sync"

// Task is a single todo item in a local session.
type Task struct {
	ID          int
	Title       string
	Description string
	Priority    string
	Completed   bool
}

// Storage holds the in-memory task list and generates sequential IDs.
// It has no validation; business rules live in Service.
type Storage struct {
	mu     sync.Mutex
	tasks  []Task
	nextID int
}

// NewStorage creates an empty storage with IDs starting at 1.
func NewStorage() *Storage {
	return &Storage{nextID: 1}
}

// Add assigns the next sequential ID and appends the task.
func (s *Storage) Add(task Task) Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	task.ID = s.nextID
	s.nextID++
	s.tasks = append(s.tasks, task)
	return task
}

// All returns the tasks in insertion order.
func (s *Storage) All() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Get returns the task with the given ID, if present.
func (s *Storage) Get(id int) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// SetTitle updates a task's title. Reports whether the task existed.
func (s *Storage) SetTitle(id int, title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i].Title = title
			return true
		}
	}
	return false
}

// SetDetails updates a task's description and priority. Reports whether
// the task existed.
func (s *Storage) SetDetails(id int, description, priority string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i].Description = description
			s.tasks[i].Priority = priority
			return true
		}
	}
	return false
}

// SetCompleted updates a task's completion flag. Reports whether the
// task existed.
func (s *Storage) SetCompleted(id int, completed bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i].Completed = completed
			return true
		}
	}
	return false
}

// Delete removes a task by ID. Reports whether the task existed.
func (s *Storage) Delete(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return true
		}
	}
	return false
}

// IDs returns all task IDs, used in not-found messages.
func (s *Storage) IDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int, len(s.tasks))
	for i, t := range s.tasks {
		ids[i] = t.ID
	}
	return ids
}
