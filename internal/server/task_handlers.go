package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AyeshaQadir7/taskie-todo-app/internal/auth"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/task"
)

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.FromContext(r.Context())

	var req createTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	created, err := s.tasks.Create(r.Context(), user.ID, task.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		s.respondTaskError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.FromContext(r.Context())

	filter := task.ListFilter{
		Status:         r.URL.Query().Get("status"),
		SortByPriority: r.URL.Query().Get("sort") == "priority",
	}

	tasks, err := s.tasks.List(r.Context(), user.ID, filter)
	if err != nil {
		s.respondTaskError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.FromContext(r.Context())
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	t, err := s.tasks.Get(r.Context(), user.ID, id)
	if err != nil {
		s.respondTaskError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.FromContext(r.Context())
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var req updateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := s.tasks.Update(r.Context(), user.ID, id, task.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		s.respondTaskError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.FromContext(r.Context())
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if err := s.tasks.Delete(r.Context(), user.ID, id); err != nil {
		s.respondTaskError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.FromContext(r.Context())
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	t, err := s.tasks.Complete(r.Context(), user.ID, id)
	if err != nil {
		s.respondTaskError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, t)
}

func (s *Server) handleSetTaskStatus(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.FromContext(r.Context())
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var req setStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	t, err := s.tasks.SetStatus(r.Context(), user.ID, id, req.Status)
	if err != nil {
		s.respondTaskError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, t)
}

// taskID parses the {taskID} path parameter, writing a 400 on failure.
func taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "taskID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		respondError(w, http.StatusBadRequest, "invalid task id")
		return 0, false
	}
	return id, true
}

func (s *Server) respondTaskError(w http.ResponseWriter, err error) {
	switch {
	case task.IsValidation(err):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, task.ErrNotFound):
		respondError(w, http.StatusNotFound, "task not found")
	default:
		s.logger.Error("task operation failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
