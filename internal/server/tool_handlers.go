package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AyeshaQadir7/taskie-todo-app/internal/model"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/task"
)

// toolRequest is the envelope the agent POSTs to /tools/{name}. The
// user ID was resolved from the bearer token at chat time.
type toolRequest struct {
	UserID    string          `json:"user_id"`
	Arguments json.RawMessage `json:"arguments"`
}

// toolResponse is the envelope every tool returns. The agent relays it
// to the model verbatim, so failures are data, not transport errors.
type toolResponse struct {
	Status    string      `json:"status"` // "success" or "error"
	Result    interface{} `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorCode string      `json:"error_code,omitempty"`
}

// toolTask is the task shape tools return: status translated to the
// pending/completed vocabulary the agent's tool schemas use.
type toolTask struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
}

func (s *Server) handleToolInvoke(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req toolRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	var (
		result interface{}
		err    error
	)
	switch name {
	case "add_task":
		result, err = s.toolAddTask(r, req)
	case "list_tasks":
		result, err = s.toolListTasks(r, req)
	case "complete_task":
		result, err = s.toolCompleteTask(r, req)
	case "update_task":
		result, err = s.toolUpdateTask(r, req)
	case "delete_task":
		result, err = s.toolDeleteTask(r, req)
	default:
		respondError(w, http.StatusNotFound, fmt.Sprintf("unknown tool %q", name))
		return
	}

	if err != nil {
		s.respondToolError(w, name, err)
		return
	}

	respondJSON(w, http.StatusOK, toolResponse{Status: "success", Result: result})
}

type addTaskArgs struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

func (s *Server) toolAddTask(r *http.Request, req toolRequest) (interface{}, error) {
	var args addTaskArgs
	if err := unmarshalArgs(req.Arguments, &args); err != nil {
		return nil, err
	}

	created, err := s.tasks.Create(r.Context(), req.UserID, task.CreateInput{
		Title:       args.Title,
		Description: args.Description,
		Priority:    args.Priority,
	})
	if err != nil {
		return nil, err
	}
	return asToolTask(created), nil
}

type listTasksArgs struct {
	Status string `json:"status"`
}

func (s *Server) toolListTasks(r *http.Request, req toolRequest) (interface{}, error) {
	var args listTasksArgs
	if err := unmarshalArgs(req.Arguments, &args); err != nil {
		return nil, err
	}

	filter := task.ListFilter{SortByPriority: true}
	switch args.Status {
	case "", "all":
	case "pending":
		filter.Status = model.StatusIncomplete
	case "completed":
		filter.Status = model.StatusComplete
	default:
		return nil, &toolArgError{msg: fmt.Sprintf("invalid status %q, must be pending, completed, or all", args.Status)}
	}

	tasks, err := s.tasks.List(r.Context(), req.UserID, filter)
	if err != nil {
		return nil, err
	}

	out := make([]toolTask, 0, len(tasks))
	for i := range tasks {
		out = append(out, asToolTask(&tasks[i]))
	}
	return map[string]interface{}{"tasks": out, "count": len(out)}, nil
}

type taskIDArgs struct {
	TaskID json.Number `json:"task_id"`
}

func (s *Server) toolCompleteTask(r *http.Request, req toolRequest) (interface{}, error) {
	id, err := parseTaskIDArg(req.Arguments)
	if err != nil {
		return nil, err
	}

	t, err := s.tasks.Complete(r.Context(), req.UserID, id)
	if err != nil {
		return nil, err
	}
	return asToolTask(t), nil
}

type updateTaskArgs struct {
	TaskID      json.Number `json:"task_id"`
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	Priority    *string     `json:"priority"`
}

func (s *Server) toolUpdateTask(r *http.Request, req toolRequest) (interface{}, error) {
	var args updateTaskArgs
	if err := unmarshalArgs(req.Arguments, &args); err != nil {
		return nil, err
	}
	id, err := parseTaskID(args.TaskID)
	if err != nil {
		return nil, err
	}

	updated, err := s.tasks.Update(r.Context(), req.UserID, id, task.UpdateInput{
		Title:       args.Title,
		Description: args.Description,
		Priority:    args.Priority,
	})
	if err != nil {
		return nil, err
	}
	return asToolTask(updated), nil
}

func (s *Server) toolDeleteTask(r *http.Request, req toolRequest) (interface{}, error) {
	id, err := parseTaskIDArg(req.Arguments)
	if err != nil {
		return nil, err
	}

	if err := s.tasks.Delete(r.Context(), req.UserID, id); err != nil {
		return nil, err
	}
	return map[string]interface{}{"deleted": true, "task_id": id}, nil
}

// toolArgError marks malformed tool arguments; mapped to 400 like
// service validation errors.
type toolArgError struct {
	msg string
}

func (e *toolArgError) Error() string { return e.msg }

func unmarshalArgs(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &toolArgError{msg: "invalid tool arguments"}
	}
	return nil
}

func parseTaskIDArg(raw json.RawMessage) (int64, error) {
	var args taskIDArgs
	if err := unmarshalArgs(raw, &args); err != nil {
		return 0, err
	}
	return parseTaskID(args.TaskID)
}

// parseTaskID accepts the ID as either a JSON number or a numeric
// string; the model sends both.
func parseTaskID(n json.Number) (int64, error) {
	id, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil || id < 1 {
		return 0, &toolArgError{msg: fmt.Sprintf("invalid task_id %q", n.String())}
	}
	return id, nil
}

func asToolTask(t *model.Task) toolTask {
	status := "pending"
	if t.Status == model.StatusComplete {
		status = "completed"
	}
	return toolTask{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      status,
		Priority:    t.Priority,
	}
}

func (s *Server) respondToolError(w http.ResponseWriter, name string, err error) {
	var argErr *toolArgError
	switch {
	case errors.As(err, &argErr):
		respondError(w, http.StatusBadRequest, argErr.msg)
	case task.IsValidation(err):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, task.ErrNotFound):
		respondError(w, http.StatusNotFound, "task not found")
	default:
		s.logger.Error("tool execution failed",
			zap.String("tool", name),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
