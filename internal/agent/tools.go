package agent

import "encoding/json"

// taskTools lists every tool the agent may call. Each name maps to a
// POST /tools/{name} endpoint on the backend.
var taskTools = map[string]bool{
	"add_task":      true,
	"list_tasks":    true,
	"complete_task": true,
	"update_task":   true,
	"delete_task":   true,
}

// knownTool reports whether name is a registered task tool.
func knownTool(name string) bool {
	return taskTools[name]
}

// toolDefinitions returns the tool specifications for the Claude API.
func toolDefinitions() []apiTool {
	return []apiTool{
		{
			Name:        "add_task",
			Description: "Create a new task with a title and optional description.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"title": {
						"type": "string",
						"description": "Task title (required, max 255 characters)"
					},
					"description": {
						"type": "string",
						"description": "Task description (optional, max 5000 characters)"
					},
					"priority": {
						"type": "string",
						"enum": ["low", "medium", "high"],
						"description": "Task priority (optional, default medium)"
					}
				},
				"required": ["title"]
			}`),
		},
		{
			Name:        "list_tasks",
			Description: "List the user's tasks with an optional status filter.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"status": {
						"type": "string",
						"enum": ["pending", "completed", "all"],
						"description": "Filter tasks by status (default: all)"
					}
				}
			}`),
		},
		{
			Name:        "complete_task",
			Description: "Mark a task as completed by task ID.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"task_id": {
						"type": "string",
						"description": "The ID of the task to complete"
					}
				},
				"required": ["task_id"]
			}`),
		},
		{
			Name:        "update_task",
			Description: "Update a task's title and/or description.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"task_id": {
						"type": "string",
						"description": "The ID of the task to update"
					},
					"title": {
						"type": "string",
						"description": "New task title (optional, max 255 characters)"
					},
					"description": {
						"type": "string",
						"description": "New task description (optional, max 5000 characters)"
					}
				},
				"required": ["task_id"]
			}`),
		},
		{
			Name:        "delete_task",
			Description: "Delete a task by task ID. Only use after the user has explicitly confirmed the deletion.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"task_id": {
						"type": "string",
						"description": "The ID of the task to delete"
					}
				},
				"required": ["task_id"]
			}`),
		},
	}
}
