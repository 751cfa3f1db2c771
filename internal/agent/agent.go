// Package agent runs the chat agent: a Claude Messages API loop that
// interprets natural-language requests and manages tasks through the
// backend's HTTP tool endpoints. The agent is stateless; conversation
// history is passed in on every call and never cached.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/AyeshaQadir7/taskie-todo-app/internal/model"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 4096
	defaultAPIURL    = "https://api.anthropic.com/v1/messages"
	apiVersion       = "2023-06-01"

	// maxToolIterations bounds the tool-use loop for a single message.
	maxToolIterations = 5
)

// systemPrompt defines the Taskie persona and tool-use guidance.
const systemPrompt = `You are Taskie, a friendly and helpful task management assistant.

Your capabilities:
- Add new tasks to the user's list
- Show/list tasks (all, pending, or completed)
- Mark tasks as complete
- Update task titles or descriptions
- Delete tasks

Guidelines:
- Be concise and friendly
- Use the provided tools to manage tasks
- Confirm actions after completing them
- For greetings and small talk, respond naturally without using tools
- If the user asks for help, explain what you can do

Task identification:
- Users may refer to tasks by ID (e.g., "task 5") or by title (e.g., "the groceries task")
- When a user mentions a task by title, first call list_tasks to find the matching task ID, then perform the requested action
- If multiple tasks match the title, ask the user to specify which one by ID

Conversation context:
- Pay attention to the conversation history
- Pronouns like "it", "that task", "this one" refer to the most recently discussed task
- Don't ask for a task ID again if it was just mentioned in the conversation

Always extract task IDs as strings.`

// ToolCallRecord is one tool invocation made while producing a reply,
// in execution order. The chat service persists these for the audit
// trail.
type ToolCallRecord struct {
	ToolName   string
	Parameters json.RawMessage
	Result     json.RawMessage
}

// Result is the outcome of processing one user message.
type Result struct {
	Content   string
	ToolCalls []ToolCallRecord
}

// Agent communicates with the Claude Messages API and executes tool
// requests through an Invoker.
type Agent struct {
	apiKey    string
	model     string
	maxTokens int
	apiURL    string
	invoker   *Invoker
	client    *http.Client
	logger    *zap.Logger
}

// Options configures an Agent. Zero values fall back to defaults.
type Options struct {
	APIKey    string
	Model     string
	MaxTokens int
	APIURL    string // overridden in tests
}

// New creates an agent that invokes tools through inv.
func New(opts Options, inv *Invoker, logger *zap.Logger) *Agent {
	if opts.Model == "" {
		opts.Model = defaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.APIURL == "" {
		opts.APIURL = defaultAPIURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Agent{
		apiKey:    opts.APIKey,
		model:     opts.Model,
		maxTokens: opts.MaxTokens,
		apiURL:    opts.APIURL,
		invoker:   inv,
		client:    &http.Client{Timeout: 60 * time.Second},
		logger:    logger,
	}
}

// ProcessMessage runs the tool-use loop for one user message. history is
// the prior conversation in chronological order; the new user message
// must be its last element. All tool calls execute on behalf of userID.
func (a *Agent) ProcessMessage(
	ctx context.Context,
	userID string,
	history []model.Message,
) (*Result, error) {
	messages := buildAPIMessages(history)
	result := &Result{}

	for i := 0; i < maxToolIterations; i++ {
		resp, err := a.callAPI(ctx, messages)
		if err != nil {
			return nil, err
		}

		var textParts []string
		var toolUses []apiToolUse
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				textParts = append(textParts, block.Text)
			case "tool_use":
				toolUses = append(toolUses, apiToolUse{
					ID:    block.ID,
					Name:  block.Name,
					Input: block.Input,
				})
			}
		}

		if len(toolUses) == 0 {
			result.Content = strings.Join(textParts, "")
			if result.Content == "" {
				result.Content = "I don't have a response for that. Please try rephrasing."
			}
			return result, nil
		}

		// Echo the assistant turn (including tool_use blocks) back so
		// the API can pair it with the tool results.
		messages = append(messages, apiMessage{
			Role:    model.RoleAssistant,
			Content: resp.Content,
		})

		var toolResults []apiContentBlock
		for _, tu := range toolUses {
			output := a.executeTool(ctx, userID, tu)
			result.ToolCalls = append(result.ToolCalls, ToolCallRecord{
				ToolName:   tu.Name,
				Parameters: tu.Input,
				Result:     output,
			})
			toolResults = append(toolResults, apiContentBlock{
				Type:      "tool_result",
				ToolUseID: tu.ID,
				Content:   string(output),
			})
		}

		messages = append(messages, apiMessage{
			Role:    model.RoleUser,
			Content: toolResults,
		})
	}

	result.Content = "I wasn't able to finish that request. Please try rephrasing it."
	return result, nil
}

// callAPI makes a single request to the Claude Messages API.
func (a *Agent) callAPI(ctx context.Context, messages []apiMessage) (*apiResponse, error) {
	reqBody := apiRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    systemPrompt,
		Messages:  messages,
		Tools:     toolDefinitions(),
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, a.apiURL, bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling model API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("model API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("model API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &result, nil
}

// executeTool runs one requested tool via the invoker and returns the
// raw JSON result handed back to the model and recorded for audit.
func (a *Agent) executeTool(ctx context.Context, userID string, tu apiToolUse) json.RawMessage {
	a.logger.Info("executing tool",
		zap.String("tool", tu.Name),
		zap.String("user_id", userID),
	)

	if !knownTool(tu.Name) {
		return errorResult("unknown_tool", fmt.Sprintf("unknown tool: %s", tu.Name))
	}

	input := tu.Input
	if len(input) == 0 {
		input = []byte("{}")
	}

	output, err := a.invoker.Invoke(ctx, tu.Name, userID, input)
	if err != nil {
		a.logger.Warn("tool invocation failed",
			zap.String("tool", tu.Name),
			zap.Error(err),
		)
		return errorResult("invocation_error", err.Error())
	}

	return output
}

// errorResult encodes a structured error payload for the model.
func errorResult(code, msg string) json.RawMessage {
	payload, _ := json.Marshal(map[string]string{
		"status":     "error",
		"error_code": code,
		"error":      msg,
	})
	return payload
}

// buildAPIMessages converts stored conversation history into the Claude
// API message format. Stored messages are plain text; tool exchanges are
// not replayed because each completed turn already contains their
// outcome. Messages with no content are skipped, since the API rejects
// empty text blocks.
func buildAPIMessages(history []model.Message) []apiMessage {
	messages := make([]apiMessage, 0, len(history))
	for _, msg := range history {
		if msg.Content == "" {
			continue
		}
		messages = append(messages, apiMessage{
			Role: msg.Role,
			Content: []apiContentBlock{
				{Type: "text", Text: msg.Content},
			},
		})
	}
	return messages
}

// --- Claude API types ---

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system"`
	Messages  []apiMessage `json:"messages"`
	Tools     []apiTool    `json:"tools,omitempty"`
}

type apiMessage struct {
	Role    string            `json:"role"`
	Content []apiContentBlock `json:"content"`
}

type apiContentBlock struct {
	// Common fields
	Type string `json:"type"`

	// For text blocks
	Text string `json:"text,omitempty"`

	// For tool_use blocks
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// For tool_result blocks
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

type apiToolUse struct {
	ID    string
	Name  string
	Input json.RawMessage
}

type apiResponse struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Role       string            `json:"role"`
	Content    []apiContentBlock `json:"content"`
	Model      string            `json:"model"`
	StopReason string            `json:"stop_reason"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type apiTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}
