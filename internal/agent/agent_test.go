package agent

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AyeshaQadir7/taskie-todo-app/internal/model"
)

// fakeModelAPI scripts Claude Messages API responses in order. Each
// call pops the next response; it also records every request body.
type fakeModelAPI struct {
	t         *testing.T
	responses []string
	requests  [][]byte
	calls     int
}

func (f *fakeModelAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(f.t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(f.t, r.Header.Get("x-api-key"))
		assert.Equal(f.t, apiVersion, r.Header.Get("anthropic-version"))

		body, _ := io.ReadAll(r.Body)
		f.requests = append(f.requests, body)

		if f.calls >= len(f.responses) {
			http.Error(w, `{"error":{"type":"invalid_request_error","message":"no scripted response"}}`,
				http.StatusBadRequest)
			return
		}
		resp := f.responses[f.calls]
		f.calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(resp))
	}
}

func textResponse(text string) string {
	return `{"id":"msg_1","type":"message","role":"assistant","content":[{"type":"text","text":` +
		mustJSON(text) + `}],"stop_reason":"end_turn"}`
}

func toolUseResponse(id, name, input string) string {
	return `{"id":"msg_1","type":"message","role":"assistant","content":[` +
		`{"type":"text","text":"On it."},` +
		`{"type":"tool_use","id":"` + id + `","name":"` + name + `","input":` + input + `}` +
		`],"stop_reason":"tool_use"}`
}

func mustJSON(v interface{}) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func newTestAgent(t *testing.T, api *fakeModelAPI, toolEndpoint string) *Agent {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	inv := NewInvoker(toolEndpoint, 5*time.Second)
	return New(Options{
		APIKey: "test-key",
		APIURL: srv.URL,
	}, inv, zap.NewNop())
}

func history(contents ...string) []model.Message {
	msgs := make([]model.Message, 0, len(contents))
	for i, c := range contents {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		msgs = append(msgs, model.Message{Role: role, Content: c})
	}
	return msgs
}

func TestProcessMessagePlainText(t *testing.T) {
	api := &fakeModelAPI{t: t, responses: []string{textResponse("Hi! I can manage your tasks.")}}
	a := newTestAgent(t, api, "http://unused.invalid")

	result, err := a.ProcessMessage(context.Background(), "u1", history("hello"))
	require.NoError(t, err)
	assert.Equal(t, "Hi! I can manage your tasks.", result.Content)
	assert.Empty(t, result.ToolCalls)
	assert.Equal(t, 1, api.calls)
}

func TestProcessMessageToolLoop(t *testing.T) {
	var toolCalls atomic.Int32
	tools := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		toolCalls.Add(1)
		assert.Equal(t, "/tools/add_task", r.URL.Path)

		var req ToolRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "u1", req.UserID)
		assert.JSONEq(t, `{"title":"buy milk"}`, string(req.Arguments))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","result":{"id":1,"title":"buy milk","status":"pending"}}`))
	}))
	t.Cleanup(tools.Close)

	api := &fakeModelAPI{t: t, responses: []string{
		toolUseResponse("tu_1", "add_task", `{"title":"buy milk"}`),
		textResponse("Added \"buy milk\" to your list."),
	}}
	a := newTestAgent(t, api, tools.URL)

	result, err := a.ProcessMessage(context.Background(), "u1", history("add buy milk"))
	require.NoError(t, err)

	assert.Equal(t, "Added \"buy milk\" to your list.", result.Content)
	assert.Equal(t, int32(1), toolCalls.Load())
	require.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "add_task", result.ToolCalls[0].ToolName)
	assert.JSONEq(t, `{"title":"buy milk"}`, string(result.ToolCalls[0].Parameters))
	assert.Contains(t, string(result.ToolCalls[0].Result), `"success"`)

	// The second API call must carry the assistant tool_use turn and a
	// tool_result user turn.
	require.Len(t, api.requests, 2)
	var second apiRequest
	require.NoError(t, json.Unmarshal(api.requests[1], &second))
	require.Len(t, second.Messages, 3)
	assert.Equal(t, model.RoleAssistant, second.Messages[1].Role)
	assert.Equal(t, "tool_use", second.Messages[1].Content[1].Type)
	assert.Equal(t, model.RoleUser, second.Messages[2].Role)
	assert.Equal(t, "tool_result", second.Messages[2].Content[0].Type)
	assert.Equal(t, "tu_1", second.Messages[2].Content[0].ToolUseID)
}

func TestProcessMessageToolErrorIsDataNotFailure(t *testing.T) {
	tools := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Validation failure from the backend.
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"title is required"}`))
	}))
	t.Cleanup(tools.Close)

	api := &fakeModelAPI{t: t, responses: []string{
		toolUseResponse("tu_1", "add_task", `{"title":""}`),
		textResponse("The task needs a title. What should I call it?"),
	}}
	a := newTestAgent(t, api, tools.URL)

	result, err := a.ProcessMessage(context.Background(), "u1", history("add a task"))
	require.NoError(t, err)
	assert.Equal(t, "The task needs a title. What should I call it?", result.Content)

	require.Len(t, result.ToolCalls, 1)
	assert.Contains(t, string(result.ToolCalls[0].Result), "validation_error")
}

func TestProcessMessageUnknownTool(t *testing.T) {
	api := &fakeModelAPI{t: t, responses: []string{
		toolUseResponse("tu_1", "launch_rocket", `{}`),
		textResponse("Sorry, I can't do that."),
	}}
	a := newTestAgent(t, api, "http://unused.invalid")

	result, err := a.ProcessMessage(context.Background(), "u1", history("launch"))
	require.NoError(t, err)

	require.Len(t, result.ToolCalls, 1)
	assert.Contains(t, string(result.ToolCalls[0].Result), "unknown_tool")
}

func TestProcessMessageIterationBound(t *testing.T) {
	tools := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","result":{"tasks":[],"count":0}}`))
	}))
	t.Cleanup(tools.Close)

	// The model keeps asking for tools beyond the iteration budget.
	responses := make([]string, maxToolIterations+1)
	for i := range responses {
		responses[i] = toolUseResponse("tu_x", "list_tasks", `{}`)
	}
	api := &fakeModelAPI{t: t, responses: responses}
	a := newTestAgent(t, api, tools.URL)

	result, err := a.ProcessMessage(context.Background(), "u1", history("loop forever"))
	require.NoError(t, err)
	assert.Equal(t, maxToolIterations, api.calls)
	assert.Len(t, result.ToolCalls, maxToolIterations)
	assert.Contains(t, result.Content, "rephrasing")
}

func TestProcessMessageEmptyResponseGetsFallback(t *testing.T) {
	// A final turn with no text blocks must not produce an empty reply,
	// which would later be replayed as an empty text block.
	empty := `{"id":"msg_1","type":"message","role":"assistant","content":[],"stop_reason":"end_turn"}`
	api := &fakeModelAPI{t: t, responses: []string{empty}}
	a := newTestAgent(t, api, "http://unused.invalid")

	result, err := a.ProcessMessage(context.Background(), "u1", history("hello"))
	require.NoError(t, err)
	assert.NotEmpty(t, result.Content)
}

func TestBuildAPIMessagesSkipsEmptyContent(t *testing.T) {
	msgs := buildAPIMessages([]model.Message{
		{Role: model.RoleUser, Content: "hello"},
		{Role: model.RoleAssistant, Content: ""},
		{Role: model.RoleUser, Content: "still there?"},
	})
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Content[0].Text)
	assert.Equal(t, "still there?", msgs[1].Content[0].Text)
}

func TestProcessMessageAPIError(t *testing.T) {
	api := &fakeModelAPI{t: t, responses: nil} // every call errors
	a := newTestAgent(t, api, "http://unused.invalid")

	_, err := a.ProcessMessage(context.Background(), "u1", history("hello"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no scripted response")
}

func TestInvokerRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	tools := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, `{"error":"db locked"}`, http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"status":"success","result":{"deleted":true}}`))
	}))
	t.Cleanup(tools.Close)

	inv := NewInvoker(tools.URL, 5*time.Second)
	out, err := inv.Invoke(context.Background(), "delete_task", "u1", json.RawMessage(`{"task_id":"1"}`))
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Contains(t, string(out), `"success"`)
}

func TestInvokerDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	tools := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"task not found"}`, http.StatusNotFound)
	}))
	t.Cleanup(tools.Close)

	inv := NewInvoker(tools.URL, 5*time.Second)
	out, err := inv.Invoke(context.Background(), "complete_task", "u1", json.RawMessage(`{"task_id":"9"}`))
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var resp ToolResponse
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "not_found", resp.ErrorCode)
}

func TestInvokerGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	tools := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(tools.Close)

	inv := NewInvoker(tools.URL, 5*time.Second)
	_, err := inv.Invoke(context.Background(), "list_tasks", "u1", json.RawMessage(`{}`))
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}
