package chat_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AyeshaQadir7/taskie-todo-app/internal/agent"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/chat"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/model"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/store"
	"github.com/AyeshaQadir7/taskie-todo-app/tests/testutil"
)

// stubRunner records the history it was given and returns a canned
// result.
type stubRunner struct {
	result  *agent.Result
	err     error
	block   time.Duration
	history []model.Message
	calls   int
}

func (r *stubRunner) ProcessMessage(ctx context.Context, userID string, history []model.Message) (*agent.Result, error) {
	r.calls++
	r.history = history
	if r.block > 0 {
		select {
		case <-time.After(r.block):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.result, nil
}

func newTestService(t *testing.T, runner chat.Runner) (*chat.Service, store.Store) {
	t.Helper()
	s := testutil.NewTestStore(t)
	require.NoError(t, s.CreateUser(context.Background(), model.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		PasswordHash: "x",
	}))
	return chat.NewService(s, runner, 5*time.Second, 100, zap.NewNop()), s
}

func TestSendCreatesConversation(t *testing.T) {
	runner := &stubRunner{result: &agent.Result{Content: "Done! Task added."}}
	svc, _ := newTestService(t, runner)

	reply, err := svc.Send(context.Background(), "user-1", "", "Add buy milk to my list")
	require.NoError(t, err)
	require.NotEmpty(t, reply.ConversationID)
	require.Len(t, reply.Messages, 2)

	assert.Equal(t, model.RoleUser, reply.Messages[0].Role)
	assert.Equal(t, "Add buy milk to my list", reply.Messages[0].Content)
	assert.Equal(t, model.RoleAssistant, reply.Messages[1].Role)
	assert.Equal(t, "Done! Task added.", reply.Messages[1].Content)
}

func TestSendContinuesConversation(t *testing.T) {
	runner := &stubRunner{result: &agent.Result{Content: "ok"}}
	svc, _ := newTestService(t, runner)

	first, err := svc.Send(context.Background(), "user-1", "", "hello")
	require.NoError(t, err)

	second, err := svc.Send(context.Background(), "user-1", first.ConversationID, "add a task")
	require.NoError(t, err)

	assert.Equal(t, first.ConversationID, second.ConversationID)
	require.Len(t, second.Messages, 4)

	// The agent sees the full prior history plus the new user message.
	require.Len(t, runner.history, 3)
	assert.Equal(t, "add a task", runner.history[2].Content)
}

func TestSendRejectsForeignConversation(t *testing.T) {
	runner := &stubRunner{result: &agent.Result{Content: "ok"}}
	svc, s := newTestService(t, runner)

	require.NoError(t, s.CreateUser(context.Background(), model.User{
		ID:           "user-2",
		Email:        "bob@example.com",
		PasswordHash: "x",
	}))
	reply, err := svc.Send(context.Background(), "user-2", "", "my secrets")
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), "user-1", reply.ConversationID, "hi")
	assert.ErrorIs(t, err, chat.ErrConversationNotFound)
	assert.Equal(t, 1, runner.calls, "agent must not run for a foreign conversation")
}

func TestSendRejectsUnknownConversation(t *testing.T) {
	runner := &stubRunner{result: &agent.Result{Content: "ok"}}
	svc, _ := newTestService(t, runner)

	_, err := svc.Send(context.Background(), "user-1", "no-such-id", "hi")
	assert.ErrorIs(t, err, chat.ErrConversationNotFound)
}

func TestSendValidatesMessage(t *testing.T) {
	runner := &stubRunner{result: &agent.Result{Content: "ok"}}
	svc, _ := newTestService(t, runner)

	_, err := svc.Send(context.Background(), "user-1", "", "   ")
	assert.True(t, chat.IsValidation(err))

	long := make([]byte, 5001)
	for i := range long {
		long[i] = 'a'
	}
	_, err = svc.Send(context.Background(), "user-1", "", string(long))
	assert.True(t, chat.IsValidation(err))

	assert.Zero(t, runner.calls)
}

func TestSendAcceptsMultibyteMessageAtLimit(t *testing.T) {
	runner := &stubRunner{result: &agent.Result{Content: "ok"}}
	svc, _ := newTestService(t, runner)

	// 5000 runes but 10000 bytes; the limit counts characters.
	_, err := svc.Send(context.Background(), "user-1", "", strings.Repeat("é", 5000))
	require.NoError(t, err)
	assert.Equal(t, 1, runner.calls)

	_, err = svc.Send(context.Background(), "user-1", "", strings.Repeat("é", 5001))
	assert.True(t, chat.IsValidation(err))
	assert.Equal(t, 1, runner.calls)
}

func TestSendDerivesMultibyteTitle(t *testing.T) {
	runner := &stubRunner{result: &agent.Result{Content: "ok"}}
	svc, _ := newTestService(t, runner)

	message := strings.Repeat("é", 70)
	_, err := svc.Send(context.Background(), "user-1", "", message)
	require.NoError(t, err)

	convs, err := svc.List(context.Background(), "user-1", 0, 0)
	require.NoError(t, err)
	require.Len(t, convs, 1)

	title := convs[0].Title
	assert.True(t, utf8.ValidString(title))
	assert.Equal(t, strings.Repeat("é", 57)+"...", title)
	assert.Equal(t, 60, utf8.RuneCountInString(title))
}

func TestSendPersistsUserMessageBeforeAgentFailure(t *testing.T) {
	runner := &stubRunner{err: errors.New("api unavailable")}
	svc, s := newTestService(t, runner)

	_, err := svc.Send(context.Background(), "user-1", "", "add a task")
	require.Error(t, err)

	// The user message survives even though the agent failed.
	convs, err := s.ListConversations(context.Background(), "user-1", store.ConversationFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, convs, 1)

	messages, err := s.GetMessages(context.Background(), convs[0].ID, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, model.RoleUser, messages[0].Role)
}

func TestSendAgentTimeout(t *testing.T) {
	runner := &stubRunner{block: time.Second, result: &agent.Result{Content: "late"}}
	s := testutil.NewTestStore(t)
	require.NoError(t, s.CreateUser(context.Background(), model.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		PasswordHash: "x",
	}))
	svc := chat.NewService(s, runner, 50*time.Millisecond, 100, zap.NewNop())

	_, err := svc.Send(context.Background(), "user-1", "", "slow request")
	assert.ErrorIs(t, err, chat.ErrAgentTimeout)
}

func TestSendRecordsToolCalls(t *testing.T) {
	params := json.RawMessage(`{"title":"buy milk"}`)
	result := json.RawMessage(`{"id":1,"title":"buy milk"}`)
	runner := &stubRunner{result: &agent.Result{
		Content: "Added \"buy milk\".",
		ToolCalls: []agent.ToolCallRecord{
			{ToolName: "add_task", Parameters: params, Result: result},
		},
	}}
	svc, _ := newTestService(t, runner)

	reply, err := svc.Send(context.Background(), "user-1", "", "add buy milk")
	require.NoError(t, err)
	require.Len(t, reply.Messages, 2)

	assistant := reply.Messages[1]
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, "add_task", assistant.ToolCalls[0].ToolName)
	assert.JSONEq(t, `{"title":"buy milk"}`, string(assistant.ToolCalls[0].Parameters))
	assert.JSONEq(t, `{"id":1,"title":"buy milk"}`, string(assistant.ToolCalls[0].Result))
}

func TestSendBoundsHistory(t *testing.T) {
	runner := &stubRunner{result: &agent.Result{Content: "ok"}}
	s := testutil.NewTestStore(t)
	require.NoError(t, s.CreateUser(context.Background(), model.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		PasswordHash: "x",
	}))
	svc := chat.NewService(s, runner, 5*time.Second, 4, zap.NewNop())

	conv, err := svc.Send(context.Background(), "user-1", "", "turn 1")
	require.NoError(t, err)
	for i := 2; i <= 4; i++ {
		_, err = svc.Send(context.Background(), "user-1", conv.ConversationID, "another turn")
		require.NoError(t, err)
	}

	// 7 prior messages exist but the agent only sees the newest 4.
	require.Len(t, runner.history, 4)
}

func TestHistory(t *testing.T) {
	runner := &stubRunner{result: &agent.Result{Content: "hi there"}}
	svc, _ := newTestService(t, runner)

	reply, err := svc.Send(context.Background(), "user-1", "", "hello")
	require.NoError(t, err)

	hist, err := svc.History(context.Background(), "user-1", reply.ConversationID)
	require.NoError(t, err)
	assert.Len(t, hist.Messages, 2)

	_, err = svc.History(context.Background(), "user-1", "missing")
	assert.ErrorIs(t, err, chat.ErrConversationNotFound)
}

func TestListConversations(t *testing.T) {
	runner := &stubRunner{result: &agent.Result{Content: "ok"}}
	svc, _ := newTestService(t, runner)

	first, err := svc.Send(context.Background(), "user-1", "", "first conversation")
	require.NoError(t, err)
	second, err := svc.Send(context.Background(), "user-1", "", "second conversation")
	require.NoError(t, err)

	// Touch the first conversation so it becomes the most recent.
	_, err = svc.Send(context.Background(), "user-1", first.ConversationID, "back again")
	require.NoError(t, err)

	convs, err := svc.List(context.Background(), "user-1", 0, 0)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, first.ConversationID, convs[0].ID)
	assert.Equal(t, second.ConversationID, convs[1].ID)
}
