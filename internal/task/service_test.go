package task_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AyeshaQadir7/taskie-todo-app/internal/model"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/task"
	"github.com/AyeshaQadir7/taskie-todo-app/tests/testutil"
)

func newService(t *testing.T) *task.Service {
	t.Helper()
	s := testutil.NewTestStore(t)
	require.NoError(t, s.CreateUser(context.Background(), model.User{
		ID:           "u1",
		Email:        "alice@example.com",
		PasswordHash: "hash",
	}))
	return task.NewService(s)
}

func TestCreateTrimsAndDefaults(t *testing.T) {
	svc := newService(t)

	created, err := svc.Create(context.Background(), "u1", task.CreateInput{
		Title: "  buy milk  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "buy milk", created.Title)
	assert.Equal(t, model.StatusIncomplete, created.Status)
	assert.Equal(t, model.PriorityMedium, created.Priority)
}

func TestCreateValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", task.CreateInput{Title: "   "})
	assert.True(t, task.IsValidation(err))

	_, err = svc.Create(ctx, "u1", task.CreateInput{
		Title: strings.Repeat("x", model.MaxTitleLength+1),
	})
	assert.True(t, task.IsValidation(err))

	_, err = svc.Create(ctx, "u1", task.CreateInput{
		Title:       "ok",
		Description: strings.Repeat("x", model.MaxDescriptionLength+1),
	})
	assert.True(t, task.IsValidation(err))

	_, err = svc.Create(ctx, "u1", task.CreateInput{
		Title:    "ok",
		Priority: "urgent",
	})
	assert.True(t, task.IsValidation(err))
}

func TestLimitsCountCharactersNotBytes(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	// 255 CJK characters are 765 bytes; the limit counts characters.
	title := strings.Repeat("日", model.MaxTitleLength)
	created, err := svc.Create(ctx, "u1", task.CreateInput{
		Title:       title,
		Description: strings.Repeat("é", model.MaxDescriptionLength),
	})
	require.NoError(t, err)
	assert.Equal(t, title, created.Title)

	_, err = svc.Create(ctx, "u1", task.CreateInput{
		Title: strings.Repeat("日", model.MaxTitleLength+1),
	})
	assert.True(t, task.IsValidation(err))

	longDesc := strings.Repeat("é", model.MaxDescriptionLength+1)
	_, err = svc.Update(ctx, "u1", created.ID, task.UpdateInput{Description: &longDesc})
	assert.True(t, task.IsValidation(err))
}

func TestUpdatePartial(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "u1", task.CreateInput{
		Title:       "original",
		Description: "keep me",
	})
	require.NoError(t, err)

	newTitle := "renamed"
	updated, err := svc.Update(ctx, "u1", created.ID, task.UpdateInput{
		Title: &newTitle,
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, "keep me", updated.Description)

	empty := " "
	_, err = svc.Update(ctx, "u1", created.ID, task.UpdateInput{Title: &empty})
	assert.True(t, task.IsValidation(err))

	bad := "urgent"
	_, err = svc.Update(ctx, "u1", created.ID, task.UpdateInput{Priority: &bad})
	assert.True(t, task.IsValidation(err))
}

func TestStatusTransitions(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "u1", task.CreateInput{Title: "t"})
	require.NoError(t, err)

	completed, err := svc.Complete(ctx, "u1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusComplete, completed.Status)

	// Completing again is a no-op, not an error.
	again, err := svc.Complete(ctx, "u1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusComplete, again.Status)

	reopened, err := svc.SetStatus(ctx, "u1", created.ID, model.StatusIncomplete)
	require.NoError(t, err)
	assert.Equal(t, model.StatusIncomplete, reopened.Status)

	_, err = svc.SetStatus(ctx, "u1", created.ID, "done")
	assert.True(t, task.IsValidation(err))
}

func TestNotFoundMapping(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "u1", 42)
	assert.ErrorIs(t, err, task.ErrNotFound)

	err = svc.Delete(ctx, "u1", 42)
	assert.ErrorIs(t, err, task.ErrNotFound)

	_, err = svc.Complete(ctx, "u1", 42)
	assert.ErrorIs(t, err, task.ErrNotFound)
}

func TestListStatusFilter(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, "u1", task.CreateInput{Title: "one"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u1", task.CreateInput{Title: "two"})
	require.NoError(t, err)
	_, err = svc.Complete(ctx, "u1", first.ID)
	require.NoError(t, err)

	complete, err := svc.List(ctx, "u1", task.ListFilter{Status: model.StatusComplete})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, "one", complete[0].Title)

	_, err = svc.List(ctx, "u1", task.ListFilter{Status: "finished"})
	assert.True(t, task.IsValidation(err))

	all, err := svc.List(ctx, "u1", task.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
