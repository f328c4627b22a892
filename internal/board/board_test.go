package board_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/taskboard/internal/board"
	"github.com/adanyl0v/taskboard/internal/client"
	"github.com/adanyl0v/taskboard/internal/models"
	"github.com/adanyl0v/taskboard/internal/notify"
)

type updateCall struct {
	id string
	in client.UpdateTaskInput
}

type fakeUpdater struct {
	err   error
	calls []updateCall
}

func (f *fakeUpdater) UpdateTask(_ context.Context, id string, in client.UpdateTaskInput) (*client.Task, error) {
	f.calls = append(f.calls, updateCall{id: id, in: in})
	if f.err != nil {
		return nil, f.err
	}
	return &client.Task{ID: id, Title: "from server", Status: *in.Status, Type: models.TypeTask}, nil
}

func task(id string, status models.TaskStatus) client.Task {
	return client.Task{ID: id, Title: "task " + id, Status: status, Type: models.TypeTask}
}

func ids(tasks []client.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func topLevel(task client.Task) bool {
	return task.Type != models.TypeSubtask
}

func newBoard(updater board.TaskUpdater) *board.Board {
	b := board.New(updater, board.WithFilter(topLevel))
	b.Replace([]client.Task{
		task("1", models.StatusPending),
		task("2", models.StatusCompleted),
		task("3", models.StatusPending),
		{ID: "4", Status: models.StatusPending, Type: models.TypeSubtask},
	})
	return b
}

func TestBoard_Columns(t *testing.T) {
	require.Len(t, board.Columns, 2)
	assert.Equal(t, models.StatusPending, board.Columns[0].ID)
	assert.Equal(t, "To Do", board.Columns[0].Title)
	assert.Equal(t, models.StatusCompleted, board.Columns[1].ID)
	assert.Equal(t, "Done", board.Columns[1].Title)

	b := newBoard(&fakeUpdater{})
	assert.Equal(t, []string{"1", "3"}, ids(b.Column(models.StatusPending)))
	assert.Equal(t, []string{"2"}, ids(b.Column(models.StatusCompleted)))
	assert.Equal(t, map[models.TaskStatus]int{
		models.StatusPending:   2,
		models.StatusCompleted: 1,
	}, b.Counts())

	_, ok := b.Task("4")
	assert.False(t, ok, "subtasks stay off the board")
}

func TestBoard_MembershipIsByStatusOnly(t *testing.T) {
	b := board.New(&fakeUpdater{})
	b.Replace([]client.Task{
		{ID: "1", Status: models.StatusPending},
		{ID: "2", Status: models.StatusCompleted},
	})
	assert.Equal(t, []string{"1"}, ids(b.Column(models.StatusPending)))
	assert.Equal(t, []string{"2"}, ids(b.Column(models.StatusCompleted)))

	b.Upsert(client.Task{ID: "3", Status: models.StatusPending, Type: models.TypeSubtask})
	assert.Equal(t, []string{"1", "3"}, ids(b.Column(models.StatusPending)))
}

func TestBoard_UpsertAndRemove(t *testing.T) {
	b := newBoard(&fakeUpdater{})

	b.Upsert(task("5", models.StatusCompleted))
	assert.Equal(t, []string{"2", "5"}, ids(b.Column(models.StatusCompleted)))

	renamed := task("1", models.StatusPending)
	renamed.Title = "renamed"
	b.Upsert(renamed)
	got, ok := b.Task("1")
	require.True(t, ok)
	assert.Equal(t, "renamed", got.Title)
	assert.Equal(t, []string{"1", "3"}, ids(b.Column(models.StatusPending)))

	demoted := task("3", models.StatusPending)
	demoted.Type = models.TypeSubtask
	b.Upsert(demoted)
	assert.Equal(t, []string{"1"}, ids(b.Column(models.StatusPending)))

	b.Remove("1")
	b.Remove("missing")
	assert.Empty(t, b.Column(models.StatusPending))
}

func TestBoard_DropWithoutDrag(t *testing.T) {
	updater := &fakeUpdater{}
	b := newBoard(updater)

	n, err := b.Drop(context.Background(), models.StatusCompleted)
	require.NoError(t, err)
	assert.Nil(t, n)
	assert.Empty(t, updater.calls)
}

func TestBoard_DropCompletes(t *testing.T) {
	updater := &fakeUpdater{}
	b := newBoard(updater)

	require.True(t, b.BeginDrag("1"))
	dragged, ok := b.Dragging()
	require.True(t, ok)
	assert.Equal(t, "1", dragged.ID)

	n, err := b.Drop(context.Background(), models.StatusCompleted)
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, notify.KindSuccess, n.Kind)
	assert.Equal(t, "Task completed!", n.Message)

	require.Len(t, updater.calls, 1)
	assert.Equal(t, "1", updater.calls[0].id)
	assert.Equal(t, client.UpdateTaskInput{Status: ptr(models.StatusCompleted)}, updater.calls[0].in)

	assert.Equal(t, []string{"1", "2"}, ids(b.Column(models.StatusCompleted)))
	assert.Equal(t, []string{"3"}, ids(b.Column(models.StatusPending)))

	_, ok = b.Dragging()
	assert.False(t, ok)
}

func TestBoard_DropReopens(t *testing.T) {
	b := newBoard(&fakeUpdater{})

	require.True(t, b.BeginDrag("2"))
	n, err := b.Drop(context.Background(), models.StatusPending)
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, notify.KindInfo, n.Kind)
	assert.Equal(t, "Task status updated", n.Message)
	assert.Empty(t, b.Column(models.StatusCompleted))
}

func TestBoard_DropOntoSameColumn(t *testing.T) {
	updater := &fakeUpdater{}
	b := newBoard(updater)

	require.True(t, b.BeginDrag("1"))
	n, err := b.Drop(context.Background(), models.StatusPending)
	require.NoError(t, err)
	assert.Nil(t, n)
	assert.Empty(t, updater.calls)

	_, ok := b.Dragging()
	assert.False(t, ok)
}

func TestBoard_DropFailureKeepsState(t *testing.T) {
	updater := &fakeUpdater{err: errors.New("connection refused")}
	b := newBoard(updater)

	require.True(t, b.BeginDrag("1"))
	n, err := b.Drop(context.Background(), models.StatusCompleted)
	require.Error(t, err)
	require.NotNil(t, n)
	assert.Equal(t, notify.KindError, n.Kind)
	assert.Contains(t, n.Message, "connection refused")

	require.Len(t, updater.calls, 1)
	assert.Equal(t, []string{"1", "3"}, ids(b.Column(models.StatusPending)))
	assert.Equal(t, []string{"2"}, ids(b.Column(models.StatusCompleted)))
}

func TestBoard_DragEdgeCases(t *testing.T) {
	updater := &fakeUpdater{}
	b := newBoard(updater)

	assert.False(t, b.BeginDrag("missing"))
	assert.False(t, b.BeginDrag("4"))

	require.True(t, b.BeginDrag("1"))
	_, err := b.Drop(context.Background(), models.TaskStatus("ARCHIVED"))
	require.ErrorIs(t, err, board.ErrUnknownColumn)

	_, ok := b.Dragging()
	assert.True(t, ok, "an invalid target keeps the drag")

	b.Remove("1")
	_, ok = b.Dragging()
	assert.False(t, ok)

	require.True(t, b.BeginDrag("3"))
	b.CancelDrag()
	n, err := b.Drop(context.Background(), models.StatusCompleted)
	require.NoError(t, err)
	assert.Nil(t, n)
	assert.Empty(t, updater.calls)
}

func ptr[T any](v T) *T { return &v }
