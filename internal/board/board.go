// Package board projects tasks onto the kanban columns and moves them
// between columns.
package board

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/adanyl0v/taskboard/internal/client"
	"github.com/adanyl0v/taskboard/internal/models"
	"github.com/adanyl0v/taskboard/internal/notify"
)

type Column struct {
	ID    models.TaskStatus
	Title string
}

// Columns are the board columns in display order. A task belongs to the
// column whose ID equals its status.
var Columns = []Column{
	{ID: models.StatusPending, Title: "To Do"},
	{ID: models.StatusCompleted, Title: "Done"},
}

const (
	msgCompleted     = "Task completed!"
	msgStatusUpdated = "Task status updated"
	msgUpdateFailed  = "Failed to update task status"
)

var ErrUnknownColumn = errors.New("unknown column")

type TaskUpdater interface {
	UpdateTask(ctx context.Context, id string, in client.UpdateTaskInput) (*client.Task, error)
}

// Board holds the tasks shown on the kanban. It is safe for concurrent
// use.
type Board struct {
	updater TaskUpdater
	keep    func(client.Task) bool

	mu       sync.RWMutex
	tasks    []client.Task
	dragging string
}

type Option func(*Board)

// WithFilter limits the board to the tasks keep accepts. Without it
// every task is placed in the column matching its status.
func WithFilter(keep func(client.Task) bool) Option {
	return func(b *Board) {
		b.keep = keep
	}
}

func New(updater TaskUpdater, opts ...Option) *Board {
	b := &Board{updater: updater}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Board) accepts(task client.Task) bool {
	return b.keep == nil || b.keep(task)
}

// Replace swaps the whole task set, keeping the given order.
func (b *Board) Replace(tasks []client.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tasks = b.tasks[:0]
	for _, task := range tasks {
		if b.accepts(task) {
			b.tasks = append(b.tasks, task)
		}
	}
	if b.dragging != "" && b.indexOf(b.dragging) < 0 {
		b.dragging = ""
	}
}

// Upsert replaces the task with the same id or appends it. A task the
// filter no longer accepts is removed instead.
func (b *Board) Upsert(task client.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.upsert(task)
}

func (b *Board) upsert(task client.Task) {
	i := b.indexOf(task.ID)
	switch {
	case !b.accepts(task):
		if i >= 0 {
			b.remove(i)
		}
	case i >= 0:
		b.tasks[i] = task
	default:
		b.tasks = append(b.tasks, task)
	}
}

func (b *Board) Remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if i := b.indexOf(id); i >= 0 {
		b.remove(i)
	}
}

func (b *Board) remove(i int) {
	if b.tasks[i].ID == b.dragging {
		b.dragging = ""
	}
	b.tasks = append(b.tasks[:i], b.tasks[i+1:]...)
}

func (b *Board) Task(id string) (client.Task, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	i := b.indexOf(id)
	if i < 0 {
		return client.Task{}, false
	}
	return b.tasks[i], true
}

// Column returns the tasks whose status is id, in board order.
func (b *Board) Column(id models.TaskStatus) []client.Task {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var tasks []client.Task
	for _, task := range b.tasks {
		if task.Status == id {
			tasks = append(tasks, task)
		}
	}
	return tasks
}

func (b *Board) Counts() map[models.TaskStatus]int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	counts := make(map[models.TaskStatus]int, len(Columns))
	for _, column := range Columns {
		counts[column.ID] = 0
	}
	for _, task := range b.tasks {
		counts[task.Status]++
	}
	return counts
}

// BeginDrag picks up the task with the given id. It reports false if the
// task is not on the board.
func (b *Board) BeginDrag(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.indexOf(id) < 0 {
		return false
	}
	b.dragging = id
	return true
}

func (b *Board) CancelDrag() {
	b.mu.Lock()
	b.dragging = ""
	b.mu.Unlock()
}

// Dragging returns the task being dragged, if any.
func (b *Board) Dragging() (client.Task, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.dragging == "" {
		return client.Task{}, false
	}
	return b.tasks[b.indexOf(b.dragging)], true
}

// Drop moves the dragged task to the target column. Without an active
// drag it does nothing. Dropping onto the task's own column makes no
// remote call and yields no notification.
//
// The local status changes only after the remote update succeeds. On
// failure the board is left as it was and the returned notification
// describes the error.
func (b *Board) Drop(ctx context.Context, target models.TaskStatus) (*notify.Notification, error) {
	if !validColumn(target) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, target)
	}

	b.mu.Lock()
	if b.dragging == "" {
		b.mu.Unlock()
		return nil, nil
	}
	task := b.tasks[b.indexOf(b.dragging)]
	b.dragging = ""
	b.mu.Unlock()

	from := task.Status
	if from == target {
		return nil, nil
	}

	updated, err := b.updater.UpdateTask(ctx, task.ID, client.UpdateTaskInput{Status: &target})
	if err != nil {
		return notify.Error(msgUpdateFailed, err), err
	}

	b.mu.Lock()
	if updated != nil {
		b.upsert(*updated)
	} else if i := b.indexOf(task.ID); i >= 0 {
		b.tasks[i].Status = target
	}
	b.mu.Unlock()

	if from == models.StatusPending && target == models.StatusCompleted {
		return notify.Success(msgCompleted), nil
	}
	return notify.Info(msgStatusUpdated), nil
}

func (b *Board) indexOf(id string) int {
	for i := range b.tasks {
		if b.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func validColumn(id models.TaskStatus) bool {
	for _, column := range Columns {
		if column.ID == id {
			return true
		}
	}
	return false
}
