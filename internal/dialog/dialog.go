// Package dialog drives the create, view and edit dialogs of a task and
// of its subtasks.
//
// A Controller owns a stack of frames. The bottom frame is the dialog
// opened from the board; each subtask opened from a dialog pushes another
// frame parameterised with its parent. Popping a frame reloads the
// subtasks shown by the frame below it.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/adanyl0v/taskboard/internal/client"
	"github.com/adanyl0v/taskboard/internal/models"
	"github.com/adanyl0v/taskboard/internal/notify"
)

type State int

const (
	Closed State = iota
	Viewing
	Editing
	Creating
)

func (s State) String() string {
	switch s {
	case Viewing:
		return "viewing"
	case Editing:
		return "editing"
	case Creating:
		return "creating"
	default:
		return "closed"
	}
}

// MaxDepth bounds how many dialogs may be stacked.
const MaxDepth = 8

// Unassigned is the assignee selection meaning no assignee.
const Unassigned = "unassigned"

var (
	ErrInvalidTransition = errors.New("invalid dialog transition")
	ErrTooDeep           = errors.New("too many nested dialogs")
	ErrTitleRequired     = errors.New("title is required")
	ErrStale             = errors.New("dialog changed while the request was in flight")
)

type TaskAPI interface {
	CreateTask(ctx context.Context, in client.CreateTaskInput) (*client.Task, error)
	UpdateTask(ctx context.Context, id string, in client.UpdateTaskInput) (*client.Task, error)
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context, parentID string) ([]client.Task, error)
}

// Draft is the editable copy of a task's fields.
type Draft struct {
	Title       string
	Description string
	Status      models.TaskStatus
	AssignedTo  string
}

func newDraft() Draft {
	return Draft{Status: models.StatusPending, AssignedTo: Unassigned}
}

func draftOf(task *client.Task) Draft {
	d := Draft{
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		AssignedTo:  Unassigned,
	}
	if task.AssignedTo != nil {
		d.AssignedTo = task.AssignedTo.ID
	}
	return d
}

func (d Draft) assignee() *string {
	id := strings.TrimSpace(d.AssignedTo)
	if id == "" || id == Unassigned {
		return nil
	}
	return &id
}

type frame struct {
	state    State
	task     *client.Task
	parent   *client.Task
	draft    Draft
	subtasks []client.Task
}

// Frame is a read-only snapshot of the top dialog.
type Frame struct {
	State    State
	Task     *client.Task
	Parent   *client.Task
	Draft    Draft
	Subtasks []client.Task
	Depth    int
}

// Result reports what a remote dialog action changed.
type Result struct {
	Created      *client.Task
	Updated      *client.Task
	Deleted      string
	Notification *notify.Notification
}

// Controller is safe for concurrent use. Remote calls are made without
// holding the lock; a result is applied only if the top frame is still
// the one that issued it.
type Controller struct {
	api TaskAPI

	mu    sync.RWMutex
	stack []*frame
}

func New(api TaskAPI) *Controller {
	return &Controller{api: api}
}

func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if top := c.top(); top != nil {
		return top.state
	}
	return Closed
}

func (c *Controller) Depth() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.stack)
}

// Current returns the top frame. ok is false when every dialog is closed.
func (c *Controller) Current() (f Frame, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	top := c.top()
	if top == nil {
		return Frame{}, false
	}
	return Frame{
		State:    top.state,
		Task:     top.task,
		Parent:   top.parent,
		Draft:    top.draft,
		Subtasks: append([]client.Task(nil), top.subtasks...),
		Depth:    len(c.stack),
	}, true
}

// OpenCreate opens a create dialog. With a parent the new task becomes
// its subtask and the dialog is stacked on the parent's dialog.
func (c *Controller) OpenCreate(parent *client.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if parent == nil && len(c.stack) > 0 {
		return fmt.Errorf("%w: create while a dialog is open", ErrInvalidTransition)
	}
	if parent != nil && len(c.stack) > 0 && c.top().state != Viewing {
		return fmt.Errorf("%w: add subtask from %s", ErrInvalidTransition, c.top().state)
	}
	return c.push(&frame{state: Creating, parent: parent, draft: newDraft()})
}

// OpenView opens a read-only dialog for task and loads its subtasks. A
// task opened from another dialog is stacked on top of it.
func (c *Controller) OpenView(ctx context.Context, task client.Task) (*notify.Notification, error) {
	c.mu.Lock()
	if len(c.stack) > 0 && c.top().state != Viewing {
		state := c.top().state
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: view from %s", ErrInvalidTransition, state)
	}
	f := &frame{state: Viewing, task: &task, draft: draftOf(&task)}
	err := c.push(f)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return c.loadSubtasks(ctx, f)
}

// Edit switches the top dialog from viewing to editing, seeding the
// draft from the task.
func (c *Controller) Edit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	top := c.top()
	if top == nil || top.state != Viewing {
		return fmt.Errorf("%w: edit", ErrInvalidTransition)
	}
	top.state = Editing
	top.draft = draftOf(top.task)
	return nil
}

// SetDraft replaces the draft of an editing or creating dialog.
func (c *Controller) SetDraft(d Draft) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	top := c.top()
	if top == nil || (top.state != Editing && top.state != Creating) {
		return fmt.Errorf("%w: no draft to change", ErrInvalidTransition)
	}
	top.draft = d
	return nil
}

// Cancel discards the draft. An editing dialog goes back to viewing; a
// creating or viewing dialog is closed.
func (c *Controller) Cancel(ctx context.Context) (*notify.Notification, error) {
	c.mu.Lock()
	top := c.top()
	if top == nil {
		c.mu.Unlock()
		return nil, nil
	}
	if top.state == Editing {
		top.state = Viewing
		top.draft = draftOf(top.task)
		c.mu.Unlock()
		return nil, nil
	}
	c.mu.Unlock()

	return c.Close(ctx)
}

// Close closes the top dialog whatever its state and refreshes the
// subtasks of the dialog beneath it.
func (c *Controller) Close(ctx context.Context) (*notify.Notification, error) {
	c.mu.Lock()
	below := c.pop()
	c.mu.Unlock()

	if below == nil {
		return nil, nil
	}
	return c.loadSubtasks(ctx, below)
}

// Reset closes every dialog without any remote call.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.stack = nil
	c.mu.Unlock()
}

// Submit sends the draft of a creating or editing dialog. An empty title
// is rejected before any remote call. On success the dialog closes; on
// failure it stays open with the draft intact.
func (c *Controller) Submit(ctx context.Context) (*Result, error) {
	c.mu.RLock()
	top := c.top()
	var (
		state  State
		draft  Draft
		task   *client.Task
		parent *client.Task
	)
	if top != nil {
		state, draft, task, parent = top.state, top.draft, top.task, top.parent
	}
	c.mu.RUnlock()

	if state != Creating && state != Editing {
		return nil, fmt.Errorf("%w: submit from %s", ErrInvalidTransition, state)
	}

	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return &Result{Notification: notify.Error("Title is required", nil)}, ErrTitleRequired
	}

	if state == Creating {
		return c.submitCreate(ctx, top, parent, title, draft)
	}
	return c.submitEdit(ctx, top, task, title, draft)
}

func (c *Controller) submitCreate(ctx context.Context, f *frame, parent *client.Task, title string, d Draft) (*Result, error) {
	in := client.CreateTaskInput{
		Title:      title,
		Status:     &d.Status,
		AssignedTo: d.assignee(),
	}
	if d.Description != "" {
		in.Description = &d.Description
	}
	taskType := models.TypeTask
	if parent != nil {
		taskType = models.TypeSubtask
		in.ParentID = &parent.ID
	}
	in.Type = &taskType

	created, err := c.api.CreateTask(ctx, in)
	if err != nil {
		return &Result{Notification: notify.Error("Failed to create task", err)}, err
	}

	res := &Result{Created: created, Notification: notify.Success("Task created")}
	return c.finish(ctx, f, res)
}

// submitEdit sends the tracked fields. Moving an assigned task to
// unassigned sends an empty assignee, which clears it.
func (c *Controller) submitEdit(ctx context.Context, f *frame, task *client.Task, title string, d Draft) (*Result, error) {
	in := client.UpdateTaskInput{
		Title:       &title,
		Description: &d.Description,
		Status:      &d.Status,
		AssignedTo:  d.assignee(),
	}
	if in.AssignedTo == nil && task.AssignedTo != nil {
		unassigned := ""
		in.AssignedTo = &unassigned
	}

	updated, err := c.api.UpdateTask(ctx, task.ID, in)
	if err != nil {
		return &Result{Notification: notify.Error("Failed to update task", err)}, err
	}

	res := &Result{Updated: updated, Notification: notify.Success("Task updated")}
	return c.finish(ctx, f, res)
}

// Delete removes the task of a viewing dialog and closes it.
func (c *Controller) Delete(ctx context.Context) (*Result, error) {
	c.mu.RLock()
	top := c.top()
	ok := top != nil && top.state == Viewing
	var id string
	if ok {
		id = top.task.ID
	}
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: delete", ErrInvalidTransition)
	}

	err := c.api.DeleteTask(ctx, id)
	if err != nil {
		return &Result{Notification: notify.Error("Failed to delete task", err)}, err
	}

	res := &Result{Deleted: id, Notification: notify.Success("Task deleted")}
	return c.finish(ctx, top, res)
}

// finish closes f after a successful remote call. If f is no longer on
// top the change is committed but the dialogs are left alone.
func (c *Controller) finish(ctx context.Context, f *frame, res *Result) (*Result, error) {
	c.mu.Lock()
	if c.top() != f {
		c.mu.Unlock()
		return res, ErrStale
	}
	below := c.pop()
	c.mu.Unlock()

	if below != nil {
		n, err := c.loadSubtasks(ctx, below)
		if err != nil {
			res.Notification = n
		}
	}
	return res, nil
}

func (c *Controller) loadSubtasks(ctx context.Context, f *frame) (*notify.Notification, error) {
	if f.task == nil {
		return nil, nil
	}

	subtasks, err := c.api.ListTasks(ctx, f.task.ID)
	if err != nil {
		return notify.Error("Failed to load subtasks", err), err
	}

	c.mu.Lock()
	f.subtasks = subtasks
	c.mu.Unlock()
	return nil, nil
}

func (c *Controller) push(f *frame) error {
	if len(c.stack) >= MaxDepth {
		return ErrTooDeep
	}
	c.stack = append(c.stack, f)
	return nil
}

// pop removes the top frame and returns the new top, if any.
func (c *Controller) pop() *frame {
	if len(c.stack) == 0 {
		return nil
	}
	c.stack[len(c.stack)-1] = nil
	c.stack = c.stack[:len(c.stack)-1]
	return c.top()
}

func (c *Controller) top() *frame {
	if len(c.stack) == 0 {
		return nil
	}
	return c.stack[len(c.stack)-1]
}
