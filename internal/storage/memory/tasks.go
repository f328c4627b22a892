package memory

import (
	"context"
	"slices"
	"time"

	"github.com/adanyl0v/taskboard/internal/models"
	"github.com/adanyl0v/taskboard/internal/services"
)

type taskRepository struct {
	g guard
}

func (r *taskRepository) GetTaskByID(ctx context.Context, id string) (task *models.Task, err error) {
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	r.g.read(func(st *state) {
		t, ok := st.tasks[id]
		if !ok {
			err = services.ErrTaskNotFound
			return
		}
		task = populate(st, t)
	})
	return task, err
}

func (r *taskRepository) TaskExists(ctx context.Context, id string) (exists bool, err error) {
	if err = ctx.Err(); err != nil {
		return false, err
	}

	r.g.read(func(st *state) {
		_, exists = st.tasks[id]
	})
	return exists, nil
}

func (r *taskRepository) ListTasks(ctx context.Context, filter services.TaskFilter) (tasks []*models.Task, err error) {
	if err = ctx.Err(); err != nil {
		return nil, err
	}

	r.g.read(func(st *state) {
		tasks = make([]*models.Task, 0, len(st.taskOrder))
		for _, id := range st.taskOrder {
			t := st.tasks[id]
			if filter.ParentID != nil && (t.ParentID == nil || *t.ParentID != *filter.ParentID) {
				continue
			}
			tasks = append(tasks, populate(st, t))
		}
	})
	return tasks, nil
}

func (r *taskRepository) InsertTask(ctx context.Context, task *models.Task) (err error) {
	if err = ctx.Err(); err != nil {
		return err
	}

	r.g.write(func(st *state) {
		st.tasks[task.ID] = cloneTask(task)
		st.taskOrder = append(st.taskOrder, task.ID)
	})
	return nil
}

func (r *taskRepository) UpdateTask(ctx context.Context, task *models.Task) (err error) {
	if err = ctx.Err(); err != nil {
		return err
	}

	r.g.write(func(st *state) {
		current, ok := st.tasks[task.ID]
		if !ok {
			err = services.ErrTaskNotFound
			return
		}

		updated := cloneTask(task)
		updated.CreatedBy = current.CreatedBy
		updated.CreatedAt = current.CreatedAt
		st.tasks[task.ID] = updated
	})
	return err
}

func (r *taskRepository) DeleteTask(ctx context.Context, id string) (err error) {
	if err = ctx.Err(); err != nil {
		return err
	}

	r.g.write(func(st *state) {
		if _, ok := st.tasks[id]; !ok {
			err = services.ErrTaskNotFound
			return
		}
		delete(st.tasks, id)
		st.taskOrder = slices.DeleteFunc(st.taskOrder, func(v string) bool { return v == id })
	})
	return err
}

// populate returns a copy of t with creator and assignee resolved.
func populate(st *state, t *models.Task) *models.Task {
	c := cloneTask(t)
	c.Creator = cloneUser(st.users[t.CreatedBy])
	if t.AssignedTo != nil {
		c.Assignee = cloneUser(st.users[*t.AssignedTo])
	}
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
