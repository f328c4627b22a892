package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/adanyl0v/taskboard/internal/models"
	"github.com/adanyl0v/taskboard/internal/services"
)

type taskRepository struct {
	q querier
}

const selectTaskColumns = `
SELECT t.id,
       t.title,
       t.description,
       t.status,
       t.type,
       t.created_by,
       t.assigned_to,
       t.parent_id,
       t.start_date,
       t.due_date,
       t.created_at,
       c.id,
       c.email,
       c.username,
       c.created_at,
       a.id,
       a.email,
       a.username,
       a.created_at
FROM tasks t
         LEFT JOIN users c ON c.id = t.created_by
         LEFT JOIN users a ON a.id = t.assigned_to
`

// relatedUser holds the nullable columns of a LEFT JOINed user.
type relatedUser struct {
	ID        *string
	Email     *string
	Username  *string
	CreatedAt *time.Time
}

func (u relatedUser) user() *models.User {
	if u.ID == nil {
		return nil
	}

	user := &models.User{ID: *u.ID}
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.Username != nil {
		user.Username = *u.Username
	}
	if u.CreatedAt != nil {
		user.CreatedAt = *u.CreatedAt
	}
	return user
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var (
		task              models.Task
		creator, assignee relatedUser
	)
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Type,
		&task.CreatedBy,
		&task.AssignedTo,
		&task.ParentID,
		&task.StartDate,
		&task.DueDate,
		&task.CreatedAt,
		&creator.ID,
		&creator.Email,
		&creator.Username,
		&creator.CreatedAt,
		&assignee.ID,
		&assignee.Email,
		&assignee.Username,
		&assignee.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Creator = creator.user()
	task.Assignee = assignee.user()
	return &task, nil
}

func (r *taskRepository) GetTaskByID(ctx context.Context, id string) (*models.Task, error) {
	if !validID(id) {
		return nil, services.ErrTaskNotFound
	}

	task, err := scanTask(r.q.QueryRow(ctx, selectTaskColumns+`WHERE t.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) TaskExists(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}

	const selectTaskForShareQuery = `
SELECT 1
FROM tasks
WHERE id = $1
FOR SHARE
`
	var one int
	err := r.q.QueryRow(ctx, selectTaskForShareQuery, id).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *taskRepository) ListTasks(ctx context.Context, filter services.TaskFilter) ([]*models.Task, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if filter.ParentID != nil {
		if !validID(*filter.ParentID) {
			return make([]*models.Task, 0), nil
		}
		rows, err = r.q.Query(ctx, selectTaskColumns+`
WHERE t.parent_id = $1
ORDER BY t.created_at, t.id`, *filter.ParentID)
	} else {
		rows, err = r.q.Query(ctx, selectTaskColumns+`
ORDER BY t.created_at, t.id`)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) InsertTask(ctx context.Context, task *models.Task) error {
	const insertTaskQuery = `
INSERT INTO tasks (id,
                   title,
                   description,
                   status,
                   type,
                   created_by,
                   assigned_to,
                   parent_id,
                   start_date,
                   due_date,
                   created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`
	_, err := r.q.Exec(
		ctx,
		insertTaskQuery,
		task.ID,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Type),
		task.CreatedBy,
		task.AssignedTo,
		task.ParentID,
		task.StartDate,
		task.DueDate,
		task.CreatedAt,
	)
	return err
}

// UpdateTask writes the mutable columns. created_by and created_at are
// never touched.
func (r *taskRepository) UpdateTask(ctx context.Context, task *models.Task) error {
	if !validID(task.ID) {
		return services.ErrTaskNotFound
	}

	const updateTaskQuery = `
UPDATE tasks
SET title = $1,
    description = $2,
    status = $3,
    type = $4,
    assigned_to = $5,
    parent_id = $6,
    start_date = $7,
    due_date = $8
WHERE id = $9
`
	tag, err := r.q.Exec(
		ctx,
		updateTaskQuery,
		task.Title,
		task.Description,
		string(task.Status),
		string(task.Type),
		task.AssignedTo,
		task.ParentID,
		task.StartDate,
		task.DueDate,
		task.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return services.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) DeleteTask(ctx context.Context, id string) error {
	if !validID(id) {
		return services.ErrTaskNotFound
	}

	const deleteTaskQuery = `
DELETE FROM tasks
       WHERE id = $1
`
	tag, err := r.q.Exec(ctx, deleteTaskQuery, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return services.ErrTaskNotFound
	}
	return nil
}
