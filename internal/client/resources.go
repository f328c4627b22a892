package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/adanyl0v/taskboard/internal/models"
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username,omitempty"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// DisplayName is the username, or the email for users without one.
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

type Task struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Status      models.TaskStatus `json:"status"`
	Type        models.TaskType   `json:"type"`
	CreatedBy   User              `json:"createdBy"`
	AssignedTo  *User             `json:"assignedTo,omitempty"`
	ParentID    *string           `json:"parentId,omitempty"`
	StartDate   *string           `json:"startDate,omitempty"`
	DueDate     *string           `json:"dueDate,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// CreateTaskInput holds the fields of a new task. Nil fields are omitted
// and take their server-side defaults.
type CreateTaskInput struct {
	Title       string             `json:"title"`
	Description *string            `json:"description,omitempty"`
	Status      *models.TaskStatus `json:"status,omitempty"`
	Type        *models.TaskType   `json:"type,omitempty"`
	AssignedTo  *string            `json:"assignedTo,omitempty"`
	ParentID    *string            `json:"parentId,omitempty"`
	StartDate   *string            `json:"startDate,omitempty"`
	DueDate     *string            `json:"dueDate,omitempty"`
}

// UpdateTaskInput is a partial update; nil fields are left unchanged.
// UpdateTaskInput is a partial update. An empty AssignedTo or ParentID
// clears the reference.
type UpdateTaskInput struct {
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	Status      *models.TaskStatus `json:"status,omitempty"`
	AssignedTo  *string            `json:"assignedTo,omitempty"`
	ParentID    *string            `json:"parentId,omitempty"`
	StartDate   *string            `json:"startDate,omitempty"`
	DueDate     *string            `json:"dueDate,omitempty"`
}

// ListTasks returns all tasks, or only the subtasks of parentID when it
// is not empty.
func (c *Client) ListTasks(ctx context.Context, parentID string) ([]Task, error) {
	path := "/task"
	if parentID != "" {
		path += "?" + url.Values{"parentId": {parentID}}.Encode()
	}

	var tasks []Task
	err := c.do(ctx, request{method: http.MethodGet, path: path, authed: true}, &tasks)
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// GetTask returns nil and no error if the task doesn't exist.
func (c *Client) GetTask(ctx context.Context, id string) (*Task, error) {
	var task *Task
	err := c.do(ctx, request{method: http.MethodGet, path: "/task/" + url.PathEscape(id), authed: true}, &task)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (c *Client) CreateTask(ctx context.Context, in CreateTaskInput) (*Task, error) {
	var task Task
	err := c.do(ctx, request{method: http.MethodPost, path: "/task", body: in, authed: true}, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, in UpdateTaskInput) (*Task, error) {
	var task Task
	err := c.do(ctx, request{method: http.MethodPatch, path: "/task/" + url.PathEscape(id), body: in, authed: true}, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/task/" + url.PathEscape(id), authed: true}, nil)
}

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := c.do(ctx, request{method: http.MethodGet, path: "/user", authed: true}, &users)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	err := c.do(ctx, request{method: http.MethodGet, path: "/user/me", authed: true}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateMe(ctx context.Context, username string) (*User, error) {
	body := struct {
		Username string `json:"username"`
	}{username}

	var user User
	err := c.do(ctx, request{method: http.MethodPatch, path: "/user/me", body: body, authed: true}, &user)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.session.User != nil && c.session.User.ID == user.ID {
		updated := user
		c.session.User = &updated
	}
	session := c.session
	c.mu.Unlock()
	c.persist(&session)
	return &user, nil
}
