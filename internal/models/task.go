package models

import "time"

type TaskStatus string

const (
	StatusPending   TaskStatus = "PENDING"
	StatusCompleted TaskStatus = "COMPLETED"
)

func (s TaskStatus) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

type TaskType string

const (
	TypeTask    TaskType = "TASK"
	TypeSubtask TaskType = "SUBTASK"
)

func (t TaskType) Valid() bool {
	return t == TypeTask || t == TypeSubtask
}

// Task is a unit of work. CreatedBy and AssignedTo hold the referenced
// user ids; Creator and Assignee are populated when the task is read
// together with its relations.
type Task struct {
	ID          string
	Title       string
	Description string
	Status      TaskStatus
	Type        TaskType
	CreatedBy   string
	AssignedTo  *string
	ParentID    *string
	StartDate   *time.Time
	DueDate     *time.Time
	CreatedAt   time.Time

	Creator  *User
	Assignee *User
}

// DateLayout is the wire and storage layout of calendar dates.
const DateLayout = time.DateOnly
