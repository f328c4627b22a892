package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/taskboard/internal/models"
)

// maxTaskDepth bounds the ancestor walk used to reject parent cycles.
const maxTaskDepth = 64

type taskServiceImpl struct {
	logger zerolog.Logger
	store  Store
	now    func() time.Time
}

func NewTaskService(
	logger zerolog.Logger,
	store Store,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		store:  store,
		now:    time.Now,
	}
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams, actingUserID string) (*models.Task, error) {
	task, err := s.newTask(params, actingUserID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("invalid task")
		return nil, err
	}

	var created *models.Task
	err = s.store.WithinTx(ctx, func(tx Store) error {
		err := requireUser(ctx, tx, task.CreatedBy, ErrUserNotFound)
		if err != nil {
			return err
		}

		if task.AssignedTo != nil {
			err = requireUser(ctx, tx, *task.AssignedTo, ErrAssigneeNotFound)
			if err != nil {
				return err
			}
		}

		if task.ParentID != nil {
			err = requireTask(ctx, tx, *task.ParentID)
			if err != nil {
				return err
			}
		}

		err = tx.Tasks().InsertTask(ctx, task)
		if err != nil {
			return err
		}

		created, err = tx.Tasks().GetTaskByID(ctx, task.ID)
		return err
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("created_by", task.CreatedBy).
			Msg("failed to create task")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", created.ID).
		Str("type", string(created.Type)).
		Str("created_by", created.CreatedBy).
		Msg("created task")
	return created, nil
}

func (s *taskServiceImpl) newTask(params CreateTaskParams, actingUserID string) (*models.Task, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, validationError("title must not be empty")
	}

	task := &models.Task{
		Title:      title,
		Status:     models.StatusPending,
		Type:       models.TypeTask,
		CreatedBy:  actingUserID,
		AssignedTo: normalizeRef(params.AssignedTo),
		ParentID:   normalizeRef(params.ParentID),
		CreatedAt:  s.now().UTC(),
	}
	if createdBy := normalizeRef(params.CreatedBy); createdBy != nil {
		task.CreatedBy = *createdBy
	}
	if task.CreatedBy == "" {
		return nil, validationError("creator is required")
	}

	if params.Description != nil {
		task.Description = *params.Description
	}
	if params.Status != nil {
		if !params.Status.Valid() {
			return nil, validationError("unknown status %q", *params.Status)
		}
		task.Status = *params.Status
	}
	if params.Type != nil {
		if !params.Type.Valid() {
			return nil, validationError("unknown type %q", *params.Type)
		}
		task.Type = *params.Type
	}
	if task.Type == models.TypeSubtask && task.ParentID == nil {
		return nil, validationError("subtask requires a parent")
	}

	var err error
	task.StartDate, err = parseOptionalDate("startDate", params.StartDate)
	if err != nil {
		return nil, err
	}
	task.DueDate, err = parseOptionalDate("dueDate", params.DueDate)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	task.ID = id.String()
	return task, nil
}

func (s *taskServiceImpl) ListTasks(ctx context.Context, filter TaskFilter) ([]*models.Task, error) {
	tasks, err := s.store.Tasks().ListTasks(ctx, filter)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to list tasks")
		return nil, err
	}
	s.logger.Debug().
		Int("count", len(tasks)).
		Msg("listed tasks")
	return tasks, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.store.Tasks().GetTaskByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			s.logger.Debug().
				Str("task_id", id).
				Msg("task not found")
			return nil, nil
		}

		s.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to get task")
		return nil, err
	}
	return task, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, id string, params UpdateTaskParams) (*models.Task, error) {
	var updated *models.Task
	err := s.store.WithinTx(ctx, func(tx Store) error {
		task, err := tx.Tasks().GetTaskByID(ctx, id)
		if err != nil {
			return err
		}

		err = s.applyPatch(ctx, tx, task, params)
		if err != nil {
			return err
		}

		err = tx.Tasks().UpdateTask(ctx, task)
		if err != nil {
			return err
		}

		updated, err = tx.Tasks().GetTaskByID(ctx, id)
		return err
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to update task")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", id).
		Str("status", string(updated.Status)).
		Msg("updated task")
	return updated, nil
}

// applyPatch overwrites the fields present in params. Validation happens
// before any field is written so a rejected patch leaves task intact.
func (s *taskServiceImpl) applyPatch(ctx context.Context, tx Store, task *models.Task, params UpdateTaskParams) error {
	next := *task

	if params.Title != nil {
		title := strings.TrimSpace(*params.Title)
		if title == "" {
			return validationError("title must not be empty")
		}
		next.Title = title
	}
	if params.Description != nil {
		next.Description = *params.Description
	}
	if params.Status != nil {
		if !params.Status.Valid() {
			return validationError("unknown status %q", *params.Status)
		}
		next.Status = *params.Status
	}
	if params.Type != nil {
		if !params.Type.Valid() {
			return validationError("unknown type %q", *params.Type)
		}
		next.Type = *params.Type
	}

	if params.AssignedTo != nil {
		assignedTo := normalizeRef(params.AssignedTo)
		if assignedTo != nil {
			err := requireUser(ctx, tx, *assignedTo, ErrAssigneeNotFound)
			if err != nil {
				return err
			}
		}
		next.AssignedTo = assignedTo
		next.Assignee = nil
	}

	if params.ParentID != nil {
		parentID := normalizeRef(params.ParentID)
		if parentID != nil {
			err := requireTask(ctx, tx, *parentID)
			if err != nil {
				return err
			}
			err = checkParentCycle(ctx, tx, task.ID, *parentID)
			if err != nil {
				return err
			}
		}
		next.ParentID = parentID
	}

	if next.Type == models.TypeSubtask && next.ParentID == nil {
		return validationError("subtask requires a parent")
	}

	var err error
	if params.StartDate != nil {
		next.StartDate, err = parseOptionalDate("startDate", params.StartDate)
		if err != nil {
			return err
		}
	}
	if params.DueDate != nil {
		next.DueDate, err = parseOptionalDate("dueDate", params.DueDate)
		if err != nil {
			return err
		}
	}

	*task = next
	return nil
}

func (s *taskServiceImpl) RemoveTask(ctx context.Context, id string) error {
	err := s.store.WithinTx(ctx, func(tx Store) error {
		exists, err := tx.Tasks().TaskExists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return ErrTaskNotFound
		}
		return tx.Tasks().DeleteTask(ctx, id)
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to delete task")
		return err
	}

	s.logger.Info().
		Str("task_id", id).
		Msg("deleted task")
	return nil
}

func requireUser(ctx context.Context, tx Store, id string, notFound error) error {
	exists, err := tx.Users().UserExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return nil
}

func requireTask(ctx context.Context, tx Store, id string) error {
	exists, err := tx.Tasks().TaskExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrParentNotFound, id)
	}
	return nil
}

// checkParentCycle walks up from parentID and fails if it reaches taskID.
// Dangling references end the walk.
func checkParentCycle(ctx context.Context, tx Store, taskID, parentID string) error {
	current := parentID
	for depth := 0; depth < maxTaskDepth; depth++ {
		if current == taskID {
			return validationError("task %s cannot be its own ancestor", taskID)
		}

		ancestor, err := tx.Tasks().GetTaskByID(ctx, current)
		if err != nil {
			if errors.Is(err, ErrTaskNotFound) {
				return nil
			}
			return err
		}
		if ancestor.ParentID == nil {
			return nil
		}
		current = *ancestor.ParentID
	}
	return validationError("task hierarchy deeper than %d levels", maxTaskDepth)
}

func normalizeRef(ref *string) *string {
	if ref == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*ref)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// parseOptionalDate accepts a calendar date or an RFC 3339 timestamp, the
// latter being truncated to its UTC calendar date. An empty string
// clears the date.
func parseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	raw := strings.TrimSpace(*value)

	date, err := time.Parse(models.DateLayout, raw)
	if err == nil {
		return &date, nil
	}

	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, validationError("%s must be an ISO 8601 date, got %q", field, raw)
	}
	ts = ts.UTC()
	date = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	return &date, nil
}
