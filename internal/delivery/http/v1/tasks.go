package v1

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/taskboard/internal/models"
	"github.com/adanyl0v/taskboard/internal/services"
)

type taskResponse struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Status      models.TaskStatus `json:"status"`
	Type        models.TaskType   `json:"type"`
	CreatedBy   userResponse      `json:"createdBy"`
	AssignedTo  *userResponse     `json:"assignedTo,omitempty"`
	ParentID    *string           `json:"parentId,omitempty"`
	StartDate   *string           `json:"startDate,omitempty"`
	DueDate     *string           `json:"dueDate,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

func newTaskResponse(task *models.Task) taskResponse {
	resp := taskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Type:        task.Type,
		CreatedBy:   userResponse{ID: task.CreatedBy},
		ParentID:    task.ParentID,
		StartDate:   formatDate(task.StartDate),
		DueDate:     formatDate(task.DueDate),
		CreatedAt:   task.CreatedAt,
	}
	if task.Creator != nil {
		resp.CreatedBy = newUserResponse(task.Creator)
	}
	if task.Assignee != nil {
		assignee := newUserResponse(task.Assignee)
		resp.AssignedTo = &assignee
	} else if task.AssignedTo != nil {
		resp.AssignedTo = &userResponse{ID: *task.AssignedTo}
	}
	return resp
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(models.DateLayout)
	return &s
}

type createTaskRequest struct {
	Title       string             `json:"title" binding:"max=255"`
	Description *string            `json:"description"`
	Status      *models.TaskStatus `json:"status"`
	Type        *models.TaskType   `json:"type"`
	CreatedBy   *string            `json:"createdBy"`
	AssignedTo  *string            `json:"assignedTo"`
	ParentID    *string            `json:"parentId"`
	StartDate   *string            `json:"startDate"`
	DueDate     *string            `json:"dueDate"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		h.logger.Error().Msg("no user found in context")
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.CreateTask(c, services.CreateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Type:        req.Type,
		CreatedBy:   req.CreatedBy,
		AssignedTo:  req.AssignedTo,
		ParentID:    req.ParentID,
		StartDate:   req.StartDate,
		DueDate:     req.DueDate,
	}, user.ID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to create task")
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusCreated, newTaskResponse(task))
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	var filter services.TaskFilter
	if parentID, ok := c.GetQuery("parentId"); ok {
		filter.ParentID = &parentID
	}

	tasks, err := h.tasks.ListTasks(c, filter)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list tasks")
		abort(c, newServiceError(err))
		return
	}

	resp := make([]taskResponse, 0, len(tasks))
	for _, task := range tasks {
		resp = append(resp, newTaskResponse(task))
	}
	c.JSON(http.StatusOK, resp)
}

// HandleGetTask responds with null rather than 404 for an unknown id.
func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	id := c.Param("id")
	task, err := h.tasks.GetTask(c, id)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to get task")
		abort(c, newServiceError(err))
		return
	}

	if task == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, newTaskResponse(task))
}

// nullableString tells an explicit null apart from an absent field.
type nullableString struct {
	Set   bool
	Value *string
}

func (n *nullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	return json.Unmarshal(data, &n.Value)
}

// patch returns nil for an absent field and an empty string for null,
// which the task service reads as "clear".
func (n nullableString) patch() *string {
	if !n.Set {
		return nil
	}
	if n.Value == nil {
		empty := ""
		return &empty
	}
	return n.Value
}

type updateTaskRequest struct {
	Title       *string            `json:"title" binding:"omitempty,max=255"`
	Description *string            `json:"description"`
	Status      *models.TaskStatus `json:"status"`
	Type        *models.TaskType   `json:"type"`
	AssignedTo  nullableString     `json:"assignedTo"`
	ParentID    nullableString     `json:"parentId"`
	StartDate   nullableString     `json:"startDate"`
	DueDate     nullableString     `json:"dueDate"`
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	id := c.Param("id")

	var req updateTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.UpdateTask(c, id, services.UpdateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Type:        req.Type,
		AssignedTo:  req.AssignedTo.patch(),
		ParentID:    req.ParentID.patch(),
		StartDate:   req.StartDate.patch(),
		DueDate:     req.DueDate.patch(),
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to update task")
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	id := c.Param("id")
	err := h.tasks.RemoveTask(c, id)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to delete task")
		abort(c, newServiceError(err))
		return
	}

	c.Status(http.StatusNoContent)
}
