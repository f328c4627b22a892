package v1

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/taskboard/internal/models"
	"github.com/adanyl0v/taskboard/internal/services"
)

type userResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username,omitempty"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

func (h *handlerImpl) HandleCreateUser(c *gin.Context) {
	var req registerRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	user, err := h.users.CreateUser(c, services.CreateUserParams{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create user")
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusCreated, newUserResponse(user))
}

func (h *handlerImpl) HandleGetUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list users")
		abort(c, newServiceError(err))
		return
	}

	resp := make([]userResponse, 0, len(users))
	for _, user := range users {
		resp = append(resp, newUserResponse(user))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlerImpl) HandleGetCurrentUser(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

type updateUserRequest struct {
	Username *string `json:"username" binding:"omitempty,max=255"`
}

func (h *handlerImpl) HandleUpdateCurrentUser(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}

	var req updateUserRequest
	err := c.ShouldBindJSON(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		h.logger.Debug().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	updated, err := h.users.UpdateUser(c, user.ID, services.UpdateUserParams{
		Username: req.Username,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to update user")
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusOK, newUserResponse(updated))
}

func (h *handlerImpl) HandleDeleteCurrentUser(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		abort(c, newStatusTextError(http.StatusUnauthorized))
		return
	}
	h.removeUser(c, user.ID)
}

func (h *handlerImpl) HandleDeleteUser(c *gin.Context) {
	h.removeUser(c, c.Param("id"))
}

func (h *handlerImpl) removeUser(c *gin.Context, id string) {
	removed, err := h.users.RemoveUser(c, id)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("user_id", id).
			Msg("failed to delete user")
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusOK, newUserResponse(removed))
}
