package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/taskboard/internal/services"
)

var (
	errInvalidRequestBody    = errors.New("invalid request body")
	errAuthorizationRequired = errors.New("authorization header required")
	errInvalidAuthorization  = errors.New("invalid authorization header")
	errTooManyRequests       = errors.New("too many requests")
)

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newAPIError(code int, message string) apiError {
	return apiError{
		Code:    code,
		Message: message,
	}
}

func (e apiError) Error() string {
	return e.Message
}

func abort(c *gin.Context, err apiError) {
	c.AbortWithStatusJSON(err.Code, gin.H{"error": err.Message})
}

func newStatusTextError(status int) apiError {
	return newAPIError(status, http.StatusText(status))
}

func newBadRequestError(message string) apiError {
	return newAPIError(http.StatusBadRequest, message)
}

func newUnauthorizedError(message string) apiError {
	return newAPIError(http.StatusUnauthorized, message)
}

func newNotFoundError(message string) apiError {
	return newAPIError(http.StatusNotFound, message)
}

func newConflictError(message string) apiError {
	return newAPIError(http.StatusConflict, message)
}

// newServiceError translates an error returned by the services package.
// Unknown errors become a 500 without leaking their text.
func newServiceError(err error) apiError {
	switch {
	case errors.Is(err, services.ErrValidation):
		return newBadRequestError(err.Error())
	case errors.Is(err, services.ErrNotFound):
		return newNotFoundError(err.Error())
	case errors.Is(err, services.ErrConflict):
		return newConflictError(err.Error())
	case errors.Is(err, services.ErrTokenExpired):
		return newUnauthorizedError(services.ErrTokenExpired.Error())
	case errors.Is(err, services.ErrInvalidToken):
		return newUnauthorizedError(services.ErrInvalidToken.Error())
	case errors.Is(err, services.ErrUnauthorized):
		return newUnauthorizedError(err.Error())
	default:
		return newStatusTextError(http.StatusInternalServerError)
	}
}
