package v1

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/taskboard/internal/models"
)

const userCtxKey = "user"

func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	const authHeader = "Authorization"
	header := c.GetHeader(authHeader)
	if header == "" {
		h.logger.Debug().Msg("authorization header required")
		abort(c, newUnauthorizedError(errAuthorizationRequired.Error()))
		return
	}

	const bearerPrefix = "Bearer"
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != bearerPrefix || parts[1] == "" {
		h.logger.Debug().Msg("invalid authorization header")
		abort(c, newUnauthorizedError(errInvalidAuthorization.Error()))
		return
	}

	user, err := h.auth.Authenticate(c, parts[1])
	if err != nil {
		apiErr := newServiceError(err)
		if apiErr.Code == http.StatusInternalServerError {
			h.logger.Error().
				Err(err).
				Msg("failed to authenticate")
		}
		abort(c, apiErr)
		return
	}

	c.Set(userCtxKey, user)
	c.Next()
}

// currentUser returns the user stored by HandleAuthMiddleware.
func currentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(userCtxKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}

// HandleRateLimitMiddleware throttles clients by IP. Requests pass through
// when the limiter is unavailable.
func (h *handlerImpl) HandleRateLimitMiddleware(c *gin.Context) {
	if h.limiter == nil {
		c.Next()
		return
	}

	clientIP := c.ClientIP()
	result, err := h.limiter.Allow(c, clientIP)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Str("client_ip", clientIP).
			Msg("rate limiter unavailable, allowing request")
		c.Next()
		return
	}

	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	if !result.Allowed {
		retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
		c.Header("Retry-After", strconv.Itoa(max(retryAfter, 1)))
		h.logger.Debug().
			Str("client_ip", clientIP).
			Dur("retry_after", result.RetryAfter).
			Msg("rate limit exceeded")
		abort(c, newAPIError(http.StatusTooManyRequests, errTooManyRequests.Error()))
		return
	}
	c.Next()
}
