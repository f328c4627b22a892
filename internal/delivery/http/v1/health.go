package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type healthResponse struct {
	Status string `json:"status"`
}

func (h *handlerImpl) HandleHealth(c *gin.Context) {
	err := h.storage.Ping(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("storage is unreachable")
		c.JSON(http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	c.JSON(http.StatusOK, healthResponse{Status: "ok"})
}
