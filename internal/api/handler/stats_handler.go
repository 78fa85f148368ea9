package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetStats handles GET /api/v1/stats
// Returns a point-in-time snapshot of the processing counters, queue
// depth, and recent failure reasons.
func (h *StatsHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller.StatsSnapshot())
}
