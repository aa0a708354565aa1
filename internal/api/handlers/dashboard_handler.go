package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/netsentinel/console/backend/internal/services"
)

type DashboardHandler struct {
	dashboard *services.DashboardService
}

func NewDashboardHandler(dashboard *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Summary returns the point-in-time aggregate for the dashboard. The
// lookback window defaults to 24h and accepts Go duration syntax.
func (h *DashboardHandler) Summary(c *gin.Context) {
	var lookback time.Duration
	if raw := c.Query("lookback"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lookback duration"})
			return
		}
		lookback = parsed
	}

	snapshot, err := h.dashboard.Snapshot(lookback)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}
