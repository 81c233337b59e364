package handlers

import (
	"net/http"
	"strconv"

	"insightforge-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// MonitoringHandler exposes the in-memory request monitoring dashboard.
type MonitoringHandler struct {
	monitoringService *services.MonitoringService
}

// NewMonitoringHandler creates a new MonitoringHandler.
func NewMonitoringHandler(monitoringService *services.MonitoringService) *MonitoringHandler {
	return &MonitoringHandler{monitoringService: monitoringService}
}

// GetDashboard returns aggregated request statistics for the trailing
// period (default 24 hours).
func (mh *MonitoringHandler) GetDashboard(c *gin.Context) {
	periodHours := 24
	if raw := c.Query("period_hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 168 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "period_hours must be between 1 and 168"})
			return
		}
		periodHours = parsed
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    mh.monitoringService.GetDashboardData(periodHours),
	})
}
