package services

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestMonitoringMiddlewareRecordsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ms := NewMonitoringService()
	router := gin.New()
	router.Use(ms.LoggingMiddleware())
	router.GET("/api/v1/sample-dataset", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/sample-dataset", nil)
		router.ServeHTTP(w, req)
	}

	// health checks are not recorded
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	data := ms.GetDashboardData(1)
	assert.Equal(t, 3, data.TotalRequests)
	assert.Equal(t, 3, data.Endpoints["/api/v1/sample-dataset"])
	assert.Equal(t, 3, data.StatusClasses["2xx"])
	assert.Zero(t, data.Endpoints["/health"])
	assert.Empty(t, data.RecentErrors)
}

func TestDashboardDataAggregation(t *testing.T) {
	ms := NewMonitoringService()
	now := time.Now()

	ms.LogRequest(RequestLog{Timestamp: now, Path: "/a", Method: "GET", StatusCode: 200, ResponseTime: 10 * time.Millisecond})
	ms.LogRequest(RequestLog{Timestamp: now, Path: "/a", Method: "GET", StatusCode: 500, ResponseTime: 30 * time.Millisecond})
	ms.LogRequest(RequestLog{Timestamp: now, Path: "/b", Method: "POST", StatusCode: 400, ResponseTime: 20 * time.Millisecond})
	// outside the 1 hour window, must be excluded
	ms.LogRequest(RequestLog{Timestamp: now.Add(-2 * time.Hour), Path: "/a", Method: "GET", StatusCode: 200})

	data := ms.GetDashboardData(1)
	assert.Equal(t, 3, data.TotalRequests)
	assert.Equal(t, 2, data.Endpoints["/a"])
	assert.Equal(t, 1, data.StatusClasses["2xx"])
	assert.Equal(t, 1, data.StatusClasses["4xx"])
	assert.Equal(t, 1, data.StatusClasses["5xx"])
	assert.Equal(t, int64(20), data.AvgResponseMs["/a"])
	assert.Len(t, data.RecentErrors, 1)
	assert.Equal(t, 500, data.RecentErrors[0].StatusCode)
}
