package services

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLog is a single recorded API request.
type RequestLog struct {
	Timestamp    time.Time     `json:"timestamp"`
	Path         string        `json:"path"`
	Method       string        `json:"method"`
	StatusCode   int           `json:"status_code"`
	ResponseTime time.Duration `json:"response_time"`
}

// MonitoringService records requests in memory and aggregates them for the
// monitoring dashboard.
type MonitoringService struct {
	logs []RequestLog
	mu   sync.RWMutex
}

// NewMonitoringService creates a new MonitoringService.
func NewMonitoringService() *MonitoringService {
	return &MonitoringService{
		logs: make([]RequestLog, 0),
	}
}

// LogRequest appends one request record.
func (s *MonitoringService) LogRequest(entry RequestLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
}

// LoggingMiddleware records every request except health checks and the
// monitoring endpoints themselves.
func (s *MonitoringService) LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.Request.URL.Path
		if path == "/health" || strings.HasPrefix(path, "/api/v1/monitoring") {
			return
		}

		s.LogRequest(RequestLog{
			Timestamp:    start,
			Path:         path,
			Method:       c.Request.Method,
			StatusCode:   c.Writer.Status(),
			ResponseTime: time.Since(start),
		})
	}
}

// DashboardData is the aggregated view served by the monitoring endpoint.
type DashboardData struct {
	TotalRequests  int                      `json:"total_requests"`
	Endpoints      map[string]int           `json:"endpoints"`
	StatusClasses  map[string]int           `json:"status_classes"`
	AvgResponseMs  map[string]int64         `json:"avg_response_ms"`
	RecentErrors   []RequestLog             `json:"recent_errors"`
	RequestsByHour []map[string]interface{} `json:"requests_by_hour"`
}

// GetDashboardData aggregates the request log over the trailing periodHours.
func (s *MonitoringService) GetDashboardData(periodHours int) DashboardData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	since := now.Add(-time.Duration(periodHours) * time.Hour)

	filtered := make([]RequestLog, 0)
	for _, entry := range s.logs {
		if entry.Timestamp.After(since) {
			filtered = append(filtered, entry)
		}
	}

	endpoints := make(map[string]int)
	statusClasses := map[string]int{"2xx": 0, "4xx": 0, "5xx": 0}
	responseSum := make(map[string]time.Duration)
	responseCount := make(map[string]int)

	for _, entry := range filtered {
		endpoints[entry.Path]++
		switch {
		case entry.StatusCode >= 200 && entry.StatusCode < 300:
			statusClasses["2xx"]++
		case entry.StatusCode >= 400 && entry.StatusCode < 500:
			statusClasses["4xx"]++
		case entry.StatusCode >= 500:
			statusClasses["5xx"]++
		}
		responseSum[entry.Path] += entry.ResponseTime
		responseCount[entry.Path]++
	}

	avgResponseMs := make(map[string]int64)
	for path, total := range responseSum {
		avgResponseMs[path] = total.Milliseconds() / int64(responseCount[path])
	}

	// hourly buckets, oldest first
	requestsByHour := make([]map[string]interface{}, periodHours)
	buckets := make(map[string]int)
	for i := 0; i < periodHours; i++ {
		targetTime := now.Add(-time.Duration(periodHours-1-i) * time.Hour)
		bucketKey := targetTime.Truncate(time.Hour).Format(time.RFC3339)
		buckets[bucketKey] = 0
		requestsByHour[i] = map[string]interface{}{
			"hour":     targetTime.Format("15:00"),
			"requests": 0,
		}
	}
	for _, entry := range filtered {
		buckets[entry.Timestamp.Truncate(time.Hour).Format(time.RFC3339)]++
	}
	for i := 0; i < periodHours; i++ {
		targetTime := now.Add(-time.Duration(periodHours-1-i) * time.Hour)
		bucketKey := targetTime.Truncate(time.Hour).Format(time.RFC3339)
		if count, ok := buckets[bucketKey]; ok {
			requestsByHour[i]["requests"] = count
		}
	}

	recentErrors := make([]RequestLog, 0)
	for i := len(filtered) - 1; i >= 0 && len(recentErrors) < 10; i-- {
		if filtered[i].StatusCode >= 500 {
			recentErrors = append(recentErrors, filtered[i])
		}
	}

	return DashboardData{
		TotalRequests:  len(filtered),
		Endpoints:      endpoints,
		StatusClasses:  statusClasses,
		AvgResponseMs:  avgResponseMs,
		RecentErrors:   recentErrors,
		RequestsByHour: requestsByHour,
	}
}
