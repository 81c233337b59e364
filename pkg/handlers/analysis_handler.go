package handlers

import (
	"net/http"
	"time"

	"insightforge-api/pkg/models"
	"insightforge-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// AnalysisHandler serves filter updates and the derived metrics.
type AnalysisHandler struct {
	sessionService  *services.SessionService
	analysisService *services.AnalysisService
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(sessionService *services.SessionService, analysisService *services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{
		sessionService:  sessionService,
		analysisService: analysisService,
	}
}

// SetFilters replaces the session's filter selection. Filtering never
// fails; an empty region or category list simply selects nothing.
func (ah *AnalysisHandler) SetFilters(c *gin.Context) {
	session, ok := lookupSession(c, ah.sessionService)
	if !ok {
		return
	}

	var req models.FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid filter request: " + err.Error()})
		return
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid start_date, expected YYYY-MM-DD"})
		return
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid end_date, expected YYYY-MM-DD"})
		return
	}

	filter := models.FilterParams{
		StartDate:  startDate,
		EndDate:    endDate,
		Regions:    req.Regions,
		Categories: req.Categories,
	}
	if filter.Regions == nil {
		filter.Regions = []string{}
	}
	if filter.Categories == nil {
		filter.Categories = []string{}
	}
	ah.sessionService.SetFilter(session, filter)

	rows := ah.analysisService.ApplyFilter(session.Dataset, session.Filter)

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"filtered_rows": len(rows),
	})
}

// GetAnalysis returns the full Analysis Result for the session's current
// filter, memoized until the filter changes.
func (ah *AnalysisHandler) GetAnalysis(c *gin.Context) {
	session, ok := lookupSession(c, ah.sessionService)
	if !ok {
		return
	}

	result := ah.analysisService.AnalyzeSession(session)

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"analysis": result,
	})
}

// GetKPIs returns the persona-specific KPI row. The persona affects which
// metrics are selected, never their values.
func (ah *AnalysisHandler) GetKPIs(c *gin.Context) {
	session, ok := lookupSession(c, ah.sessionService)
	if !ok {
		return
	}

	persona := c.DefaultQuery("persona", services.PersonaExecutive)
	if !services.ValidPersona(persona) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "unknown persona, expected one of Executive, Sales Manager, Analyst",
		})
		return
	}

	result := ah.analysisService.AnalyzeSession(session)
	kpis := ah.analysisService.PersonaKPIs(result, persona)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"persona": persona,
		"kpis":    kpis,
	})
}
