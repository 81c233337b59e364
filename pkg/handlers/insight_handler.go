package handlers

import (
	"net/http"
	"strconv"

	"insightforge-api/pkg/models"
	"insightforge-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// InsightHandler serves the AI insight and chat endpoints.
type InsightHandler struct {
	sessionService  *services.SessionService
	analysisService *services.AnalysisService
	insightService  *services.InsightService
}

// NewInsightHandler creates a new InsightHandler.
func NewInsightHandler(sessionService *services.SessionService, analysisService *services.AnalysisService, insightService *services.InsightService) *InsightHandler {
	return &InsightHandler{
		sessionService:  sessionService,
		analysisService: analysisService,
		insightService:  insightService,
	}
}

// GenerateInsights produces a one-shot persona-framed insight from the
// current analysis. No chat history entry is created.
func (ih *InsightHandler) GenerateInsights(c *gin.Context) {
	session, ok := lookupSession(c, ih.sessionService)
	if !ok {
		return
	}

	var req models.InsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid insight request: " + err.Error()})
		return
	}
	if !services.ValidPersona(req.Persona) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "unknown persona, expected one of Executive, Sales Manager, Analyst",
		})
		return
	}

	result := ih.analysisService.AnalyzeSession(session)

	insight, err := ih.insightService.GenerateInsight(c.Request.Context(), result, req.Persona)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.InsightResponse{
		Success: true,
		Persona: req.Persona,
		Insight: insight,
	})
}

// Chat answers an ad-hoc question against the filtered data and appends the
// exchange to the session's chat history.
func (ih *InsightHandler) Chat(c *gin.Context) {
	session, ok := lookupSession(c, ih.sessionService)
	if !ok {
		return
	}

	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid chat request: " + err.Error()})
		return
	}

	turn, err := ih.insightService.Chat(c.Request.Context(), session, req.Question)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ChatResponse{
		Success: true,
		Answer:  turn.Answer,
		Context: turn.Context,
	})
}

// GetChatHistory returns the most recent chat turns, newest last. The
// display default is 8 turns; storage is unbounded.
func (ih *InsightHandler) GetChatHistory(c *gin.Context) {
	session, ok := lookupSession(c, ih.sessionService)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	turns := ih.sessionService.RecentChat(session, limit)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(turns),
		"total":   len(session.ChatLog),
		"history": turns,
	})
}
