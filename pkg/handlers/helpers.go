package handlers

import (
	"errors"
	"net/http"

	"insightforge-api/pkg/models"
	"insightforge-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports service liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "InsightForge API",
	})
}

// respondError maps the typed error kinds onto HTTP statuses. Every error is
// converted into a user-visible message; nothing propagates as a crash.
func respondError(c *gin.Context, err error) {
	var validationErr *models.ValidationError
	var parseErr *models.ParseError
	var externalErr *models.ExternalServiceError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"success":         false,
			"error":           validationErr.Error(),
			"missing_columns": validationErr.Missing,
		})
	case errors.As(err, &parseErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   parseErr.Error(),
		})
	case errors.As(err, &externalErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error":   externalErr.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   err.Error(),
		})
	}
}

// lookupSession resolves the :id path parameter against the session store,
// writing the 404 response itself when the session does not exist.
func lookupSession(c *gin.Context, sessions *services.SessionService) (*models.Session, bool) {
	session, err := sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return nil, false
	}
	return session, true
}
