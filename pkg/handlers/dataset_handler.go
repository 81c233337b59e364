package handlers

import (
	"io"
	"net/http"

	"insightforge-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// DatasetHandler serves dataset upload and session lifecycle endpoints.
type DatasetHandler struct {
	datasetService *services.DatasetService
	sessionService *services.SessionService
	maxUploadBytes int64
}

// NewDatasetHandler creates a new DatasetHandler.
func NewDatasetHandler(datasetService *services.DatasetService, sessionService *services.SessionService, maxUploadMB int64) *DatasetHandler {
	return &DatasetHandler{
		datasetService: datasetService,
		sessionService: sessionService,
		maxUploadBytes: maxUploadMB << 20,
	}
}

// Upload accepts a CSV or Excel sales dataset, normalizes it and opens a new
// session around it. A parse or validation failure leaves no session behind.
func (dh *DatasetHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, dh.maxUploadBytes)

	file, fileHeader, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "could not read uploaded file: " + err.Error(),
		})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "could not read uploaded file: " + err.Error(),
		})
		return
	}

	dataset, err := dh.datasetService.Load(fileHeader.Filename, content)
	if err != nil {
		respondError(c, err)
		return
	}

	session := dh.sessionService.Create(dataset)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"session_id": session.ID,
		"row_count":  len(dataset.Rows),
		"min_date":   dataset.MinDate.Format("2006-01-02"),
		"max_date":   dataset.MaxDate.Format("2006-01-02"),
		"regions":    dataset.Regions,
		"categories": dataset.Categories,
	})
}

// SampleDataset returns the built-in demo table shown before any upload.
func (dh *DatasetHandler) SampleDataset(c *gin.Context) {
	dataset := services.SampleDataset()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"dataset": dataset,
	})
}

// DeleteSession discards a session and everything it owns.
func (dh *DatasetHandler) DeleteSession(c *gin.Context) {
	if _, ok := lookupSession(c, dh.sessionService); !ok {
		return
	}
	dh.sessionService.Delete(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"success": true})
}
