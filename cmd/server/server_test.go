package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	config "insightforge-api/configs"
	"insightforge-api/pkg/gemini"
	"insightforge-api/pkg/handlers"
	"insightforge-api/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	godotenv.Load("../../.env")

	os.Exit(m.Run())
}

func TestApplicationSetup(t *testing.T) {
	cfg := config.LoadConfig()
	assert.NotNil(t, cfg, "Config should not be nil")

	geminiClient := gemini.NewClient(cfg.GeminiEndpoint, cfg.GeminiAPIKey, cfg.GeminiModel)
	assert.NotNil(t, geminiClient, "Gemini client should not be nil")

	analysisService := services.NewAnalysisService()
	sessionService := services.NewSessionService()
	insightService := services.NewInsightService(geminiClient, analysisService)
	assert.NotNil(t, insightService, "InsightService should not be nil")

	datasetHandler := handlers.NewDatasetHandler(services.NewDatasetService(), sessionService, cfg.MaxUploadSizeMB)
	assert.NotNil(t, datasetHandler, "DatasetHandler should not be nil")

	analysisHandler := handlers.NewAnalysisHandler(sessionService, analysisService)
	assert.NotNil(t, analysisHandler, "AnalysisHandler should not be nil")

	insightHandler := handlers.NewInsightHandler(sessionService, analysisService, insightService)
	assert.NotNil(t, insightHandler, "InsightHandler should not be nil")
}

func TestRouterSetup(t *testing.T) {
	r := gin.New()
	r.GET("/health", handlers.HealthCheck)

	req, err := http.NewRequest("GET", "/health", nil)
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
