package main

import (
	"log"
	"net/http"

	config "insightforge-api/configs"
	"insightforge-api/pkg/gemini"
	"insightforge-api/pkg/handlers"
	"insightforge-api/pkg/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	cfg := config.LoadConfig()

	r := gin.Default()

	// services
	monitoringService := services.NewMonitoringService()
	datasetService := services.NewDatasetService()
	analysisService := services.NewAnalysisService()
	sessionService := services.NewSessionService()
	geminiClient := gemini.NewClient(cfg.GeminiEndpoint, cfg.GeminiAPIKey, cfg.GeminiModel)
	insightService := services.NewInsightService(geminiClient, analysisService)

	// handlers
	datasetHandler := handlers.NewDatasetHandler(datasetService, sessionService, cfg.MaxUploadSizeMB)
	analysisHandler := handlers.NewAnalysisHandler(sessionService, analysisService)
	insightHandler := handlers.NewInsightHandler(sessionService, analysisService, insightService)
	monitoringHandler := handlers.NewMonitoringHandler(monitoringService)

	// middleware
	r.Use(monitoringService.LoggingMiddleware())
	r.Use(cors.Default())

	authMiddleware := func(apiKey string) gin.HandlerFunc {
		return func(c *gin.Context) {
			if apiKey == "" {
				c.Next()
				return
			}
			providedKey := c.GetHeader("X-API-KEY")
			if providedKey != apiKey {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			c.Next()
		}
	}

	r.GET("/health", handlers.HealthCheck)

	v1 := r.Group("/api/v1")
	v1.Use(authMiddleware(cfg.APIKey))
	{
		v1.POST("/datasets", datasetHandler.Upload)
		v1.GET("/sample-dataset", datasetHandler.SampleDataset)

		sessions := v1.Group("/sessions")
		{
			sessions.PUT("/:id/filters", analysisHandler.SetFilters)
			sessions.GET("/:id/analysis", analysisHandler.GetAnalysis)
			sessions.GET("/:id/kpis", analysisHandler.GetKPIs)
			sessions.POST("/:id/insights", insightHandler.GenerateInsights)
			sessions.POST("/:id/chat", insightHandler.Chat)
			sessions.GET("/:id/chat", insightHandler.GetChatHistory)
			sessions.DELETE("/:id", datasetHandler.DeleteSession)
		}

		monitoring := v1.Group("/monitoring")
		{
			monitoring.GET("/dashboard", monitoringHandler.GetDashboard)
		}
	}

	log.Printf("Starting InsightForge API server on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
