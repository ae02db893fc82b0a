package server

import (
	"github.com/gin-gonic/gin"
)

func (s *Server) setupRoutes() {
	gin.SetMode(s.ginMode)
	s.router = gin.New()

	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(s.corsMiddleware())
	s.router.Use(s.maxBodySizeMiddleware())
	s.router.Use(s.rateLimitMiddleware())

	// Public routes (no auth)
	s.router.GET("/api/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(s.metricsService.Handler()))

	// API routes (auth required when client keys are configured)
	api := s.router.Group("/api")
	api.Use(s.requestMetricsMiddleware())
	api.Use(s.authenticateClient)
	{
		api.GET("/stats", s.getStatsData)

		models := api.Group("/models")
		models.GET("", s.listModels)
		models.POST("", s.addModel)
		models.GET("/ollama/list", s.listOllamaModels)
		models.POST("/active/:id", s.setActiveModel)
		models.POST("/test/:id", s.testModelConnection)
		models.PUT("/:id", s.updateModel)
		models.DELETE("/:id", s.removeModel)

		analysis := api.Group("/analysis")
		analysis.POST("/start", s.startAnalysis)
		analysis.POST("/stream", s.streamAnalysis)

		reports := api.Group("/reports")
		reports.GET("", s.listReports)
		reports.GET("/:id", s.getReport)
		reports.DELETE("/:id", s.deleteReport)
		reports.GET("/:id/export", s.exportReport)
	}

	s.router.NoRoute(s.serveStatic)
}
