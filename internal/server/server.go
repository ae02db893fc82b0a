package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nexus/internal/analysis"
	"nexus/internal/cache"
	"nexus/internal/config"
	"nexus/internal/core"
	"nexus/internal/export"
	"nexus/internal/llm"
	"nexus/internal/metrics"
	"nexus/internal/registry"

	"github.com/gin-gonic/gin"
)

// Server application server
type Server struct {
	port    string
	ginMode string

	router     *gin.Engine
	httpClient *http.Client

	cache          *cache.CacheService
	metricsService *metrics.MetricsService
	metrics        core.MetricsCollector

	registry   *registry.Service
	dispatcher *analysis.Dispatcher
	reports    core.ReportStore
	exporter   *export.Renderer

	validClientKeys map[string]bool

	config config.ServerConfig
	logger core.Logger

	rateLimiter *rateLimiter

	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

// NewServer creates a new server instance
func NewServer(cfg config.ServerConfig) (*Server, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required in ServerConfig")
	}
	if cfg.Storage == nil {
		return nil, fmt.Errorf("storage is required in ServerConfig")
	}

	httpClient := llm.NewHTTPClient(cfg.HTTPClientSettings)
	clientFactory := llm.NewFactory(httpClient, core.LoggerFor(cfg.Logger, "llm"))

	cacheService := cache.NewCacheService()

	metricsService := metrics.NewMetricsService(metrics.MetricsConfig{
		SaveInterval: core.MinSaveInterval,
		HistorySize:  core.HistoryBufferSize,
		Storage:      cfg.Storage,
		Logger:       core.LoggerFor(cfg.Logger, "metrics"),
	})

	if err := metricsService.LoadStats(); err != nil {
		cfg.Logger.Warn("Failed to load historical stats: %v", err)
	}

	seed, err := config.LoadSeedRegistry(cfg.ModelsSeedPath, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load model seed: %w", err)
	}

	registryService, err := registry.NewService(registry.Config{
		Store:         cfg.Storage,
		Seed:          seed,
		ClientFactory: clientFactory,
		Ollama:        llm.NewOllamaClient(cfg.OllamaURL, core.OllamaListTimeout),
		Cache:         cacheService,
		TestTimeout:   cfg.TestTimeout,
		Logger:        core.LoggerFor(cfg.Logger, "registry"),
		Metrics:       metricsService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create model registry: %w", err)
	}

	dispatcher, err := analysis.NewDispatcher(analysis.Config{
		Models:        registryService,
		Reports:       cfg.Storage,
		ClientFactory: clientFactory,
		Timeout:       cfg.AnalysisTimeout,
		Logger:        core.LoggerFor(cfg.Logger, "analysis"),
		Metrics:       metricsService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis dispatcher: %w", err)
	}

	exporter := export.NewRenderer(export.Config{
		Reports: cfg.Storage,
		Cache:   cacheService,
		Logger:  core.LoggerFor(cfg.Logger, "export"),
	})

	validClientKeys := make(map[string]bool)
	for _, key := range cfg.ClientAPIKeys {
		validClientKeys[key] = true
	}

	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	server := &Server{
		port:            cfg.Port,
		ginMode:         cfg.GinMode,
		httpClient:      httpClient,
		cache:           cacheService,
		metricsService:  metricsService,
		metrics:         metricsService,
		registry:        registryService,
		dispatcher:      dispatcher,
		reports:         cfg.Storage,
		exporter:        exporter,
		validClientKeys: validClientKeys,
		config:          cfg,
		logger:          cfg.Logger,
		rateLimiter:     newRateLimiter(shutdownCtx, cfg.RateLimit),
		shutdownCtx:     shutdownCtx,
		shutdownCancel:  shutdownCancel,
	}

	server.setupRoutes()

	return server, nil
}

// Handler exposes the router, used by tests and embedding callers
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run runs the server
func (s *Server) Run() error {
	s.setupGracefulShutdown()

	// streamed analyses may write for the whole analysis budget
	srv := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.config.AnalysisTimeout + time.Minute,
	}

	go func() {
		<-s.shutdownCtx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("Server shutdown error: %v", err)
		}
	}()

	s.logger.Info("Nexus server running at http://localhost:%s", s.port)
	s.logger.Info("API available at http://localhost:%s/api", s.port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (s *Server) setupGracefulShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		s.logger.Info("Shutdown signal received, shutting down gracefully...")
		s.shutdownCancel()
	}()
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339Nano)})
}

func (s *Server) getStatsData(c *gin.Context) {
	stats := s.metricsService.GetRequestStats()
	periodStats := metrics.GetPeriodStats(stats.RequestHistory, 24, 24*7, 24*30)
	currentQPS := s.metricsService.GetQPS()

	successRate := 0.0
	if stats.TotalRequests > 0 {
		successRate = float64(stats.SuccessfulRequests) / float64(stats.TotalRequests) * 100
	}

	c.JSON(http.StatusOK, gin.H{
		"currentTime":        time.Now().Format(core.TimeFormatDateTime),
		"currentQPS":         fmt.Sprintf("%.3f", currentQPS),
		"totalRequests":      stats.TotalRequests,
		"successfulRequests": stats.SuccessfulRequests,
		"failedRequests":     stats.FailedRequests,
		"successRate":        successRate,
		"totalRecords":       len(stats.RequestHistory),
		"stats24h":           periodStats[24],
		"stats7d":            periodStats[24*7],
		"stats30d":           periodStats[24*30],
	})
}

// Close closes the server
func (s *Server) Close() error {
	if s.shutdownCancel != nil {
		s.shutdownCancel()
	}

	var closeErr error

	if s.metricsService != nil {
		if err := s.metricsService.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close metrics service: %w", err))
		}
	}

	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close cache service: %w", err))
		}
	}

	if s.httpClient != nil {
		s.httpClient.CloseIdleConnections()
	}

	return closeErr
}
