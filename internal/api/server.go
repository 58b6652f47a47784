package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/energysplit/internal/api/dto"
	"github.com/eshaffer321/energysplit/internal/api/handlers"
	"github.com/eshaffer321/energysplit/internal/api/middleware"
	"github.com/eshaffer321/energysplit/internal/application/service"
	"github.com/eshaffer321/energysplit/internal/observability/metrics"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
	Metrics        bool
	Labels         map[string]string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8085,
		AllowedOrigins: middleware.DefaultCORSConfig().AllowedOrigins,
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	engine     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger
	svc        *service.BillingService
}

// NewServer creates a new API server.
func NewServer(cfg Config, svc *service.BillingService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: cfg,
		engine: gin.New(),
		logger: logger,
		svc:    svc,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = s.config.AllowedOrigins

	s.engine.Use(middleware.Recovery(s.logger))
	s.engine.Use(middleware.CORS(corsConfig))
	s.engine.Use(middleware.Logging(s.logger))
	if s.config.Metrics {
		metrics.Init()
		s.engine.Use(middleware.Metrics())
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.engine.GET("/health", healthHandler.Get)

	if s.config.Metrics {
		s.engine.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NotFoundError("route"))
	})

	r := s.engine.Group("/api")

	categoriesHandler := handlers.NewCategoriesHandler(s.config.Labels)
	r.GET("/categories", categoriesHandler.List)

	// Stateless allocation
	allocateHandler := handlers.NewAllocateHandler(s.logger)
	r.POST("/allocate", allocateHandler.Post)

	// Groups
	groupsHandler := handlers.NewGroupsHandler(s.svc, s.logger)
	r.GET("/groups", groupsHandler.List)
	r.POST("/groups", groupsHandler.Create)
	r.PUT("/groups/:id", groupsHandler.Update)
	r.DELETE("/groups/:id", groupsHandler.Delete)
	r.GET("/groups/:id/rollup", groupsHandler.Rollup)

	// Readings
	readingsHandler := handlers.NewReadingsHandler(s.svc, s.logger)
	r.GET("/readings/:category", readingsHandler.List)
	r.PUT("/readings/:category", readingsHandler.Upsert)
	r.GET("/readings/:category/grouped", readingsHandler.Grouped)
	r.POST("/readings/:category/reset", readingsHandler.Reset)
	r.POST("/readings/:category/generate", readingsHandler.Generate)
	r.PATCH("/readings/:category/:id", readingsHandler.UpdateConsumption)
	r.DELETE("/readings/:category/:id", readingsHandler.Delete)

	// Bills
	billsHandler := handlers.NewBillsHandler(s.svc, s.logger)
	r.GET("/bills/:category", billsHandler.Get)
	r.PUT("/bills/:category", billsHandler.Put)

	// Thresholds
	thresholdsHandler := handlers.NewThresholdsHandler(s.svc, s.logger)
	r.GET("/thresholds", thresholdsHandler.List)
	r.PUT("/thresholds", thresholdsHandler.Put)
	r.GET("/thresholds/alerts", thresholdsHandler.Alerts)

	// Office registry
	registryHandler := handlers.NewRegistryHandler(s.svc, s.logger)
	r.GET("/registry", registryHandler.List)
	r.PUT("/registry", registryHandler.Put)
	r.GET("/registry/name/:category/:reading_id", registryHandler.CompanyName)
	r.GET("/registry/:id", registryHandler.Get)
	r.DELETE("/registry/:id", registryHandler.Delete)

	// Company info
	companyHandler := handlers.NewCompanyHandler(s.svc, s.logger)
	r.GET("/company", companyHandler.Get)
	r.PUT("/company", companyHandler.Put)

	// Calculations
	calculationsHandler := handlers.NewCalculationsHandler(s.svc, s.logger)
	r.POST("/calculations", calculationsHandler.Create)
	r.GET("/calculations", calculationsHandler.List)
	r.GET("/calculations/monthly", calculationsHandler.Monthly)
	r.GET("/calculations/:id", calculationsHandler.Get)
	r.DELETE("/calculations/:id", calculationsHandler.Delete)
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}

// Router returns the HTTP handler for testing.
func (s *Server) Router() http.Handler {
	return s.engine
}
