package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/vigil-core/internal/api/handlers"
	"github.com/platformbuilds/vigil-core/internal/api/middleware"
	"github.com/platformbuilds/vigil-core/internal/config"
	"github.com/platformbuilds/vigil-core/internal/monitoring"
	"github.com/platformbuilds/vigil-core/pkg/logger"
)

const version = "v1.0.0"

type Server struct {
	config     *config.Config
	logger     logger.Logger
	mc         *monitoring.MonitoringContext
	router     *gin.Engine
	httpServer *http.Server
}

func NewServer(cfg *config.Config, log logger.Logger, mc *monitoring.MonitoringContext) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	server := &Server{
		config: cfg,
		logger: log,
		mc:     mc,
		router: router,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.CORSMiddleware(s.config.CORS))
	s.router.Use(middleware.RequestLogger(s.logger))
	s.router.Use(middleware.MetricsMiddleware())

	// Prometheus metrics endpoint
	monitoring.SetupPrometheusMetrics(s.router)
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(version)
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/ready", healthHandler.ReadinessCheck)

	v1 := s.router.Group("/api/v1")

	// Telemetry ingest for sidecar-embedded services
	ingestHandler := handlers.NewIngestHandler(s.mc, s.logger)
	v1.POST("/ingest/metrics", ingestHandler.RecordMetric)
	v1.POST("/ingest/logs", ingestHandler.RecordLog)
	v1.GET("/metrics/summary", ingestHandler.GetMetricsSummary)

	// Alert lifecycle and dashboard queries
	alertsHandler := handlers.NewAlertsHandler(s.mc, s.logger)
	v1.GET("/alerts/active", alertsHandler.GetActiveAlerts)
	v1.POST("/alerts/:id/resolve", alertsHandler.ResolveAlert)
	v1.GET("/alerts/summary", alertsHandler.GetSummary)
	v1.GET("/alerts/rules", alertsHandler.GetRules)

	// Security detector
	securityHandler := handlers.NewSecurityHandler(s.mc, s.logger)
	v1.POST("/security/check", securityHandler.CheckContext)
	v1.GET("/security/summary", securityHandler.GetSummary)

	// AI governance detector
	governanceHandler := handlers.NewGovernanceHandler(s.mc, s.logger)
	v1.POST("/governance/check", governanceHandler.CheckInteraction)
	v1.GET("/governance/summary", governanceHandler.GetSummary)

	// Action execution audit log
	actionsHandler := handlers.NewActionsHandler(s.mc, s.logger)
	v1.GET("/actions/executions", actionsHandler.GetExecutions)

	// Live alert/event stream
	v1.GET("/stream", gin.WrapF(s.mc.Hub().Serve))
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening", "port", s.config.Port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
