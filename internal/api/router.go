package api

import (
	"github.com/gin-gonic/gin"
	"github.com/nexora/integrity-guard/internal/api/handlers"
	"github.com/nexora/integrity-guard/internal/api/middleware"
	"github.com/nexora/integrity-guard/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	Config  *config.Config
	Router  *gin.Engine
	handler *handlers.Handler
	logger  *zap.Logger
}

func NewServer(cfg *config.Config, handler *handlers.Handler, logger *zap.Logger) *Server {
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS())

	server := &Server{
		Config:  cfg,
		Router:  router,
		handler: handler,
		logger:  logger,
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	// Probes and scrape endpoint stay unauthenticated
	s.Router.GET("/health", s.handler.Health)
	s.Router.GET("/ready", s.handler.Ready)
	s.Router.GET("/prometheus", gin.WrapH(promhttp.Handler()))

	// Integrity routes (admin only, identity enforced upstream)
	api := s.Router.Group("/api/v1/integrity")
	api.Use(middleware.AdminRequired(s.Config.Auth.JWTSecret))
	{
		api.GET("/metrics", s.handler.GetMetrics)
		api.GET("/full-check",
			middleware.RateLimit(s.Config.Detector.FullCheckPerMinute),
			s.handler.RunFullCheck,
		)
		api.GET("/contamination/cross-tenant", s.handler.GetCrossTenantContamination)
		api.GET("/dashboard", s.handler.GetDashboard)

		api.GET("/alerts", s.handler.ListActiveAlerts)
		api.POST("/alerts/check", s.handler.CheckAlerts)
		api.POST("/alerts/:id/acknowledge", s.handler.AcknowledgeAlert)
		api.POST("/alerts/:id/resolve", s.handler.ResolveAlert)
	}
}
