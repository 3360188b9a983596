package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nexora/integrity-guard/internal/alerts"
	"github.com/nexora/integrity-guard/internal/api"
	"github.com/nexora/integrity-guard/internal/api/handlers"
	"github.com/nexora/integrity-guard/internal/config"
	"github.com/nexora/integrity-guard/internal/db"
	"github.com/nexora/integrity-guard/internal/integrity"
	"github.com/nexora/integrity-guard/internal/metrics"
	"github.com/nexora/integrity-guard/internal/report"
	"go.uber.org/zap"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logger.Sync()

	// Database
	conn, err := db.NewConnection(cfg.Database.URL, cfg.Database.MaxConnections, cfg.Database.MaxIdleConns)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.Database.MigrationsPath, cfg.Database.URL); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Detection engine
	classifier := integrity.NewClassifier(cfg.Severity.MediumThreshold, cfg.Severity.HighThreshold)
	detector := integrity.NewDetector(conn, integrity.DefaultRelationships(), classifier, cfg.Detector.TriggerWindowHours, logger)
	aggregator := integrity.NewAggregator(detector, integrity.HealthWeights{
		Contamination: cfg.Health.ContaminationWeight,
		Orphans:       cfg.Health.OrphanWeight,
		Triggers:      cfg.Health.TriggerWeight,
	}, cfg.Detector.QueryTimeout, cfg.Detector.SlowQueryThreshold, logger)

	// Alerting
	registry := alerts.NewRegistry()
	audit := alerts.NewPostgresAuditSink(conn)
	engine := alerts.NewEngine(alerts.DefaultRules(detector, classifier), registry, audit, logger)

	facade := report.NewFacade(aggregator, engine)
	collector := metrics.NewCollector(cfg.Mimir)
	aggregator.SetDurationObserver(collector.RecordCheckDuration)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Mimir.URL != "" {
		go collector.StartRemoteWrite(ctx)
	}

	// API server
	handler := handlers.NewHandler(aggregator, engine, facade, collector, conn, logger)
	server := api.NewServer(cfg, handler, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: server.Router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Integrity API started", zap.String("port", cfg.Server.Port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
