package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nexora/integrity-guard/internal/alerts"
	"github.com/nexora/integrity-guard/internal/config"
	"github.com/nexora/integrity-guard/internal/db"
	"github.com/nexora/integrity-guard/internal/integrity"
	"github.com/nexora/integrity-guard/internal/metrics"
	"github.com/nexora/integrity-guard/internal/scheduler"
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

	if !cfg.Scheduler.Enabled {
		logger.Info("Scheduler disabled by config, exiting")
		return
	}

	conn, err := db.NewConnection(cfg.Database.URL, cfg.Database.MaxConnections, cfg.Database.MaxIdleConns)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.Database.MigrationsPath, cfg.Database.URL); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	classifier := integrity.NewClassifier(cfg.Severity.MediumThreshold, cfg.Severity.HighThreshold)
	detector := integrity.NewDetector(conn, integrity.DefaultRelationships(), classifier, cfg.Detector.TriggerWindowHours, logger)
	aggregator := integrity.NewAggregator(detector, integrity.HealthWeights{
		Contamination: cfg.Health.ContaminationWeight,
		Orphans:       cfg.Health.OrphanWeight,
		Triggers:      cfg.Health.TriggerWeight,
	}, cfg.Detector.QueryTimeout, cfg.Detector.SlowQueryThreshold, logger)

	registry := alerts.NewRegistry()
	audit := alerts.NewPostgresAuditSink(conn)
	engine := alerts.NewEngine(alerts.DefaultRules(detector, classifier), registry, audit, logger)

	collector := metrics.NewCollector(cfg.Mimir)
	aggregator.SetDurationObserver(collector.RecordCheckDuration)

	ctx, cancel := context.WithCancel(context.Background())

	if cfg.Mimir.URL != "" {
		go collector.StartRemoteWrite(ctx)
	}

	sched := scheduler.NewScheduler(aggregator, engine, registry, collector, cfg.Scheduler.CheckInterval, logger)
	go sched.Start(ctx)

	logger.Info("Integrity scheduler started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down scheduler...")
	cancel()
	logger.Info("Scheduler stopped")
}
