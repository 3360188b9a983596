package handlers

import (
	"github.com/nexora/integrity-guard/internal/alerts"
	"github.com/nexora/integrity-guard/internal/integrity"
	"github.com/nexora/integrity-guard/internal/metrics"
	"github.com/nexora/integrity-guard/internal/report"
	"go.uber.org/zap"
)

// Pinger is the readiness probe surface of the store connection.
type Pinger interface {
	Ping() error
}

type Handler struct {
	aggregator *integrity.Aggregator
	engine     *alerts.Engine
	facade     *report.Facade
	collector  *metrics.Collector
	db         Pinger
	logger     *zap.Logger
}

func NewHandler(aggregator *integrity.Aggregator, engine *alerts.Engine, facade *report.Facade, collector *metrics.Collector, db Pinger, logger *zap.Logger) *Handler {
	return &Handler{
		aggregator: aggregator,
		engine:     engine,
		facade:     facade,
		collector:  collector,
		db:         db,
		logger:     logger,
	}
}
