package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GetMetrics returns the scalar counts of a fresh detection pass.
// Degraded categories arrive with zero counts and an entry in errors;
// clients show "metric unavailable" for those instead of failing the
// whole page.
func (h *Handler) GetMetrics(c *gin.Context) {
	m := h.aggregator.GetDataIntegrityMetrics(c.Request.Context())
	if m.Degraded() {
		h.logger.Warn("Metrics served in degraded state", zap.Int("failed_categories", len(m.Errors)))
	}
	respondOK(c, http.StatusOK, m)
}

// RunFullCheck returns the metrics plus the full detail lists and a
// summary line.
func (h *Handler) RunFullCheck(c *gin.Context) {
	result := h.aggregator.RunFullIntegrityCheck(c.Request.Context())

	if h.collector != nil {
		h.collector.RecordCheckResult(result, h.aggregator.HealthScore(result.Metrics))
	}

	respondOK(c, http.StatusOK, gin.H{
		"summary": result.Summary,
		"details": result.Details,
	})
}

// GetCrossTenantContamination returns the raw contamination records for
// the core relationships.
func (h *Handler) GetCrossTenantContamination(c *gin.Context) {
	records, err := h.aggregator.Detector().DetectCrossTenantContamination(c.Request.Context())
	if err != nil {
		h.logger.Error("Contamination detection failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, CodeDetectionFailed, "cross-tenant contamination detection failed")
		return
	}
	respondOK(c, http.StatusOK, records)
}

// GetDashboard returns the assembled reporting facade output.
func (h *Handler) GetDashboard(c *gin.Context) {
	respondOK(c, http.StatusOK, h.facade.Dashboard(c.Request.Context()))
}
