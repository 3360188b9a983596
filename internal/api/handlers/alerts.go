package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListActiveAlerts returns all alerts not yet resolved.
func (h *Handler) ListActiveAlerts(c *gin.Context) {
	respondOK(c, http.StatusOK, h.engine.ActiveAlerts())
}

// CheckAlerts runs the rule engine on demand and returns the alerts
// created or refreshed by this pass.
func (h *Handler) CheckAlerts(c *gin.Context) {
	touched := h.engine.CheckAlerts(c.Request.Context())
	respondOK(c, http.StatusOK, touched)
}

// AcknowledgeAlert transitions an active alert to acknowledged.
func (h *Handler) AcknowledgeAlert(c *gin.Context) {
	id := c.Param("id")
	actor := c.GetString("user_id")

	if !h.engine.Acknowledge(c.Request.Context(), id, actor) {
		respondError(c, http.StatusNotFound, CodeAlertNotFound, "alert not found or not acknowledgeable")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"acknowledged": true})
}

// ResolveAlert transitions a non-resolved alert to resolved.
func (h *Handler) ResolveAlert(c *gin.Context) {
	id := c.Param("id")
	actor := c.GetString("user_id")

	if !h.engine.Resolve(c.Request.Context(), id, actor) {
		respondError(c, http.StatusNotFound, CodeAlertNotFound, "alert not found or already resolved")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"resolved": true})
}
