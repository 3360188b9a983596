package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nexora/integrity-guard/internal/alerts"
	"github.com/nexora/integrity-guard/internal/integrity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAlertTestRouter(t *testing.T, registry *alerts.Registry) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rules := []alerts.Rule{{
		ID: "cross-tenant-contamination",
		Evaluate: func(ctx context.Context) ([]alerts.Finding, error) {
			return nil, nil
		},
	}}
	engine := alerts.NewEngine(rules, registry, nil, zap.NewNop())
	h := NewHandler(nil, engine, nil, nil, nil, zap.NewNop())

	router := gin.New()
	router.GET("/alerts", h.ListActiveAlerts)
	router.POST("/alerts/:id/acknowledge", h.AcknowledgeAlert)
	router.POST("/alerts/:id/resolve", h.ResolveAlert)
	return router
}

func doRequest(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestAcknowledgeUnknownAlertReturns404Envelope(t *testing.T) {
	router := newAlertTestRouter(t, alerts.NewRegistry())

	w := doRequest(router, http.MethodPost, "/alerts/no-such-id/acknowledge")
	assert.Equal(t, http.StatusNotFound, w.Code)

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, CodeAlertNotFound, body.Error.Code)
}

func TestAcknowledgeAndResolveKnownAlert(t *testing.T) {
	registry := alerts.NewRegistry()
	alert := registry.Upsert("cross-tenant-contamination", alerts.Finding{
		ResourceKey: "calls→agents",
		Severity:    integrity.SeverityLow,
		Details:     map[string]interface{}{"mismatched_count": 1},
	})
	router := newAlertTestRouter(t, registry)

	w := doRequest(router, http.MethodPost, "/alerts/"+alert.ID+"/acknowledge")
	assert.Equal(t, http.StatusOK, w.Code)

	var ack struct {
		Success bool `json:"success"`
		Data    struct {
			Acknowledged bool `json:"acknowledged"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	assert.True(t, ack.Success)
	assert.True(t, ack.Data.Acknowledged)

	w = doRequest(router, http.MethodPost, "/alerts/"+alert.ID+"/resolve")
	assert.Equal(t, http.StatusOK, w.Code)

	// Resolving twice is a not-found, not an error
	w = doRequest(router, http.MethodPost, "/alerts/"+alert.ID+"/resolve")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListActiveAlertsEnvelope(t *testing.T) {
	registry := alerts.NewRegistry()
	registry.Upsert("cross-tenant-contamination", alerts.Finding{
		ResourceKey: "calls→agents",
		Severity:    integrity.SeverityMedium,
		Details:     map[string]interface{}{"mismatched_count": 7},
	})
	router := newAlertTestRouter(t, registry)

	w := doRequest(router, http.MethodGet, "/alerts")
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool `json:"success"`
		Data    []struct {
			RuleID   string `json:"rule_id"`
			Severity string `json:"severity"`
			Status   string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "cross-tenant-contamination", body.Data[0].RuleID)
	assert.Equal(t, "medium", body.Data[0].Severity)
	assert.Equal(t, "active", body.Data[0].Status)
}
