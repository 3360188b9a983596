package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 25, cfg.Database.MaxConnections)

	// Severity bucket defaults
	assert.Equal(t, 5, cfg.Severity.MediumThreshold)
	assert.Equal(t, 20, cfg.Severity.HighThreshold)

	// Contamination must weigh heaviest, trigger failures lightest
	assert.Greater(t, cfg.Health.ContaminationWeight, cfg.Health.OrphanWeight)
	assert.Greater(t, cfg.Health.OrphanWeight, cfg.Health.TriggerWeight)
	assert.Greater(t, cfg.Health.TriggerWeight, 0)

	assert.Equal(t, 10*time.Second, cfg.Detector.QueryTimeout)
	assert.Equal(t, 24, cfg.Detector.TriggerWindowHours)
	assert.Equal(t, time.Minute, cfg.Scheduler.CheckInterval)
}
