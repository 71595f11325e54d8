package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  baseUrl: "http://pipeline.internal:9000"
  requestTimeout: "45s"

orchestrator:
  concurrencyLimit: 8
  extendedEnabled: true
  pageSize: 25
  batchCeiling: 200
  streamTimeout: "3m"

repair:
  concurrency: 2
  stagger: "500ms"

redis:
  addr: "localhost:6379"
  ttl: "1h"

server:
  addr: ":9090"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://pipeline.internal:9000", cfg.Pipeline.BaseURL)
	assert.Equal(t, 45*time.Second, cfg.Pipeline.RequestTimeout.Std())
	assert.Equal(t, 8, cfg.Orchestrator.ConcurrencyLimit)
	assert.True(t, cfg.Orchestrator.ExtendedEnabled)
	assert.Equal(t, 25, cfg.Orchestrator.PageSize)
	assert.Equal(t, 200, cfg.Orchestrator.BatchCeiling)
	assert.Equal(t, 3*time.Minute, cfg.Orchestrator.StreamTimeout.Std())
	assert.Equal(t, 2, cfg.Repair.Concurrency)
	assert.Equal(t, 500*time.Millisecond, cfg.Repair.Stagger.Std())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoad_DefaultsPreserved(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  baseUrl: "http://pipeline.internal:9000"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Orchestrator.ConcurrencyLimit)
	assert.Equal(t, 50, cfg.Orchestrator.PageSize)
	assert.Equal(t, 500, cfg.Orchestrator.BatchCeiling)
	assert.Equal(t, 5*time.Minute, cfg.Orchestrator.StreamTimeout.Std())
	assert.Equal(t, 2*time.Second, cfg.Orchestrator.DiscoveryBackoff.Std())
	assert.Equal(t, 5, cfg.Repair.Concurrency)
	assert.Equal(t, 2*time.Second, cfg.Repair.Stagger.Std())
	assert.False(t, cfg.Orchestrator.ExtendedEnabled)
}

func TestLoad_MissingBaseURL(t *testing.T) {
	path := writeConfig(t, `
orchestrator:
  concurrencyLimit: 3
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "baseUrl")
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  baseUrl: "http://from-file:9000"
`)
	t.Setenv("PIPELINE_BASE_URL", "http://from-env:9000")
	t.Setenv("CONCURRENCY_LIMIT", "12")
	t.Setenv("EXTENDED_STAGES", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://from-env:9000", cfg.Pipeline.BaseURL)
	assert.Equal(t, 12, cfg.Orchestrator.ConcurrencyLimit)
	assert.True(t, cfg.Orchestrator.ExtendedEnabled)
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, `
pipeline:
  baseUrl: "http://pipeline.internal:9000"
  requestTimeout: "soon"
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "invalid duration")
}
