package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"laundering-ring-detector/internal/domain/entity"
	"laundering-ring-detector/internal/infrastructure/config"
	"laundering-ring-detector/internal/infrastructure/logger"
	"laundering-ring-detector/internal/infrastructure/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(m *metrics.Metrics) *Server {
	cfg := &config.Config{}
	cfg.App.HTTPPort = 0
	cfg.Health.Timeout = time.Second
	cfg.Metrics.Enabled = true
	return NewServer(cfg, m, logger.NewNop())
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestServer_Health(t *testing.T) {
	rec := get(t, newTestServer(nil).Handler(), "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_Ready(t *testing.T) {
	server := newTestServer(nil)
	server.AddCheck("nats", func(ctx context.Context) error { return nil })

	rec := get(t, server.Handler(), "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"nats":"ok"}}`, rec.Body.String())

	server.AddCheck("neo4j", func(ctx context.Context) error { return errors.New("not connected") })

	rec = get(t, server.Handler(), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable","checks":{"nats":"ok","neo4j":"not connected"}}`, rec.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	m := metrics.NewMetrics(&config.MetricsConfig{Namespace: "test"})
	m.ObserveResult(&entity.AnalysisResult{
		FraudRings: []*entity.FraudRing{{PatternType: entity.PatternCycle}},
		Summary:    entity.AnalysisSummary{TotalTransactions: 4, TruncatedDetectors: []string{"cycle"}},
	})

	rec := get(t, newTestServer(m).Handler(), "/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `test_rings_detected_total{pattern="CYCLE"} 1`)
	assert.Contains(t, body, `test_detector_truncations_total{detector="cycle"} 1`)
	assert.Contains(t, body, `test_transactions_analyzed_total 4`)
}

func TestServer_NoMetricsWithoutCollector(t *testing.T) {
	rec := get(t, newTestServer(nil).Handler(), "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
