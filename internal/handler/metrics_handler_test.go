package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/school-office-api/internal/service"
)

type stubPinger struct{ err error }

func (s stubPinger) PingContext(context.Context) error { return s.err }

func TestHealthUsesEnvelope(t *testing.T) {
	h := NewMetricsHandler(service.NewMetricsService(), nil, "1.2.3")
	h.now = func() time.Time { return time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC) }

	rec := serve(nil, http.MethodGet, "/health", nil, h.Health)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "healthy", env.Data["status"])
	assert.Equal(t, "1.2.3", env.Data["version"])
	assert.Equal(t, "2024-03-04T00:00:00Z", env.Data["timestamp"])
}

func TestReadyReflectsDatabase(t *testing.T) {
	ok := NewMetricsHandler(nil, stubPinger{}, "dev")
	rec := serve(nil, http.MethodGet, "/ready", nil, ok.Ready)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decodeEnvelope(t, rec).Data["status"])

	down := NewMetricsHandler(nil, stubPinger{err: errors.New("connection refused")}, "dev")
	rec = serve(nil, http.MethodGet, "/ready", nil, down.Ready)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_READY", env.Error.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestIndexListsResourceRoots(t *testing.T) {
	h := NewMetricsHandler(nil, nil, "dev")

	rec := serve(nil, http.MethodGet, "/", nil, h.Index("/api/v1"))

	endpoints := decodeEnvelope(t, rec).Data["endpoints"].(map[string]interface{})
	assert.Equal(t, "/api/v1/documents", endpoints["documents"])
	assert.Len(t, endpoints, 7)
}

func TestPrometheusAndSystemSnapshot(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.ObserveHTTPRequest(http.MethodGet, "/api/v1/health", http.StatusOK, 10*time.Millisecond)
	metrics.ObserveDownload()
	h := NewMetricsHandler(metrics, nil, "dev")

	rec := serve(nil, http.MethodGet, "/metrics", nil, h.Prometheus)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "http_request_duration_seconds"))

	rec = serve(staff, http.MethodGet, "/system/metrics", nil, h.System)
	env := decodeEnvelope(t, rec)
	assert.EqualValues(t, 1, env.Data["requestsTotal"])
	assert.EqualValues(t, 1, env.Data["downloads"])

	rec = serve(nil, http.MethodGet, "/metrics", nil, NewMetricsHandler(nil, nil, "dev").Prometheus)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
