package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-office-api/internal/models"
	"github.com/noah-isme/school-office-api/internal/service"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
	"github.com/noah-isme/school-office-api/pkg/response"
)

const readyTimeout = 2 * time.Second

type pinger interface {
	PingContext(ctx context.Context) error
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	db      pinger
	version string
	now     func() time.Time
}

// NewMetricsHandler constructs a metrics handler. db may be nil, in which case readiness always succeeds.
func NewMetricsHandler(metrics *service.MetricsService, db pinger, version string) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, db: db, version: version, now: time.Now}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health godoc
// @Summary Liveness probe
// @Tags System
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /health [get]
func (h *MetricsHandler) Health(c *gin.Context) {
	response.OK(c, models.HealthStatus{Status: "healthy", Timestamp: h.now().UTC(), Version: h.version})
}

// Index lists the resource roots under prefix.
func (h *MetricsHandler) Index(prefix string) gin.HandlerFunc {
	endpoints := gin.H{}
	for _, name := range []string{"auth", "users", "announcements", "documents", "schedules", "notifications", "health"} {
		endpoints[name] = prefix + "/" + name
	}
	return func(c *gin.Context) {
		response.OK(c, gin.H{"message": "School Office API", "version": h.version, "endpoints": endpoints})
	}
}

// Ready reports whether the database answers a ping.
func (h *MetricsHandler) Ready(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			c.Error(err) //nolint:errcheck
			response.Error(c, appErrors.New("NOT_READY", http.StatusServiceUnavailable, "database unavailable"))
			return
		}
	}
	response.OK(c, gin.H{"status": "ready"})
}

// System godoc
// @Summary Runtime counters
// @Description Request, upload, download and notification counters (administrators only)
// @Tags System
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /system/metrics [get]
func (h *MetricsHandler) System(c *gin.Context) {
	response.OK(c, h.metrics.Snapshot())
}
