package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-office-api/internal/service"
	"github.com/noah-isme/school-office-api/pkg/config"
)

type envelope struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func testRouter(t *testing.T, env string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Env: env, APIPrefix: "/api", Version: "test"}
	app := &services{
		metrics: service.NewMetricsService(),
		auth:    service.NewAuthService(nil, nil, zap.NewNop(), service.AuthConfig{Secret: "test-secret"}),
	}
	return newRouter(cfg, zap.NewNop(), app)
}

func do(t *testing.T, r *gin.Engine, method, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	var env envelope
	if rec.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestRouterPublicEndpoints(t *testing.T) {
	r := testRouter(t, config.EnvDevelopment)

	rec, env := do(t, r, http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", env.Data["status"])
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec, env = do(t, r, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", env.Data["version"])

	rec, _ = do(t, r, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterRequiresTokenOnResources(t *testing.T) {
	r := testRouter(t, config.EnvDevelopment)

	for _, target := range []string{"/api/auth/me", "/api/users", "/api/announcements", "/api/documents/1/download", "/api/schedules/export", "/api/notifications/unread-count", "/api/system/metrics"} {
		rec, env := do(t, r, http.MethodGet, target)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
		require.NotNil(t, env.Error, target)
		assert.Equal(t, "NO_TOKEN", env.Error.Code, target)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	r := testRouter(t, config.EnvDevelopment)

	rec, env := do(t, r, http.MethodGet, "/api/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	rec, _ = do(t, r, http.MethodGet, "/uploads/secret.pdf")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterDocsOnlyOutsideProduction(t *testing.T) {
	rec, _ := do(t, testRouter(t, config.EnvDevelopment), http.MethodGet, "/docs/doc.json")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, testRouter(t, config.EnvProduction), http.MethodGet, "/docs/doc.json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}
