package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/api/middleware"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/config"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/domain"
)

type scanStub struct{}

func (scanStub) Run(_ context.Context, dryRun bool) (*domain.StockUpdateResult, error) {
	return &domain.StockUpdateResult{DryRun: dryRun}, nil
}

func newTestRouter(t *testing.T, keyHash string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Environment: "test", Version: "test", API: config.APIConfig{KeyHash: keyHash}}
	return NewRouter(cfg, Dependencies{Scanner: scanStub{}}, zap.NewNop())
}

func TestHealthIsPublic(t *testing.T) {
	hash, err := middleware.HashAPIKey("secret")
	require.NoError(t, err)
	router := newTestRouter(t, hash)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestV1RequiresAPIKey(t *testing.T) {
	hash, err := middleware.HashAPIKey("secret")
	require.NoError(t, err)
	router := newTestRouter(t, hash)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/stock/scan", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/stock/scan", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"dry_run":true`)
}

func TestMetricsRouteOnlyWithRegistry(t *testing.T) {
	router := newTestRouter(t, "")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
