package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/api/middleware"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/config"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/domain"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/location"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/shopify"
	apperrors "github.com/JJCAPPE/inventario-cappellettoshop/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockInventory struct {
	mock.Mock
}

func (m *mockInventory) Transfer(ctx context.Context, req domain.TransferRequest) (*domain.TransferOutcome, error) {
	args := m.Called(ctx, req)
	out, _ := args.Get(0).(*domain.TransferOutcome)
	return out, args.Error(1)
}

func (m *mockInventory) Decrease(ctx context.Context, req domain.AdjustRequest) (*domain.AdjustOutcome, error) {
	args := m.Called(ctx, req)
	out, _ := args.Get(0).(*domain.AdjustOutcome)
	return out, args.Error(1)
}

func (m *mockInventory) UndoDecrease(ctx context.Context, req domain.AdjustRequest) (*domain.AdjustOutcome, error) {
	args := m.Called(ctx, req)
	out, _ := args.Get(0).(*domain.AdjustOutcome)
	return out, args.Error(1)
}

func (m *mockInventory) AdjustInventory(ctx context.Context, updates []domain.InventoryUpdate, reason string) error {
	return m.Called(ctx, updates, reason).Error(0)
}

func (m *mockInventory) SetInventoryLevel(ctx context.Context, itemID, locationID string, available int) (*domain.InventoryLevel, error) {
	args := m.Called(ctx, itemID, locationID, available)
	out, _ := args.Get(0).(*domain.InventoryLevel)
	return out, args.Error(1)
}

func (m *mockInventory) InventoryLevels(ctx context.Context, itemIDs []string) ([]domain.InventoryLevel, error) {
	args := m.Called(ctx, itemIDs)
	out, _ := args.Get(0).([]domain.InventoryLevel)
	return out, args.Error(1)
}

const transferBody = `{"inventory_item_id":"55","from_location_id":"100","to_location_id":"200","quantity":1,"product_id":"1","product_name":"Borsalino","variant":"M","price":"120.00"}`

func serve(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleTransferStatusMapping(t *testing.T) {
	cases := []struct {
		status domain.TransferStatus
		code   int
	}{
		{domain.TransferCommitted, http.StatusOK},
		{domain.TransferRolledBack, http.StatusConflict},
		{domain.TransferUnrecoverable, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			inv := &mockInventory{}
			inv.On("Transfer", mock.Anything, mock.MatchedBy(func(r domain.TransferRequest) bool {
				return r.InventoryItemID == "55" && r.ProductName == "Borsalino" && r.Price.String() == "120"
			})).Return(&domain.TransferOutcome{TransferID: "t-1", Status: tc.status}, nil)

			router := gin.New()
			router.POST("/transfer", HandleTransfer(inv, zap.NewNop()))
			w := serve(router, http.MethodPost, "/transfer", transferBody)

			assert.Equal(t, tc.code, w.Code)
			var outcome domain.TransferOutcome
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
			assert.Equal(t, tc.status, outcome.Status)
			inv.AssertExpectations(t)
		})
	}
}

func TestHandleTransferRolledBackCanRetrySameKey(t *testing.T) {
	inv := &mockInventory{}
	inv.On("Transfer", mock.Anything, mock.Anything).
		Return(&domain.TransferOutcome{TransferID: "t-1", Status: domain.TransferRolledBack}, nil).Once()
	inv.On("Transfer", mock.Anything, mock.Anything).
		Return(&domain.TransferOutcome{TransferID: "t-2", Status: domain.TransferCommitted}, nil).Once()

	router := gin.New()
	router.Use(middleware.IdempotencyMiddleware(middleware.NewIdempotencyStore(time.Minute), zap.NewNop()))
	router.POST("/transfer", HandleTransfer(inv, zap.NewNop()))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/transfer", strings.NewReader(transferBody))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.IdempotencyKeyHeader, "transfer-55")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusConflict, send().Code)
	retry := send()
	assert.Equal(t, http.StatusOK, retry.Code)
	assert.Contains(t, retry.Body.String(), `"t-2"`)
	inv.AssertNumberOfCalls(t, "Transfer", 2)
}

func TestHandleTransferErrors(t *testing.T) {
	inv := &mockInventory{}
	inv.On("Transfer", mock.Anything, mock.Anything).Return(nil,
		&apperrors.TransferError{Stage: "remove", Err: errors.New("not stocked")}).Once()
	inv.On("Transfer", mock.Anything, mock.Anything).Return(nil,
		&apperrors.ErrValidation{Message: "to_location_id source and destination must differ"}).Once()

	router := gin.New()
	router.POST("/transfer", HandleTransfer(inv, zap.NewNop()))

	w := serve(router, http.MethodPost, "/transfer", transferBody)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), `"stage":"remove"`)

	w = serve(router, http.MethodPost, "/transfer", transferBody)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, http.MethodPost, "/transfer", `{"quantity":1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandleDecrease(t *testing.T) {
	inv := &mockInventory{}
	inv.On("Decrease", mock.Anything, mock.Anything).Return(&domain.AdjustOutcome{
		InventoryItemID: "55", LocationID: "100", Delta: -1, StatusChanged: domain.StatusChangeToDraft,
	}, nil)

	router := gin.New()
	router.POST("/decrease", HandleDecrease(inv, zap.NewNop()))
	w := serve(router, http.MethodPost, "/decrease", `{"inventory_item_id":"55","location_id":"100","product_id":"1"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status_changed":"to_draft"`)
}

func TestHandleInventoryLevels(t *testing.T) {
	inv := &mockInventory{}
	inv.On("InventoryLevels", mock.Anything, []string{"1", "2"}).Return([]domain.InventoryLevel{{InventoryItemID: "1", Available: 3}}, nil)

	router := gin.New()
	router.GET("/levels", HandleInventoryLevels(inv, zap.NewNop()))
	w := serve(router, http.MethodGet, "/levels?inventory_item_ids=1,%202,", "")

	assert.Equal(t, http.StatusOK, w.Code)
	inv.AssertExpectations(t)
}

func TestHandleSetInventoryLevelRequiresAvailable(t *testing.T) {
	router := gin.New()
	router.PUT("/level", HandleSetInventoryLevel(&mockInventory{}, zap.NewNop()))
	w := serve(router, http.MethodPut, "/level", `{"inventory_item_id":"1","location_id":"100"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandleSetInventoryLevelZero(t *testing.T) {
	inv := &mockInventory{}
	inv.On("SetInventoryLevel", mock.Anything, "1", "100", 0).Return(&domain.InventoryLevel{InventoryItemID: "1", LocationID: "100"}, nil)

	router := gin.New()
	router.PUT("/level", HandleSetInventoryLevel(inv, zap.NewNop()))
	w := serve(router, http.MethodPut, "/level", `{"inventory_item_id":"1","location_id":"100","available":0}`)
	assert.Equal(t, http.StatusOK, w.Code)
	inv.AssertExpectations(t)
}

type stubScanner struct {
	dryRun   *bool
	deadline time.Time
}

func (s *stubScanner) Run(ctx context.Context, dryRun bool) (*domain.StockUpdateResult, error) {
	s.dryRun = &dryRun
	s.deadline, _ = ctx.Deadline()
	return &domain.StockUpdateResult{DryRun: dryRun}, nil
}

func TestHandleStockScanIsBoundedByTimeout(t *testing.T) {
	scanner := &stubScanner{}
	router := gin.New()
	router.POST("/scan", HandleStockScan(scanner, time.Minute, zap.NewNop()))

	before := time.Now()
	w := serve(router, http.MethodPost, "/scan", "")
	assert.Equal(t, http.StatusOK, w.Code)
	require.False(t, scanner.deadline.IsZero())
	assert.WithinDuration(t, before.Add(time.Minute), scanner.deadline, 5*time.Second)
}

type timedOutScanner struct{}

func (timedOutScanner) Run(ctx context.Context, dryRun bool) (*domain.StockUpdateResult, error) {
	return &domain.StockUpdateResult{DryRun: dryRun},
		&apperrors.TimeoutError{Service: "stock-scanner", Op: "update_products", Err: context.DeadlineExceeded}
}

func TestHandleStockScanTimeoutIsGatewayTimeout(t *testing.T) {
	router := gin.New()
	router.POST("/scan", HandleStockScan(timedOutScanner{}, time.Minute, zap.NewNop()))
	w := serve(router, http.MethodPost, "/scan?dry_run=false", "")
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestHandleStockScanDefaultsToDryRun(t *testing.T) {
	scanner := &stubScanner{}
	router := gin.New()
	router.POST("/scan", HandleStockScan(scanner, 0, zap.NewNop()))

	w := serve(router, http.MethodPost, "/scan", "")
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, scanner.dryRun)
	assert.True(t, *scanner.dryRun)

	serve(router, http.MethodPost, "/scan?dry_run=false", "")
	assert.False(t, *scanner.dryRun)
}

type stubSearch struct {
	sortKey shopify.SortKey
	reverse bool
}

func (s *stubSearch) EnhancedSearch(_ context.Context, query string, sortKey shopify.SortKey, reverse bool) ([]domain.Product, error) {
	s.sortKey = sortKey
	s.reverse = reverse
	return []domain.Product{{ID: "1", Title: query}}, nil
}

func TestHandleSearchProducts(t *testing.T) {
	search := &stubSearch{}
	router := gin.New()
	router.GET("/search", HandleSearchProducts(search, zap.NewNop()))

	w := serve(router, http.MethodGet, "/search", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(router, http.MethodGet, "/search?q=borsalino&sort=title&reverse=true", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, shopify.SortTitle, search.sortKey)
	assert.True(t, search.reverse)
	assert.Contains(t, w.Body.String(), `"count":1`)
}

func TestHandleLowStockRejectsBadThreshold(t *testing.T) {
	router := gin.New()
	router.GET("/low", HandleLowStock(nil, zap.NewNop()))
	w := serve(router, http.MethodGet, "/low?threshold=two", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"threshold"`)
}

func locationRouter(t *testing.T) *gin.Engine {
	t.Helper()
	dir, err := location.NewDirectory(config.LocationsConfig{
		Primary:   config.LocationConfig{Name: "Treviso", ID: "3708157983"},
		Secondary: config.LocationConfig{Name: "Mogliano", ID: "31985336425"},
	})
	require.NoError(t, err)
	store := location.NewSettingsStore(filepath.Join(t.TempDir(), "settings.json"), dir)

	logger := zap.NewNop()
	router := gin.New()
	router.GET("/locations", HandleListLocations(dir))
	router.GET("/locations/current", HandleGetCurrentLocation(store, logger))
	router.PUT("/locations/current", HandleSetCurrentLocation(store, logger))
	router.GET("/locations/config", HandleLocationConfig(store, logger))
	return router
}

func TestLocationHandlers(t *testing.T) {
	router := locationRouter(t)

	w := serve(router, http.MethodGet, "/locations/current", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"explicit":false`)
	assert.Contains(t, w.Body.String(), `"name":"Treviso"`)

	w = serve(router, http.MethodPut, "/locations/current", `{"location":"mogliano"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(router, http.MethodGet, "/locations/config", "")
	require.Equal(t, http.StatusOK, w.Code)
	var cfg domain.LocationConfig
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfg))
	assert.Equal(t, "Mogliano", cfg.Primary.Name)
	assert.Equal(t, "Treviso", cfg.Secondary.Name)

	w = serve(router, http.MethodPut, "/locations/current", `{"location":"Venezia"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(router, http.MethodPut, "/locations/current", `{}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
