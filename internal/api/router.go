package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/api/handlers"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/api/middleware"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/config"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/metrics"
)

const idempotencyTTL = 24 * time.Hour

// Dependencies are the services behind the HTTP handlers
type Dependencies struct {
	Products  handlers.ProductGetter
	Search    handlers.ProductSearcher
	LowStock  handlers.LowStockReporter
	History   handlers.HistoryReader
	Inventory handlers.InventoryManager
	Logs      handlers.LogReader
	Checks    handlers.CheckStore
	Locations handlers.LocationLister
	Current   handlers.CurrentLocation
	Scanner   handlers.StockScanRunner
	Shop      handlers.ShopReader
	Metrics   *metrics.Metrics
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, deps Dependencies, logger *zap.Logger) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(customRecovery(logger))
	router.Use(middleware.RequestID())
	router.Use(loggingMiddleware(logger))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "Inventario Cappelletto API",
			"version": cfg.Version,
			"endpoints": []string{
				"GET /health",
				"GET /metrics",
				"GET /v1/products/search",
				"GET /v1/products/low-stock",
				"GET /v1/products/:id",
				"GET /v1/products/:id/history",
				"GET /v1/inventory/levels",
				"POST /v1/inventory/transfer",
				"POST /v1/inventory/decrease",
				"POST /v1/inventory/undo",
				"GET /v1/logs/today",
				"GET /v1/checks",
				"GET /v1/locations",
				"POST /v1/stock/scan",
			},
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.API.KeyHash, logger))
	{
		products := v1.Group("/products")
		{
			products.GET("/search", handlers.HandleSearchProducts(deps.Search, logger))
			products.GET("/low-stock", handlers.HandleLowStock(deps.LowStock, logger))
			products.GET("/:id", handlers.HandleGetProduct(deps.Products, logger))
			products.GET("/:id/history", handlers.HandleProductHistory(deps.History, logger))
		}

		inventory := v1.Group("/inventory")
		inventory.Use(middleware.IdempotencyMiddleware(middleware.NewIdempotencyStore(idempotencyTTL), logger))
		{
			inventory.GET("/levels", handlers.HandleInventoryLevels(deps.Inventory, logger))
			inventory.POST("/adjust", handlers.HandleAdjustInventory(deps.Inventory, logger))
			inventory.PUT("/level", handlers.HandleSetInventoryLevel(deps.Inventory, logger))
			inventory.POST("/decrease", handlers.HandleDecrease(deps.Inventory, logger))
			inventory.POST("/undo", handlers.HandleUndoDecrease(deps.Inventory, logger))
			inventory.POST("/transfer", handlers.HandleTransfer(deps.Inventory, logger))
		}

		logs := v1.Group("/logs")
		{
			logs.GET("", handlers.HandleLogsRange(deps.Logs, deps.Current, logger))
			logs.GET("/today", handlers.HandleLogsToday(deps.Logs, deps.Current, logger))
		}

		checks := v1.Group("/checks")
		{
			checks.POST("", handlers.HandleCreateCheck(deps.Checks, logger))
			checks.GET("", handlers.HandleListChecks(deps.Checks, deps.Current, logger))
			checks.PATCH("/:id", handlers.HandleUpdateCheck(deps.Checks, logger))
		}

		locations := v1.Group("/locations")
		{
			locations.GET("", handlers.HandleListLocations(deps.Locations))
			locations.GET("/current", handlers.HandleGetCurrentLocation(deps.Current, logger))
			locations.PUT("/current", handlers.HandleSetCurrentLocation(deps.Current, logger))
			locations.GET("/config", handlers.HandleLocationConfig(deps.Current, logger))
		}

		v1.POST("/stock/scan", handlers.HandleStockScan(deps.Scanner, cfg.OperationTimeout, logger))
		v1.GET("/status/shopify", handlers.HandleShopifyStatus(deps.Shop, cfg, logger))
		v1.GET("/config/firebase", handlers.HandleFirebaseConfig(cfg.Firebase))
	}

	return router
}

// customRecovery is a custom recovery middleware that logs panics
func customRecovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal server error",
			"details": fmt.Sprintf("%v", recovered),
		})
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", middleware.GetRequestID(c)),
		)
	}
}
