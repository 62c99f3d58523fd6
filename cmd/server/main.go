package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/api"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/audit"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/config"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/firestore"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/location"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/metrics"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/service"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/shopify"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateInventory(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting inventory API server",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
		zap.String("version", cfg.Version),
	)

	m := metrics.New()
	shop := shopify.NewClient(cfg.Shopify, logger, shopify.WithMetrics(m))
	store := audit.NewStore(firestore.NewClient(cfg.Firebase, logger, m), logger, m)

	dir, err := location.NewDirectory(cfg.Locations)
	if err != nil {
		logger.Fatal("Invalid location configuration", zap.Error(err))
	}
	settings := location.NewSettingsStore(cfg.SettingsFile, dir)

	fetcher := service.NewCatalogFetcher(shop, cfg.Stock.FetchWindow, cfg.Stock.PageSize, cfg.Stock.BatchDelay, logger, m)
	updater := service.NewDraftUpdater(shop, cfg.Stock.UpdateDelay, logger, m)
	// HTTP scans report through the JSON response, not a console
	scanner := service.NewStockScanner(fetcher, updater, service.NewExclusionSet(cfg.Stock.ExcludedProductIDs...), nil, logger)

	router := api.NewRouter(cfg, api.Dependencies{
		Products:  shop,
		Search:    service.NewProductSearch(shop, logger),
		LowStock:  scanner,
		History:   service.NewHistoryService(shop, store, dir, logger),
		Inventory: service.NewInventoryService(shop, store, dir, logger, m),
		Logs:      store,
		Checks:    store,
		Locations: dir,
		Current:   settings,
		Scanner:   scanner,
		Shop:      shop,
		Metrics:   m,
	}, logger)

	// Create HTTP server. Stock scans walk the whole catalog, so writes get
	// the operation timeout rather than the usual 15s.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.OperationTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started successfully", zap.String("address", srv.Addr))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	}
	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = level
	}
	return zapCfg.Build()
}
