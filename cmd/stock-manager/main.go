package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/config"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/service"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/shopify"
	apperrors "github.com/JJCAPPE/inventario-cappellettoshop/pkg/errors"
)

func main() {
	app := &cli.App{
		Name:  "stock-manager",
		Usage: "move active products with no stock at any location to draft",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"d"},
				Usage:   "list the products that would be drafted without changing them",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Configuration error: %v", err), 1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to create logger: %v", err), 1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(c.Context, cfg.OperationTimeout)
	defer cancel()

	shop := shopify.NewClient(cfg.Shopify, logger)
	fetcher := service.NewCatalogFetcher(shop, cfg.Stock.FetchWindow, cfg.Stock.PageSize, cfg.Stock.BatchDelay, logger, nil)
	updater := service.NewDraftUpdater(shop, cfg.Stock.UpdateDelay, logger, nil)
	excluded := service.NewExclusionSet(cfg.Stock.ExcludedProductIDs...)
	scanner := service.NewStockScanner(fetcher, updater, excluded, c.App.Writer, logger)

	start := time.Now()
	result, err := scanner.Run(ctx, c.Bool("dry-run"))
	if err != nil {
		if result != nil {
			// partial run: show what was done before the deadline
			_ = service.WriteReport(c.App.Writer, result)
		}
		if ctx.Err() != nil && !apperrors.IsTimeout(err) {
			err = &apperrors.TimeoutError{Service: "stock-manager", Op: "scan", Err: err}
		}
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	if err := service.WriteReport(c.App.Writer, result); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to write report: %v", err), 1)
	}
	fmt.Fprintf(c.App.Writer, "\nCompleted in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// newLogger builds the logger like the server does. Console output is the
// report, so the level defaults to warn unless LOG_LEVEL is set.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if os.Getenv("LOG_LEVEL") != "" {
		if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
			zapCfg.Level = level
		}
	}
	return zapCfg.Build()
}
