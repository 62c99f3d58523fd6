package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/domain"
)

type StockScanRunner interface {
	Run(ctx context.Context, dryRun bool) (*domain.StockUpdateResult, error)
}

// HandleStockScan handles POST /v1/stock/scan?dry_run=true. Scans are dry
// runs unless dry_run=false is passed explicitly, and are bounded by timeout
// when it is positive.
func HandleStockScan(scanner StockScanRunner, timeout time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		dryRun := c.DefaultQuery("dry_run", "true") != "false"
		logger.Info("Stock scan requested", zap.Bool("dry_run", dryRun), zap.Duration("timeout", timeout))

		ctx := c.Request.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		result, err := scanner.Run(ctx, dryRun)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
