package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/domain"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/shopify"
)

type ProductSearcher interface {
	EnhancedSearch(ctx context.Context, query string, sortKey shopify.SortKey, reverse bool) ([]domain.Product, error)
}

type ProductGetter interface {
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
}

type LowStockReporter interface {
	LowStock(ctx context.Context, threshold int) ([]domain.LowStockItem, error)
}

type HistoryReader interface {
	ProductHistory(ctx context.Context, productID, locationName string, daysBack int) (*domain.ProductModificationHistory, error)
}

// HandleSearchProducts handles GET /v1/products/search?q=
func HandleSearchProducts(search ProductSearcher, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := strings.TrimSpace(c.Query("q"))
		if q == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
			return
		}
		sortKey := shopify.SortKey(strings.ToUpper(c.DefaultQuery("sort", string(shopify.SortRelevance))))
		reverse := c.Query("reverse") == "true"

		products, err := search.EnhancedSearch(c.Request.Context(), q, sortKey, reverse)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": products, "count": len(products)})
	}
}

// HandleGetProduct handles GET /v1/products/:id
func HandleGetProduct(products ProductGetter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, err := products.GetProduct(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

// HandleLowStock handles GET /v1/products/low-stock?threshold=
func HandleLowStock(reporter LowStockReporter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		threshold, err := queryInt(c, "threshold", 2)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		items, err := reporter.LowStock(c.Request.Context(), threshold)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": items, "count": len(items), "threshold": threshold})
	}
}

// HandleProductHistory handles GET /v1/products/:id/history?location=&days=
func HandleProductHistory(history HistoryReader, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		days, err := queryInt(c, "days", 30)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		result, err := history.ProductHistory(c.Request.Context(), c.Param("id"), c.Query("location"), days)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
