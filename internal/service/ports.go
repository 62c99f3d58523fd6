package service

import (
	"context"
	"time"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/audit"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/domain"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/shopify"
)

// Throttler paces consecutive remote calls
type Throttler interface {
	Throttle(ctx context.Context, fallback time.Duration) error
}

// PageSource serves the paginated product listing
type PageSource interface {
	Throttler
	ListProductsPage(ctx context.Context, page shopify.PageRequest, onCursor func(string)) (*shopify.ProductPage, error)
}

// StatusWriter changes a product's status
type StatusWriter interface {
	Throttler
	UpdateProductStatus(ctx context.Context, productID string, status domain.ProductStatus) error
}

// CatalogReader reads a product and its stock levels
type CatalogReader interface {
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	GetInventoryLevels(ctx context.Context, itemIDs []string, locationIDs []string) ([]domain.InventoryLevel, error)
}

// InventoryGateway is the Shopify surface used by the inventory flows
type InventoryGateway interface {
	CatalogReader
	AdjustInventory(ctx context.Context, itemID, locationID string, delta int) (*domain.InventoryLevel, error)
	AdjustInventoryGraphQL(ctx context.Context, updates []domain.InventoryUpdate, reason string) error
	SetInventoryLevel(ctx context.Context, itemID, locationID string, available int) (*domain.InventoryLevel, error)
	UpdateProductStatus(ctx context.Context, productID string, status domain.ProductStatus) error
}

// ProductFinder is the Shopify surface used by product search
type ProductFinder interface {
	FindProductByExactSKU(ctx context.Context, sku string) (*domain.Product, error)
	SearchProductsBySKU(ctx context.Context, sku string) ([]domain.Product, error)
	SearchProductsByName(ctx context.Context, name string, sortKey shopify.SortKey, reverse bool) ([]domain.Product, error)
	SearchProductsByTitle(ctx context.Context, title string) ([]domain.Product, error)
}

// AuditRecorder writes audit records
type AuditRecorder interface {
	Record(ctx context.Context, entry audit.LogEntry) (string, error)
}

// AuditReader reads a product's audit records
type AuditReader interface {
	LogsForProduct(ctx context.Context, productID, location, startDate, endDate string) ([]audit.LogEntry, error)
}
