package service

import (
	"context"
	"fmt"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/domain"
)

// FindLowStock lists every variant whose quantity is at or below threshold
func FindLowStock(items []domain.CatalogItem, threshold int) []domain.LowStockItem {
	out := []domain.LowStockItem{}
	for _, item := range items {
		for _, v := range item.Variants {
			if v.InventoryQuantity > threshold {
				continue
			}
			out = append(out, domain.LowStockItem{
				ProductID:       item.ID,
				ProductTitle:    item.Title,
				VariantTitle:    v.Title,
				SKU:             v.SKU,
				InventoryItemID: v.InventoryItemID,
				Quantity:        v.InventoryQuantity,
			})
		}
	}
	return out
}

// LowStock fetches the active catalog and reports its low-stock variants
func (s *StockScanner) LowStock(ctx context.Context, threshold int) ([]domain.LowStockItem, error) {
	if threshold < 0 {
		return nil, invalid("threshold", "must not be negative")
	}
	items, err := s.fetcher.FetchAll(ctx, domain.ProductStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	return FindLowStock(items, threshold), nil
}
