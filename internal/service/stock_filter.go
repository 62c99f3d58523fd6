package service

import (
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/domain"
)

// ExclusionSet holds product ids that are never demoted to draft
type ExclusionSet map[string]struct{}

func NewExclusionSet(ids ...string) ExclusionSet {
	set := make(ExclusionSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s ExclusionSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// FindProductsWithNoStock selects active items whose variants all report a
// quantity at or below zero. An item without variants qualifies.
func FindProductsWithNoStock(items []domain.CatalogItem, excluded ExclusionSet) []domain.NoStockCandidate {
	var candidates []domain.NoStockCandidate
	for _, item := range items {
		if item.Status != domain.ProductStatusActive || !allOutOfStock(item.Variants) {
			continue
		}
		candidates = append(candidates, domain.NoStockCandidate{
			ID:         item.ID,
			Title:      item.Title,
			Status:     item.Status,
			IsExcluded: excluded.Contains(item.ID),
		})
	}
	return candidates
}

func allOutOfStock(variants []domain.Variant) bool {
	for _, v := range variants {
		if v.InventoryQuantity > 0 {
			return false
		}
	}
	return true
}
