package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/domain"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/shopify"
)

const (
	exactSKUMinLength = 6
	partialSKUBelow   = 10
)

// ProductSearch combines SKU and title lookups
type ProductSearch struct {
	finder ProductFinder
	logger *zap.Logger
}

func NewProductSearch(finder ProductFinder, logger *zap.Logger) *ProductSearch {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductSearch{finder: finder, logger: logger}
}

// EnhancedSearch looks a query up as an exact SKU first, then as a title
// prefix, topping up thin results with a partial SKU match. Products appear
// once, in the order they were found.
func (s *ProductSearch) EnhancedSearch(ctx context.Context, query string, sortKey shopify.SortKey, reverse bool) ([]domain.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Product{}, nil
	}

	if len(query) >= exactSKUMinLength {
		product, err := s.finder.FindProductByExactSKU(ctx, query)
		if err != nil {
			s.logger.Warn("Exact SKU lookup failed", zap.String("query", query), zap.Error(err))
		} else if product != nil {
			return []domain.Product{*product}, nil
		}
	}

	results := newProductSet()
	byName, err := s.finder.SearchProductsByName(ctx, query, sortKey, reverse)
	if err != nil {
		s.logger.Warn("Title search failed, falling back to REST", zap.String("query", query), zap.Error(err))
		byName, err = s.finder.SearchProductsByTitle(ctx, query)
		if err != nil {
			return nil, err
		}
	}
	results.add(byName...)

	if results.len() < partialSKUBelow {
		bySKU, err := s.finder.SearchProductsBySKU(ctx, query)
		if err != nil {
			s.logger.Warn("Partial SKU search failed", zap.String("query", query), zap.Error(err))
		} else {
			results.add(bySKU...)
		}
	}
	return results.items, nil
}

type productSet struct {
	seen  map[string]struct{}
	items []domain.Product
}

func newProductSet() *productSet {
	return &productSet{seen: map[string]struct{}{}, items: []domain.Product{}}
}

func (s *productSet) add(products ...domain.Product) {
	for _, p := range products {
		if _, ok := s.seen[p.ID]; ok {
			continue
		}
		s.seen[p.ID] = struct{}{}
		s.items = append(s.items, p)
	}
}

func (s *productSet) len() int { return len(s.items) }
