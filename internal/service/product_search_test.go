package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/domain"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/shopify"
)

type mockFinder struct {
	mock.Mock
}

func (m *mockFinder) FindProductByExactSKU(ctx context.Context, sku string) (*domain.Product, error) {
	args := m.Called(ctx, sku)
	p, _ := args.Get(0).(*domain.Product)
	return p, args.Error(1)
}

func (m *mockFinder) SearchProductsBySKU(ctx context.Context, sku string) ([]domain.Product, error) {
	args := m.Called(ctx, sku)
	p, _ := args.Get(0).([]domain.Product)
	return p, args.Error(1)
}

func (m *mockFinder) SearchProductsByName(ctx context.Context, name string, sortKey shopify.SortKey, reverse bool) ([]domain.Product, error) {
	args := m.Called(ctx, name, sortKey, reverse)
	p, _ := args.Get(0).([]domain.Product)
	return p, args.Error(1)
}

func (m *mockFinder) SearchProductsByTitle(ctx context.Context, title string) ([]domain.Product, error) {
	args := m.Called(ctx, title)
	p, _ := args.Get(0).([]domain.Product)
	return p, args.Error(1)
}

func products(ids ...string) []domain.Product {
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Product{ID: id, Title: "P" + id})
	}
	return out
}

func TestEnhancedSearchExactSKUShortCircuits(t *testing.T) {
	finder := &mockFinder{}
	finder.On("FindProductByExactSKU", mock.Anything, "CAP-0042").Return(&domain.Product{ID: "42"}, nil)

	results, err := NewProductSearch(finder, zap.NewNop()).EnhancedSearch(context.Background(), " CAP-0042 ", shopify.SortRelevance, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, productIDs(results))
	finder.AssertNotCalled(t, "SearchProductsByName", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEnhancedSearchShortQuerySkipsExactSKU(t *testing.T) {
	finder := &mockFinder{}
	finder.On("SearchProductsByName", mock.Anything, "hat", shopify.SortRelevance, false).Return(products("1", "2"), nil)
	finder.On("SearchProductsBySKU", mock.Anything, "hat").Return(products("2", "3"), nil)

	results, err := NewProductSearch(finder, zap.NewNop()).EnhancedSearch(context.Background(), "hat", shopify.SortRelevance, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, productIDs(results))
	finder.AssertNotCalled(t, "FindProductByExactSKU", mock.Anything, mock.Anything)
}

func TestEnhancedSearchFallsBackToREST(t *testing.T) {
	finder := &mockFinder{}
	finder.On("FindProductByExactSKU", mock.Anything, "borsalino").Return(nil, nil)
	finder.On("SearchProductsByName", mock.Anything, "borsalino", shopify.SortTitle, true).Return(nil, errors.New("throttled"))
	finder.On("SearchProductsByTitle", mock.Anything, "borsalino").Return(products("5"), nil)
	finder.On("SearchProductsBySKU", mock.Anything, "borsalino").Return(nil, errors.New("throttled"))

	results, err := NewProductSearch(finder, zap.NewNop()).EnhancedSearch(context.Background(), "borsalino", shopify.SortTitle, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"5"}, productIDs(results))
	finder.AssertExpectations(t)
}

func TestEnhancedSearchSkipsSKUWhenEnoughResults(t *testing.T) {
	ids := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}
	finder := &mockFinder{}
	finder.On("SearchProductsByName", mock.Anything, "cap", shopify.SortRelevance, false).Return(products(ids...), nil)

	results, err := NewProductSearch(finder, zap.NewNop()).EnhancedSearch(context.Background(), "cap", shopify.SortRelevance, false)
	require.NoError(t, err)
	assert.Len(t, results, 10)
	finder.AssertNotCalled(t, "SearchProductsBySKU", mock.Anything, mock.Anything)
}

func TestEnhancedSearchBothTitleSearchesFail(t *testing.T) {
	finder := &mockFinder{}
	finder.On("SearchProductsByName", mock.Anything, "cap", shopify.SortRelevance, false).Return(nil, errors.New("graphql down"))
	finder.On("SearchProductsByTitle", mock.Anything, "cap").Return(nil, errors.New("rest down"))

	_, err := NewProductSearch(finder, zap.NewNop()).EnhancedSearch(context.Background(), "cap", shopify.SortRelevance, false)
	assert.EqualError(t, err, "rest down")
}

func TestEnhancedSearchEmptyQuery(t *testing.T) {
	results, err := NewProductSearch(&mockFinder{}, zap.NewNop()).EnhancedSearch(context.Background(), "  ", "", false)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func productIDs(ps []domain.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}
