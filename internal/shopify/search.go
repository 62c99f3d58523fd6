package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/domain"
	apperrors "github.com/JJCAPPE/inventario-cappellettoshop/pkg/errors"
)

// SortKey is a ProductSortKeys value
type SortKey string

const (
	SortRelevance SortKey = "RELEVANCE"
	SortTitle     SortKey = "TITLE"
	SortUpdatedAt SortKey = "UPDATED_AT"
	SortCreatedAt SortKey = "CREATED_AT"
)

type gqlVariantNode struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	SKU               string `json:"sku"`
	Price             string `json:"price"`
	InventoryQuantity int    `json:"inventoryQuantity"`
	InventoryItem     struct {
		ID string `json:"id"`
	} `json:"inventoryItem"`
}

type gqlProductNode struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Handle          string `json:"handle"`
	Status          string `json:"status"`
	DescriptionHTML string `json:"descriptionHtml"`
	PriceRangeV2    struct {
		MinVariantPrice struct {
			Amount string `json:"amount"`
		} `json:"minVariantPrice"`
	} `json:"priceRangeV2"`
	Images struct {
		Edges []struct {
			Node struct {
				URL string `json:"url"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"images"`
	Variants struct {
		Edges []struct {
			Node gqlVariantNode `json:"node"`
		} `json:"edges"`
	} `json:"variants"`
}

// SearchProductsBySKU finds active products with a variant SKU matching sku
func (c *Client) SearchProductsBySKU(ctx context.Context, sku string) ([]domain.Product, error) {
	return c.searchProducts(ctx, fmt.Sprintf("sku:%s status:active", escapeSearchTerm(sku)), 50, SortRelevance, false)
}

// FindProductByExactSKU returns the product owning a variant whose SKU equals sku, or nil
func (c *Client) FindProductByExactSKU(ctx context.Context, sku string) (*domain.Product, error) {
	products, err := c.searchProducts(ctx, fmt.Sprintf("sku:%s status:active", escapeSearchTerm(sku)), 10, SortRelevance, false)
	if err != nil {
		return nil, err
	}
	for i := range products {
		for _, v := range products[i].Variants {
			if strings.EqualFold(v.SKU, sku) {
				return &products[i], nil
			}
		}
	}
	return nil, nil
}

// SearchProductsByName runs a title prefix search over active products
func (c *Client) SearchProductsByName(ctx context.Context, name string, sortKey SortKey, reverse bool) ([]domain.Product, error) {
	if sortKey == "" {
		sortKey = SortRelevance
	}
	return c.searchProducts(ctx, fmt.Sprintf("title:%s* status:active", escapeSearchTerm(name)), 40, sortKey, reverse)
}

func (c *Client) searchProducts(ctx context.Context, query string, first int, sortKey SortKey, reverse bool) ([]domain.Product, error) {
	variables := map[string]interface{}{
		"first":   first,
		"query":   query,
		"sortKey": string(sortKey),
		"reverse": reverse,
	}

	resp, err := c.Execute(ctx, ProductSearchQuery, variables)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	var result struct {
		Products struct {
			Edges []struct {
				Node gqlProductNode `json:"node"`
			} `json:"edges"`
		} `json:"products"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return nil, &apperrors.ParseError{What: "product search response", Err: err}
	}

	products := make([]domain.Product, 0, len(result.Products.Edges))
	for _, edge := range result.Products.Edges {
		product, err := edge.Node.toProduct()
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	return products, nil
}

func (n gqlProductNode) toProduct() (*domain.Product, error) {
	product := &domain.Product{
		ID:          IDFromGID(n.ID),
		Title:       n.Title,
		Handle:      n.Handle,
		Description: CleanDescription(n.DescriptionHTML),
		Images:      make([]string, 0, len(n.Images.Edges)),
		Variants:    make([]domain.Variant, 0, len(n.Variants.Edges)),
	}
	if n.Status != "" {
		status, err := domain.ParseProductStatus(n.Status)
		if err != nil {
			return nil, &apperrors.ParseError{What: "product " + n.ID, Err: err}
		}
		product.Status = status
	}
	price, err := parsePrice(n.PriceRangeV2.MinVariantPrice.Amount)
	if err != nil {
		return nil, &apperrors.ParseError{What: "product " + n.ID + " price", Err: err}
	}
	product.Price = price

	for _, img := range n.Images.Edges {
		if img.Node.URL != "" {
			product.Images = append(product.Images, img.Node.URL)
		}
	}
	for _, edge := range n.Variants.Edges {
		v := edge.Node
		vp, err := parsePrice(v.Price)
		if err != nil {
			return nil, &apperrors.ParseError{What: "variant " + v.ID + " price", Err: err}
		}
		product.Variants = append(product.Variants, domain.Variant{
			ID:                IDFromGID(v.ID),
			Title:             v.Title,
			SKU:               v.SKU,
			Price:             vp,
			InventoryItemID:   IDFromGID(v.InventoryItem.ID),
			InventoryQuantity: v.InventoryQuantity,
		})
	}
	return product, nil
}

// escapeSearchTerm quotes a term containing whitespace or search syntax characters
func escapeSearchTerm(term string) string {
	term = strings.TrimSpace(term)
	if strings.ContainsAny(term, " :\"()") {
		return `"` + strings.ReplaceAll(term, `"`, `\"`) + `"`
	}
	return term
}
