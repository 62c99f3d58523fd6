package shopify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/domain"
	apperrors "github.com/JJCAPPE/inventario-cappellettoshop/pkg/errors"
)

const catalogFields = "id,title,status,variants"

// PageRequest selects one page of the product listing. Status is only sent
// with the first page: Shopify rejects filters next to page_info.
type PageRequest struct {
	Status   domain.ProductStatus
	Limit    int
	PageInfo string
}

// ProductPage is one page of catalog items
type ProductPage struct {
	Items        []domain.CatalogItem
	NextPageInfo string
}

type restImage struct {
	Src string `json:"src"`
}

type restVariant struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	SKU               string `json:"sku"`
	Price             string `json:"price"`
	InventoryItemID   int64  `json:"inventory_item_id"`
	InventoryQuantity int    `json:"inventory_quantity"`
}

type restProduct struct {
	ID       int64         `json:"id"`
	Title    string        `json:"title"`
	Handle   string        `json:"handle"`
	Status   string        `json:"status"`
	BodyHTML string        `json:"body_html"`
	Images   []restImage   `json:"images"`
	Variants []restVariant `json:"variants"`
}

// ListProductsPage fetches one page of products. onCursor, when non-nil, is
// called with the next cursor as soon as the response headers arrive, before
// the body is decoded.
func (c *Client) ListProductsPage(ctx context.Context, page PageRequest, onCursor func(string)) (*ProductPage, error) {
	limit := page.Limit
	if limit <= 0 || limit > 250 {
		limit = 250
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("fields", catalogFields)
	if page.PageInfo != "" {
		query.Set("page_info", page.PageInfo)
	} else if page.Status != "" {
		query.Set("status", string(page.Status))
	}

	resp, err := c.do(ctx, "list_products", http.MethodGet, "products.json", query, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	next := ParseNextPageInfo(resp.Header.Get("Link"))
	if onCursor != nil {
		onCursor(next)
	}

	var payload struct {
		Products []restProduct `json:"products"`
	}
	if err := decodeBody(resp.Body, "list_products", &payload); err != nil {
		return nil, err
	}

	items := make([]domain.CatalogItem, 0, len(payload.Products))
	for _, p := range payload.Products {
		item, err := p.toCatalogItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return &ProductPage{Items: items, NextPageInfo: next}, nil
}

// GetProduct fetches a product with its variants and images
func (c *Client) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	id, err := parseNumericID(productID)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Product restProduct `json:"product"`
	}
	if err := c.doJSON(ctx, "get_product", http.MethodGet, fmt.Sprintf("products/%d.json", id), nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Product.toProduct()
}

// SearchProductsByTitle runs the REST title filter, restricted to active products
func (c *Client) SearchProductsByTitle(ctx context.Context, title string) ([]domain.Product, error) {
	query := url.Values{}
	query.Set("title", title)
	query.Set("status", string(domain.ProductStatusActive))
	query.Set("limit", "50")

	var payload struct {
		Products []restProduct `json:"products"`
	}
	if err := c.doJSON(ctx, "search_products_title", http.MethodGet, "products.json", query, nil, &payload); err != nil {
		return nil, err
	}

	out := make([]domain.Product, 0, len(payload.Products))
	for _, p := range payload.Products {
		product, err := p.toProduct()
		if err != nil {
			return nil, err
		}
		out = append(out, *product)
	}
	return out, nil
}

// UpdateProductStatus sets a product's status. Setting the current status is a no-op success.
func (c *Client) UpdateProductStatus(ctx context.Context, productID string, status domain.ProductStatus) error {
	if !status.IsValid() {
		return &apperrors.ErrValidation{Message: fmt.Sprintf("invalid product status %q", status)}
	}
	id, err := parseNumericID(productID)
	if err != nil {
		return err
	}
	payload := map[string]interface{}{
		"product": map[string]interface{}{
			"id":     id,
			"status": string(status),
		},
	}
	return c.doJSON(ctx, "update_product_status", http.MethodPut, fmt.Sprintf("products/%d.json", id), nil, payload, nil)
}

func (p restProduct) toCatalogItem() (domain.CatalogItem, error) {
	status, err := domain.ParseProductStatus(p.Status)
	if err != nil {
		return domain.CatalogItem{}, &apperrors.ParseError{What: fmt.Sprintf("product %d", p.ID), Err: err}
	}
	variants, err := convertVariants(p.Variants)
	if err != nil {
		return domain.CatalogItem{}, err
	}
	return domain.CatalogItem{
		ID:       strconv.FormatInt(p.ID, 10),
		Title:    p.Title,
		Status:   status,
		Variants: variants,
	}, nil
}

func (p restProduct) toProduct() (*domain.Product, error) {
	item, err := p.toCatalogItem()
	if err != nil {
		return nil, err
	}
	images := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		if img.Src != "" {
			images = append(images, img.Src)
		}
	}
	product := &domain.Product{
		ID:          item.ID,
		Title:       item.Title,
		Handle:      p.Handle,
		Description: CleanDescription(p.BodyHTML),
		Status:      item.Status,
		Images:      images,
		Variants:    item.Variants,
	}
	if len(item.Variants) > 0 {
		product.Price = item.Variants[0].Price
	}
	return product, nil
}

func convertVariants(in []restVariant) ([]domain.Variant, error) {
	out := make([]domain.Variant, 0, len(in))
	for _, v := range in {
		price, err := parsePrice(v.Price)
		if err != nil {
			return nil, &apperrors.ParseError{What: fmt.Sprintf("variant %d price", v.ID), Err: err}
		}
		variant := domain.Variant{
			ID:                strconv.FormatInt(v.ID, 10),
			Title:             v.Title,
			SKU:               v.SKU,
			Price:             price,
			InventoryQuantity: v.InventoryQuantity,
		}
		if v.InventoryItemID != 0 {
			variant.InventoryItemID = strconv.FormatInt(v.InventoryItemID, 10)
		}
		out = append(out, variant)
	}
	return out, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

func parseNumericID(id string) (int64, error) {
	n, err := strconv.ParseInt(IDFromGID(id), 10, 64)
	if err != nil || n <= 0 {
		return 0, &apperrors.ErrValidation{Message: fmt.Sprintf("invalid Shopify id %q", id)}
	}
	return n, nil
}

// IDFromGID extracts the numeric id of a GID (gid://shopify/Product/123 -> 123).
// Plain ids are returned unchanged.
func IDFromGID(gid string) string {
	if i := strings.LastIndex(gid, "/"); i >= 0 {
		gid = gid[i+1:]
	}
	if i := strings.Index(gid, "?"); i >= 0 {
		gid = gid[:i]
	}
	return gid
}

// GID builds a Shopify global id for a resource type
func GID(resource, id string) string {
	if strings.HasPrefix(id, "gid://") {
		return id
	}
	return fmt.Sprintf("gid://shopify/%s/%s", resource, id)
}
