package shopify

import (
	"context"
	"net/http"
)

// Shop is the subset of shop.json used by the connection check
type Shop struct {
	Name            string `json:"name"`
	Domain          string `json:"domain"`
	MyshopifyDomain string `json:"myshopify_domain"`
	PlanName        string `json:"plan_name"`
	Currency        string `json:"currency"`
}

// GetShop fetches the shop record; a success proves the credentials work
func (c *Client) GetShop(ctx context.Context) (*Shop, error) {
	var payload struct {
		Shop Shop `json:"shop"`
	}
	if err := c.doJSON(ctx, "get_shop", http.MethodGet, "shop.json", nil, nil, &payload); err != nil {
		return nil, err
	}
	return &payload.Shop, nil
}
