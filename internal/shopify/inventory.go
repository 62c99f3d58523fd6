package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/domain"
	apperrors "github.com/JJCAPPE/inventario-cappellettoshop/pkg/errors"
)

// referenceDocumentURI tags GraphQL adjustments made by this app
const referenceDocumentURI = "app://inventario-cappelletto"

type restInventoryLevel struct {
	InventoryItemID int64 `json:"inventory_item_id"`
	LocationID      int64 `json:"location_id"`
	Available       *int  `json:"available"`
}

func (l restInventoryLevel) toDomain() domain.InventoryLevel {
	level := domain.InventoryLevel{
		InventoryItemID: strconv.FormatInt(l.InventoryItemID, 10),
		LocationID:      strconv.FormatInt(l.LocationID, 10),
	}
	if l.Available != nil {
		level.Available = *l.Available
	}
	return level
}

// GetInventoryLevels returns the levels of the given items, optionally restricted to some locations
func (c *Client) GetInventoryLevels(ctx context.Context, itemIDs []string, locationIDs []string) ([]domain.InventoryLevel, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	query := url.Values{}
	query.Set("inventory_item_ids", joinIDs(itemIDs))
	if len(locationIDs) > 0 {
		query.Set("location_ids", joinIDs(locationIDs))
	}
	query.Set("limit", "250")

	var payload struct {
		InventoryLevels []restInventoryLevel `json:"inventory_levels"`
	}
	if err := c.doJSON(ctx, "get_inventory_levels", http.MethodGet, "inventory_levels.json", query, nil, &payload); err != nil {
		return nil, err
	}

	levels := make([]domain.InventoryLevel, 0, len(payload.InventoryLevels))
	for _, l := range payload.InventoryLevels {
		levels = append(levels, l.toDomain())
	}
	return levels, nil
}

// AdjustInventory applies a signed delta to the available quantity of an item at a location
func (c *Client) AdjustInventory(ctx context.Context, itemID, locationID string, delta int) (*domain.InventoryLevel, error) {
	item, err := parseNumericID(itemID)
	if err != nil {
		return nil, err
	}
	location, err := parseNumericID(locationID)
	if err != nil {
		return nil, err
	}
	payload := map[string]interface{}{
		"location_id":          location,
		"inventory_item_id":    item,
		"available_adjustment": delta,
	}

	var out struct {
		InventoryLevel restInventoryLevel `json:"inventory_level"`
	}
	if err := c.doJSON(ctx, "adjust_inventory", http.MethodPost, "inventory_levels/adjust.json", nil, payload, &out); err != nil {
		return nil, err
	}
	level := out.InventoryLevel.toDomain()
	return &level, nil
}

// SetInventoryLevel overwrites the available quantity of an item at a location
func (c *Client) SetInventoryLevel(ctx context.Context, itemID, locationID string, available int) (*domain.InventoryLevel, error) {
	item, err := parseNumericID(itemID)
	if err != nil {
		return nil, err
	}
	location, err := parseNumericID(locationID)
	if err != nil {
		return nil, err
	}
	payload := map[string]interface{}{
		"location_id":       location,
		"inventory_item_id": item,
		"available":         available,
	}

	var out struct {
		InventoryLevel restInventoryLevel `json:"inventory_level"`
	}
	if err := c.doJSON(ctx, "set_inventory", http.MethodPost, "inventory_levels/set.json", nil, payload, &out); err != nil {
		return nil, err
	}
	level := out.InventoryLevel.toDomain()
	return &level, nil
}

// AdjustInventoryGraphQL applies several deltas in one inventoryAdjustQuantities call
func (c *Client) AdjustInventoryGraphQL(ctx context.Context, updates []domain.InventoryUpdate, reason string) error {
	if len(updates) == 0 {
		return nil
	}
	if reason == "" {
		reason = "correction"
	}
	changes := make([]InventoryChangeInput, 0, len(updates))
	for _, u := range updates {
		changes = append(changes, InventoryChangeInput{
			Delta:           u.Delta,
			InventoryItemID: GID("InventoryItem", u.InventoryItemID),
			LocationID:      GID("Location", u.LocationID),
		})
	}
	variables := map[string]interface{}{
		"input": InventoryAdjustQuantitiesInput{
			Reason:               reason,
			Name:                 "available",
			ReferenceDocumentURI: referenceDocumentURI,
			Changes:              changes,
		},
	}

	resp, err := c.Execute(ctx, InventoryAdjustQuantitiesMutation, variables)
	if err != nil {
		return fmt.Errorf("failed to adjust inventory: %w", err)
	}

	var result struct {
		InventoryAdjustQuantities struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"inventoryAdjustQuantities"`
	}
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return &apperrors.ParseError{What: "inventoryAdjustQuantities response", Err: err}
	}
	if errs := result.InventoryAdjustQuantities.UserErrors; len(errs) > 0 {
		messages := make([]string, len(errs))
		for i, e := range errs {
			messages[i] = e.Message
		}
		return fmt.Errorf("shopify user errors: %s", strings.Join(messages, "; "))
	}
	return nil
}

func joinIDs(ids []string) string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, IDFromGID(id))
	}
	return strings.Join(out, ",")
}
