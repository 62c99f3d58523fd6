package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Variant is a purchasable SKU under a product. Quantity is a snapshot.
type Variant struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	SKU               string          `json:"sku,omitempty"`
	Price             decimal.Decimal `json:"price"`
	InventoryItemID   string          `json:"inventory_item_id"`
	InventoryQuantity int             `json:"inventory_quantity"`
}

// CatalogItem is one product as returned by the paginated listing endpoint
type CatalogItem struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Status   ProductStatus `json:"status"`
	Variants []Variant     `json:"variants"`
}

// Product is the detailed product view used by search and history
type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Handle      string          `json:"handle,omitempty"`
	Description string          `json:"description,omitempty"`
	Status      ProductStatus   `json:"status,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Images      []string        `json:"images"`
	Variants    []Variant       `json:"variants"`
}

// TotalInventory sums the variant snapshots
func (p *Product) TotalInventory() int {
	total := 0
	for _, v := range p.Variants {
		total += v.InventoryQuantity
	}
	return total
}

// NoStockCandidate is an active catalog item whose variants are all at or below zero
type NoStockCandidate struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Status     ProductStatus `json:"status"`
	IsExcluded bool          `json:"is_excluded"`
}

// UpdateOutcome is the result of setting one candidate to draft
type UpdateOutcome struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Success   bool    `json:"success"`
	Error     *string `json:"error,omitempty"`
}

// UpdateSummary aggregates a draft-status run. Excluded items never count as updates.
type UpdateSummary struct {
	TotalFound        int `json:"total_found"`
	ExcludedCount     int `json:"excluded_count"`
	EligibleCount     int `json:"eligible_count"`
	SuccessfulUpdates int `json:"successful_updates"`
	FailedUpdates     int `json:"failed_updates"`
}

// StockUpdateResult is the full report of one scan
type StockUpdateResult struct {
	DryRun     bool               `json:"dry_run"`
	Candidates []NoStockCandidate `json:"candidates"`
	Outcomes   []UpdateOutcome    `json:"outcomes,omitempty"`
	Summary    UpdateSummary      `json:"summary"`
}

// InventoryLevel is the available quantity of one item at one location
type InventoryLevel struct {
	InventoryItemID string `json:"inventory_item_id"`
	LocationID      string `json:"location_id"`
	Available       int    `json:"available"`
}

// InventoryUpdate is a signed adjustment of one item at one location
type InventoryUpdate struct {
	InventoryItemID string `json:"inventory_item_id" binding:"required"`
	LocationID      string `json:"location_id" binding:"required"`
	Delta           int    `json:"delta"`
}

// ItemDetails carries the descriptive fields copied into audit records
type ItemDetails struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Variant     string          `json:"variant"`
	Price       decimal.Decimal `json:"price"`
	Images      []string        `json:"images"`
}

// TransferRequest moves Quantity units of one inventory item between the two locations
type TransferRequest struct {
	InventoryItemID string `json:"inventory_item_id" binding:"required"`
	FromLocationID  string `json:"from_location_id" binding:"required"`
	ToLocationID    string `json:"to_location_id" binding:"required"`
	Quantity        int    `json:"quantity"`
	ItemDetails
}

// AdjustRequest is a single-location unit adjustment with audit details
type AdjustRequest struct {
	InventoryItemID string `json:"inventory_item_id" binding:"required"`
	LocationID      string `json:"location_id" binding:"required"`
	ItemDetails
}

// Diagnostic is a failure reported by a post-commit hook
type Diagnostic struct {
	Hook  string `json:"hook"`
	Error string `json:"error"`
}

// TransferOutcome is the terminal report of an inventory move
type TransferOutcome struct {
	TransferID    string         `json:"transfer_id"`
	Status        TransferStatus `json:"status"`
	Message       string         `json:"message"`
	StatusChanged StatusChange   `json:"status_changed,omitempty"`
	Diagnostics   []Diagnostic   `json:"diagnostics,omitempty"`
}

// AdjustOutcome reports a committed single-location adjustment
type AdjustOutcome struct {
	InventoryItemID string       `json:"inventory_item_id"`
	LocationID      string       `json:"location_id"`
	Delta           int          `json:"delta"`
	StatusChanged   StatusChange `json:"status_changed,omitempty"`
	Diagnostics     []Diagnostic `json:"diagnostics,omitempty"`
}

// LowStockItem is a variant whose total quantity is at or under a threshold
type LowStockItem struct {
	ProductID       string `json:"product_id"`
	ProductTitle    string `json:"product_title"`
	VariantTitle    string `json:"variant_title"`
	SKU             string `json:"sku,omitempty"`
	InventoryItemID string `json:"inventory_item_id"`
	Quantity        int    `json:"quantity"`
}

// LocationInfo is one of the two configured stock locations
type LocationInfo struct {
	Name string       `json:"name"`
	ID   string       `json:"id"`
	Role LocationRole `json:"role"`
}

// LocationConfig orders the two locations relative to the selected one
type LocationConfig struct {
	Primary   LocationInfo `json:"primary"`
	Secondary LocationInfo `json:"secondary"`
}

// ModificationDetail is one app-originated change
type ModificationDetail struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Change    int       `json:"change"`
	Reason    string    `json:"reason"`
}

// DailyModificationGroup collects the changes of one calendar day
type DailyModificationGroup struct {
	Date         string               `json:"date"`
	AppNetChange int                  `json:"app_net_change"`
	AppDetails   []ModificationDetail `json:"app_details"`
}

// VariantModificationHistory is the history of one variant at one location
type VariantModificationHistory struct {
	VariantTitle       string                   `json:"variant_title"`
	InventoryItemID    string                   `json:"inventory_item_id"`
	AppNetChange       int                      `json:"app_net_change"`
	CurrentQuantity    int                      `json:"current_quantity"`
	DailyModifications []DailyModificationGroup `json:"daily_modifications"`
}

// DateRange bounds a history query
type DateRange struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	DaysBack int    `json:"days_back"`
}

// ProductModificationHistory is the per-variant history of a product at one location
type ProductModificationHistory struct {
	ProductID string                       `json:"product_id"`
	Location  string                       `json:"location"`
	DateRange DateRange                    `json:"date_range"`
	Variants  []VariantModificationHistory `json:"variants"`
}
