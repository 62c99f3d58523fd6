package shopify

// InventoryAdjustQuantitiesMutation applies deltas to the "available" quantity
const InventoryAdjustQuantitiesMutation = `
mutation inventoryAdjustQuantities($input: InventoryAdjustQuantitiesInput!) {
  inventoryAdjustQuantities(input: $input) {
    inventoryAdjustmentGroup {
      reason
      referenceDocumentUri
      changes {
        name
        delta
      }
    }
    userErrors {
      field
      message
    }
  }
}
`

// InventoryAdjustQuantitiesInput represents the input of inventoryAdjustQuantities
type InventoryAdjustQuantitiesInput struct {
	Reason               string                 `json:"reason"`
	Name                 string                 `json:"name"`
	ReferenceDocumentURI string                 `json:"referenceDocumentUri,omitempty"`
	Changes              []InventoryChangeInput `json:"changes"`
}

// InventoryChangeInput is one item/location delta
type InventoryChangeInput struct {
	Delta           int    `json:"delta"`
	InventoryItemID string `json:"inventoryItemId"`
	LocationID      string `json:"locationId"`
}
