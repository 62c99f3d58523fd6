package domain

import "fmt"

// ProductStatus is the Shopify visibility status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusArchived ProductStatus = "archived"
)

// IsValid checks if the product status is one of the known values
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusActive, ProductStatusDraft, ProductStatusArchived:
		return true
	default:
		return false
	}
}

// ParseProductStatus maps a wire value onto the closed status set.
// Shopify sends lowercase values on REST and uppercase ones on GraphQL.
func ParseProductStatus(raw string) (ProductStatus, error) {
	switch raw {
	case "active", "ACTIVE":
		return ProductStatusActive, nil
	case "draft", "DRAFT":
		return ProductStatusDraft, nil
	case "archived", "ARCHIVED":
		return ProductStatusArchived, nil
	default:
		return "", fmt.Errorf("unknown product status %q", raw)
	}
}

// LocationRole distinguishes the two stock-holding sites
type LocationRole string

const (
	LocationRolePrimary   LocationRole = "primary"
	LocationRoleSecondary LocationRole = "secondary"
)

// Other returns the opposite role
func (r LocationRole) Other() LocationRole {
	if r == LocationRolePrimary {
		return LocationRoleSecondary
	}
	return LocationRolePrimary
}

// TransferStatus is the terminal state of an inventory move
type TransferStatus string

const (
	// TransferCommitted - both legs applied
	TransferCommitted TransferStatus = "committed"
	// TransferRolledBack - destination failed, source restored; safe to retry
	TransferRolledBack TransferStatus = "rolled_back"
	// TransferUnrecoverable - destination failed and restoring the source failed too
	TransferUnrecoverable TransferStatus = "unrecoverable"
)

// StatusChange records a product status side effect of an inventory change
type StatusChange string

const (
	StatusChangeNone     StatusChange = ""
	StatusChangeToDraft  StatusChange = "to_draft"
	StatusChangeToActive StatusChange = "to_active"
)
