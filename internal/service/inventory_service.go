package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/audit"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/domain"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/location"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/metrics"
	apperrors "github.com/JJCAPPE/inventario-cappellettoshop/pkg/errors"
)

const (
	compensationTimeout = 30 * time.Second
	adjustmentReason    = "correction"
)

// InventoryService moves and adjusts stock and records every committed change
type InventoryService struct {
	gateway InventoryGateway
	audit   AuditRecorder
	dir     *location.Directory
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewInventoryService(gateway InventoryGateway, recorder AuditRecorder, dir *location.Directory, logger *zap.Logger, m *metrics.Metrics) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{
		gateway: gateway,
		audit:   recorder,
		dir:     dir,
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}
}

// Transfer moves stock from one location to the other. The source is
// decremented first; if that fails nothing has moved and an error is returned.
// A failed destination increment is compensated by restoring the source, and
// the outcome reports whether that compensation held.
func (s *InventoryService) Transfer(ctx context.Context, req domain.TransferRequest) (*domain.TransferOutcome, error) {
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if err := s.validateTransfer(req); err != nil {
		return nil, err
	}
	from, err := s.locationName(req.FromLocationID)
	if err != nil {
		return nil, err
	}
	to, err := s.locationName(req.ToLocationID)
	if err != nil {
		return nil, err
	}

	outcome := &domain.TransferOutcome{TransferID: uuid.NewString()}
	logger := s.logger.With(
		zap.String("transfer_id", outcome.TransferID),
		zap.String("inventory_item_id", req.InventoryItemID),
		zap.String("from", from),
		zap.String("to", to),
		zap.Int("quantity", req.Quantity),
	)
	logger.Info("Starting inventory transfer")

	if _, err := s.gateway.AdjustInventory(ctx, req.InventoryItemID, req.FromLocationID, -req.Quantity); err != nil {
		s.metrics.RecordTransfer("remove_failed")
		logger.Warn("Failed to remove stock at source", zap.Error(err))
		return nil, &apperrors.TransferError{Stage: "remove", Err: err}
	}

	if _, addErr := s.gateway.AdjustInventory(ctx, req.InventoryItemID, req.ToLocationID, req.Quantity); addErr != nil {
		logger.Warn("Failed to add stock at destination, restoring source", zap.Error(addErr))

		// the source must be restored even when the caller has gone away
		rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
		defer cancel()

		if _, rbErr := s.gateway.AdjustInventory(rbCtx, req.InventoryItemID, req.FromLocationID, req.Quantity); rbErr != nil {
			unrecoverable := &apperrors.UnrecoverableError{Original: addErr, Rollback: rbErr}
			outcome.Status = domain.TransferUnrecoverable
			outcome.Message = unrecoverable.Error()
			logger.Error("Rollback failed, stock is inconsistent", zap.Error(unrecoverable))
		} else {
			outcome.Status = domain.TransferRolledBack
			outcome.Message = addErr.Error()
			logger.Info("Source restored after failed transfer")
		}
		s.metrics.RecordTransfer(string(outcome.Status))
		return outcome, nil
	}

	outcome.Status = domain.TransferCommitted
	outcome.Message = fmt.Sprintf("moved %d of %s (%s) from %s to %s", req.Quantity, req.ProductName, req.Variant, from, to)
	s.metrics.RecordTransfer(string(outcome.Status))
	logger.Info("Inventory transfer committed")

	outcome.Diagnostics = audit.RunHooks(ctx, logger,
		audit.Hook{Name: "zero_inventory_check", Run: func(ctx context.Context) error {
			changed, err := s.demoteIfEmpty(ctx, req.ProductID)
			if changed {
				outcome.StatusChanged = domain.StatusChangeToDraft
			}
			return err
		}},
		audit.Hook{Name: "audit_source", Run: func(ctx context.Context) error {
			return s.record(ctx, audit.RequestTransfer, req.ItemDetails, req.InventoryItemID, from, -req.Quantity)
		}},
		audit.Hook{Name: "audit_destination", Run: func(ctx context.Context) error {
			return s.record(ctx, audit.RequestTransfer, req.ItemDetails, req.InventoryItemID, to, req.Quantity)
		}},
	)
	return outcome, nil
}

func (s *InventoryService) validateTransfer(req domain.TransferRequest) error {
	switch {
	case req.InventoryItemID == "":
		return invalid("inventory_item_id", "is required")
	case req.ProductID == "":
		return invalid("product_id", "is required")
	case req.Quantity < 0:
		return invalid("quantity", "must be positive")
	case req.FromLocationID == req.ToLocationID:
		return invalid("to_location_id", "source and destination must differ")
	}
	return nil
}

// Decrease removes one unit at a location. If no location holds stock
// afterwards the product is set to draft.
func (s *InventoryService) Decrease(ctx context.Context, req domain.AdjustRequest) (*domain.AdjustOutcome, error) {
	name, err := s.validateAdjust(req)
	if err != nil {
		return nil, err
	}

	update := domain.InventoryUpdate{InventoryItemID: req.InventoryItemID, LocationID: req.LocationID, Delta: -1}
	if err := s.gateway.AdjustInventoryGraphQL(ctx, []domain.InventoryUpdate{update}, adjustmentReason); err != nil {
		return nil, fmt.Errorf("failed to decrease inventory: %w", err)
	}

	outcome := &domain.AdjustOutcome{InventoryItemID: req.InventoryItemID, LocationID: req.LocationID, Delta: -1}
	logger := s.logger.With(zap.String("product_id", req.ProductID), zap.String("location", name))
	logger.Info("Inventory decreased")

	outcome.Diagnostics = audit.RunHooks(ctx, logger,
		audit.Hook{Name: "zero_inventory_check", Run: func(ctx context.Context) error {
			changed, err := s.demoteIfEmpty(ctx, req.ProductID)
			if changed {
				outcome.StatusChanged = domain.StatusChangeToDraft
			}
			return err
		}},
		audit.Hook{Name: "audit", Run: func(ctx context.Context) error {
			return s.record(ctx, audit.RequestAdjustment, req.ItemDetails, req.InventoryItemID, name, -1)
		}},
	)
	return outcome, nil
}

// UndoDecrease adds back one unit at a location. A product that had no stock
// anywhere before the undo is set back to active.
func (s *InventoryService) UndoDecrease(ctx context.Context, req domain.AdjustRequest) (*domain.AdjustOutcome, error) {
	name, err := s.validateAdjust(req)
	if err != nil {
		return nil, err
	}

	wasEmpty, err := s.hasZeroInventory(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to check product inventory: %w", err)
	}

	update := domain.InventoryUpdate{InventoryItemID: req.InventoryItemID, LocationID: req.LocationID, Delta: 1}
	if err := s.gateway.AdjustInventoryGraphQL(ctx, []domain.InventoryUpdate{update}, adjustmentReason); err != nil {
		return nil, fmt.Errorf("failed to restore inventory: %w", err)
	}

	outcome := &domain.AdjustOutcome{InventoryItemID: req.InventoryItemID, LocationID: req.LocationID, Delta: 1}
	logger := s.logger.With(zap.String("product_id", req.ProductID), zap.String("location", name))
	logger.Info("Inventory decrease undone")

	outcome.Diagnostics = audit.RunHooks(ctx, logger,
		audit.Hook{Name: "reactivate", Run: func(ctx context.Context) error {
			if !wasEmpty {
				return nil
			}
			if err := s.gateway.UpdateProductStatus(ctx, req.ProductID, domain.ProductStatusActive); err != nil {
				return err
			}
			outcome.StatusChanged = domain.StatusChangeToActive
			return nil
		}},
		audit.Hook{Name: "audit", Run: func(ctx context.Context) error {
			return s.record(ctx, audit.RequestUndo, req.ItemDetails, req.InventoryItemID, name, 1)
		}},
	)
	return outcome, nil
}

func (s *InventoryService) validateAdjust(req domain.AdjustRequest) (string, error) {
	if req.InventoryItemID == "" {
		return "", invalid("inventory_item_id", "is required")
	}
	if req.ProductID == "" {
		return "", invalid("product_id", "is required")
	}
	return s.locationName(req.LocationID)
}

// AdjustInventory applies signed adjustments as one batch without side effects
func (s *InventoryService) AdjustInventory(ctx context.Context, updates []domain.InventoryUpdate, reason string) error {
	if len(updates) == 0 {
		return invalid("updates", "at least one update is required")
	}
	if reason == "" {
		reason = adjustmentReason
	}
	return s.gateway.AdjustInventoryGraphQL(ctx, updates, reason)
}

// SetInventoryLevel overwrites the available quantity at a location
func (s *InventoryService) SetInventoryLevel(ctx context.Context, itemID, locationID string, available int) (*domain.InventoryLevel, error) {
	if _, err := s.locationName(locationID); err != nil {
		return nil, err
	}
	return s.gateway.SetInventoryLevel(ctx, itemID, locationID, available)
}

// InventoryLevels returns the levels of items at the configured locations
func (s *InventoryService) InventoryLevels(ctx context.Context, itemIDs []string) ([]domain.InventoryLevel, error) {
	if len(itemIDs) == 0 {
		return nil, invalid("inventory_item_ids", "is required")
	}
	var locationIDs []string
	for _, loc := range s.dir.All() {
		locationIDs = append(locationIDs, loc.ID)
	}
	return s.gateway.GetInventoryLevels(ctx, itemIDs, locationIDs)
}

// demoteIfEmpty sets the product to draft when no location holds any of its stock
func (s *InventoryService) demoteIfEmpty(ctx context.Context, productID string) (bool, error) {
	empty, err := s.hasZeroInventory(ctx, productID)
	if err != nil || !empty {
		return false, err
	}
	if err := s.gateway.UpdateProductStatus(ctx, productID, domain.ProductStatusDraft); err != nil {
		return false, fmt.Errorf("failed to set product to draft: %w", err)
	}
	s.logger.Info("Product has no stock left, set to draft", zap.String("product_id", productID))
	return true, nil
}

func (s *InventoryService) hasZeroInventory(ctx context.Context, productID string) (bool, error) {
	product, err := s.gateway.GetProduct(ctx, productID)
	if err != nil {
		return false, err
	}
	itemIDs := make([]string, 0, len(product.Variants))
	for _, v := range product.Variants {
		itemIDs = append(itemIDs, v.InventoryItemID)
	}
	if len(itemIDs) == 0 {
		return true, nil
	}

	levels, err := s.gateway.GetInventoryLevels(ctx, itemIDs, nil)
	if err != nil {
		return false, err
	}
	for _, level := range levels {
		if level.Available > 0 {
			return false, nil
		}
	}
	return true, nil
}

func (s *InventoryService) record(ctx context.Context, kind audit.RequestType, details domain.ItemDetails, itemID, locationName string, delta int) error {
	_, err := s.audit.Record(ctx, audit.LogEntry{
		RequestType: kind,
		Timestamp:   s.now(),
		Data: audit.LogData{
			ProductID:       details.ProductID,
			Variant:         details.Variant,
			Location:        locationName,
			InventoryItemID: itemID,
			Name:            details.ProductName,
			Price:           details.Price,
			Delta:           delta,
			Images:          details.Images,
		},
	})
	return err
}

func (s *InventoryService) locationName(id string) (string, error) {
	info, err := s.dir.ByID(id)
	if err != nil {
		return "", invalid("location_id", fmt.Sprintf("unknown location %q", id))
	}
	return info.Name, nil
}

func invalid(field, message string) error {
	return &apperrors.ErrValidation{
		Message: field + " " + message,
		Fields:  map[string]string{field: message},
	}
}
