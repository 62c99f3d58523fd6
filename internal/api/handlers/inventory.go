package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/api/middleware"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/domain"
)

type InventoryManager interface {
	Transfer(ctx context.Context, req domain.TransferRequest) (*domain.TransferOutcome, error)
	Decrease(ctx context.Context, req domain.AdjustRequest) (*domain.AdjustOutcome, error)
	UndoDecrease(ctx context.Context, req domain.AdjustRequest) (*domain.AdjustOutcome, error)
	AdjustInventory(ctx context.Context, updates []domain.InventoryUpdate, reason string) error
	SetInventoryLevel(ctx context.Context, itemID, locationID string, available int) (*domain.InventoryLevel, error)
	InventoryLevels(ctx context.Context, itemIDs []string) ([]domain.InventoryLevel, error)
}

// HandleInventoryLevels handles GET /v1/inventory/levels?inventory_item_ids=1,2
func HandleInventoryLevels(inv InventoryManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var ids []string
		for _, id := range strings.Split(c.Query("inventory_item_ids"), ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		levels, err := inv.InventoryLevels(c.Request.Context(), ids)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": levels})
	}
}

type adjustBatchRequest struct {
	Updates []domain.InventoryUpdate `json:"updates" binding:"required,min=1,dive"`
	Reason  string                   `json:"reason"`
}

// HandleAdjustInventory handles POST /v1/inventory/adjust
func HandleAdjustInventory(inv InventoryManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req adjustBatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		if err := inv.AdjustInventory(c.Request.Context(), req.Updates, req.Reason); err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "applied": len(req.Updates)})
	}
}

type setLevelRequest struct {
	InventoryItemID string `json:"inventory_item_id" binding:"required"`
	LocationID      string `json:"location_id" binding:"required"`
	Available       *int   `json:"available" binding:"required"`
}

// HandleSetInventoryLevel handles PUT /v1/inventory/level
func HandleSetInventoryLevel(inv InventoryManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req setLevelRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		level, err := inv.SetInventoryLevel(c.Request.Context(), req.InventoryItemID, req.LocationID, *req.Available)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, level)
	}
}

// HandleDecrease handles POST /v1/inventory/decrease
func HandleDecrease(inv InventoryManager, logger *zap.Logger) gin.HandlerFunc {
	return handleAdjust(inv.Decrease, logger)
}

// HandleUndoDecrease handles POST /v1/inventory/undo
func HandleUndoDecrease(inv InventoryManager, logger *zap.Logger) gin.HandlerFunc {
	return handleAdjust(inv.UndoDecrease, logger)
}

func handleAdjust(apply func(context.Context, domain.AdjustRequest) (*domain.AdjustOutcome, error), logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req domain.AdjustRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		outcome, err := apply(c.Request.Context(), req)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, outcome)
	}
}

// HandleTransfer handles POST /v1/inventory/transfer. A rolled back transfer
// is safe to retry (409), with the same Idempotency-Key; an unrecoverable one
// needs a person (500) and stays cached under its key.
func HandleTransfer(inv InventoryManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req domain.TransferRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		outcome, err := inv.Transfer(c.Request.Context(), req)
		if err != nil {
			writeError(c, logger, err)
			return
		}

		switch outcome.Status {
		case domain.TransferCommitted:
			c.JSON(http.StatusOK, outcome)
		case domain.TransferRolledBack:
			c.Set(middleware.ReleaseKey, true)
			c.JSON(http.StatusConflict, outcome)
		default:
			logger.Error("Transfer left stock inconsistent",
				zap.String("transfer_id", outcome.TransferID),
				zap.String("request_id", middleware.GetRequestID(c)),
				zap.String("message", outcome.Message),
			)
			c.Set(middleware.KeepOnServerError, true)
			c.JSON(http.StatusInternalServerError, outcome)
		}
	}
}
