package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/audit"
)

type CheckStore interface {
	CreateCheck(ctx context.Context, check audit.CheckRequest) (string, error)
	ChecksForLocation(ctx context.Context, location string) ([]audit.CheckRequest, error)
	UpdateCheck(ctx context.Context, id, status, closingNotes string) error
}

// HandleCreateCheck handles POST /v1/checks
func HandleCreateCheck(checks CheckStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req audit.CheckRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		id, err := checks.CreateCheck(c.Request.Context(), req)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": id})
	}
}

// HandleListChecks handles GET /v1/checks?location=
func HandleListChecks(checks CheckStore, current CurrentLocation, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		loc, err := resolveLocationName(c, current)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		list, err := checks.ChecksForLocation(c.Request.Context(), loc)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": list, "count": len(list)})
	}
}

type updateCheckRequest struct {
	Status       string `json:"status" binding:"required"`
	ClosingNotes string `json:"closing_notes"`
}

// HandleUpdateCheck handles PATCH /v1/checks/:id
func HandleUpdateCheck(checks CheckStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateCheckRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		if err := checks.UpdateCheck(c.Request.Context(), c.Param("id"), req.Status, req.ClosingNotes); err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	}
}
