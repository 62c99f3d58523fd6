package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/JJCAPPE/inventario-cappellettoshop/pkg/errors"
)

// writeError maps a service error onto an HTTP response
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		validation *apperrors.ErrValidation
		rejection  *apperrors.RemoteRejection
		transfer   *apperrors.TransferError
	)
	switch {
	case errors.As(err, &validation):
		body := gin.H{"error": validation.Error()}
		if len(validation.Fields) > 0 {
			body["fields"] = validation.Fields
		}
		c.JSON(http.StatusBadRequest, body)
	case apperrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperrors.IsTimeout(err):
		logger.Warn("Remote call timed out", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	case errors.As(err, &transfer):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "stage": transfer.Stage})
	case errors.As(err, &rejection):
		logger.Warn("Remote service rejected request", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "remote_status": rejection.StatusCode})
	case apperrors.IsConfig(err):
		logger.Error("Configuration error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "details": err.Error()})
	}
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error":   "invalid request body",
		"details": err.Error(),
	})
}

// queryInt reads an integer query parameter, falling back to def when absent
func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &apperrors.ErrValidation{Message: name + " must be an integer", Fields: map[string]string{name: "must be an integer"}}
	}
	return n, nil
}
