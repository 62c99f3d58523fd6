package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/audit"
)

type LogReader interface {
	LogsToday(ctx context.Context, location, nameFilter string) ([]audit.LogEntry, error)
	LogsInRange(ctx context.Context, location, startDate, endDate, nameFilter string) ([]audit.LogEntry, error)
}

// HandleLogsToday handles GET /v1/logs/today?location=&q=
func HandleLogsToday(logs LogReader, current CurrentLocation, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		loc, err := resolveLocationName(c, current)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		entries, err := logs.LogsToday(c.Request.Context(), loc, c.Query("q"))
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": entries, "count": len(entries), "location": loc})
	}
}

// HandleLogsRange handles GET /v1/logs?location=&start=YYYY-MM-DD&end=YYYY-MM-DD&q=
func HandleLogsRange(logs LogReader, current CurrentLocation, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		loc, err := resolveLocationName(c, current)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		start, end := c.Query("start"), c.Query("end")
		if start == "" || end == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start and end are required"})
			return
		}
		entries, err := logs.LogsInRange(c.Request.Context(), loc, start, end, c.Query("q"))
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": entries, "count": len(entries), "location": loc})
	}
}

// resolveLocationName uses the location query parameter, or the current location
func resolveLocationName(c *gin.Context, current CurrentLocation) (string, error) {
	if loc := c.Query("location"); loc != "" {
		return loc, nil
	}
	cfg, err := current.CurrentConfig()
	if err != nil {
		return "", err
	}
	return cfg.Primary.Name, nil
}
