package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/domain"
)

type LocationLister interface {
	All() []domain.LocationInfo
}

type CurrentLocation interface {
	Current() (string, bool, error)
	SetCurrent(name string) (domain.LocationInfo, error)
	CurrentConfig() (domain.LocationConfig, error)
}

// HandleListLocations handles GET /v1/locations
func HandleListLocations(dir LocationLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": dir.All()})
	}
}

// HandleGetCurrentLocation handles GET /v1/locations/current
func HandleGetCurrentLocation(current CurrentLocation, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, ok, err := current.Current()
		if err != nil {
			writeError(c, logger, err)
			return
		}
		cfg, err := current.CurrentConfig()
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"location": cfg.Primary, "explicit": ok, "stored": name})
	}
}

type setLocationRequest struct {
	Location string `json:"location" binding:"required"`
}

// HandleSetCurrentLocation handles PUT /v1/locations/current
func HandleSetCurrentLocation(current CurrentLocation, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req setLocationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		info, err := current.SetCurrent(req.Location)
		if err != nil {
			writeError(c, logger, err)
			return
		}
		logger.Info("Current location changed", zap.String("location", info.Name))
		c.JSON(http.StatusOK, gin.H{"location": info})
	}
}

// HandleLocationConfig handles GET /v1/locations/config
func HandleLocationConfig(current CurrentLocation, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg, err := current.CurrentConfig()
		if err != nil {
			writeError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, cfg)
	}
}
