package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/config"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/shopify"
)

type ShopReader interface {
	GetShop(ctx context.Context) (*shopify.Shop, error)
}

// HandleShopifyStatus handles GET /v1/status/shopify
func HandleShopifyStatus(shop ShopReader, cfg *config.Config, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		info, err := shop.GetShop(c.Request.Context())
		if err != nil {
			logger.Warn("Shopify status check failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{
				"connected":   false,
				"shop_domain": cfg.Shopify.ShopDomain,
				"api_version": cfg.Shopify.APIVersion,
				"error":       err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"connected":   true,
			"shop_domain": cfg.Shopify.ShopDomain,
			"api_version": cfg.Shopify.APIVersion,
			"shop":        info,
		})
	}
}

// HandleFirebaseConfig handles GET /v1/config/firebase with the web client settings
func HandleFirebaseConfig(cfg config.FirebaseConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"apiKey":            cfg.APIKey,
			"authDomain":        cfg.AuthDomain,
			"projectId":         cfg.ProjectID,
			"storageBucket":     cfg.StorageBucket,
			"messagingSenderId": cfg.MessagingSenderID,
			"appId":             cfg.AppID,
			"measurementId":     cfg.MeasurementID,
		})
	}
}
