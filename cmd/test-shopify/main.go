package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/config"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/shopify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Testing Shopify connection...\n\n")
	fmt.Printf("Shop Domain: %s\n", cfg.Shopify.ShopDomain)
	fmt.Printf("API Version: %s\n", cfg.Shopify.APIVersion)
	fmt.Printf("Access Token: %s\n\n", maskToken(cfg.Shopify.AccessToken))

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	client := shopify.NewClient(cfg.Shopify, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shop, err := client.GetShop(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ REST connection failed: %v\n\n", err)
		fmt.Println("Please check:")
		fmt.Println("  1. SHOPIFY_SHOP_DOMAIN format: should be 'store-name.myshopify.com' (no https://)")
		fmt.Println("  2. SHOPIFY_ACCESS_TOKEN: should start with 'shpat_' and be the full token")
		fmt.Println("  3. SHOPIFY_API_VERSION: must be a version Shopify still serves")
		os.Exit(1)
	}
	fmt.Printf("✅ REST: %s (%s, %s)\n", shop.Name, shop.MyshopifyDomain, shop.Currency)

	resp, err := client.Execute(ctx, shopify.ShopQuery, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ GraphQL connection failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✅ GraphQL connection successful!")
	fmt.Printf("Response: %s\n", string(resp.Data))
}

func maskToken(token string) string {
	if len(token) <= 14 {
		return "(too short to be a valid token)"
	}
	return token[:10] + "..." + token[len(token)-4:]
}
