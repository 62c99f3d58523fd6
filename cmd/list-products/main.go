package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/config"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/domain"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/service"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/shopify"
)

func main() {
	threshold := flag.Int("threshold", -1, "only list variants with total stock at or below this quantity")
	search := flag.String("search", "", "only list products whose title or variant SKU contains this text")
	status := flag.String("status", string(domain.ProductStatusActive), "product status to list (active, draft, archived)")
	flag.Parse()

	productStatus, err := domain.ParseProductStatus(*status)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid --status: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment(zap.IncreaseLevel(zap.WarnLevel))
	defer logger.Sync()

	client := shopify.NewClient(cfg.Shopify, logger)
	fetcher := service.NewCatalogFetcher(client, cfg.Stock.FetchWindow, cfg.Stock.PageSize, cfg.Stock.BatchDelay, logger, nil)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.OperationTimeout)
	defer cancel()

	fmt.Printf("🔍 Fetching %s products from Shopify...\n", productStatus)
	items, err := fetcher.FetchAll(ctx, productStatus)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to fetch products: %v\n", err)
		os.Exit(1)
	}

	needle := strings.ToLower(strings.TrimSpace(*search))
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT ID\tTITLE\tVARIANT\tSKU\tQTY")

	listed := 0
	for _, item := range items {
		for _, v := range item.Variants {
			if *threshold >= 0 && v.InventoryQuantity > *threshold {
				continue
			}
			if needle != "" && !strings.Contains(strings.ToLower(item.Title), needle) &&
				!strings.Contains(strings.ToLower(v.SKU), needle) {
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", item.ID, item.Title, v.Title, v.SKU, v.InventoryQuantity)
			listed++
		}
	}
	tw.Flush()

	fmt.Printf("\n✅ %d products fetched, %d variants listed\n", len(items), listed)
}
