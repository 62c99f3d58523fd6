package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/config"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/shopify"
)

const productsQuery = `
query {
  products(first: 1) {
    edges { node { id title } }
  }
}
`

const locationsQuery = `
query {
  locations(first: 10) {
    edges { node { id name } }
  }
}
`

const inventoryQuery = `
query {
  inventoryItems(first: 1) {
    edges { node { id tracked } }
  }
}
`

type edges struct {
	Edges []struct {
		Node struct {
			ID    string `json:"id"`
			Title string `json:"title"`
			Name  string `json:"name"`
		} `json:"node"`
	} `json:"edges"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	client := shopify.NewClient(cfg.Shopify, logger)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	fmt.Println("Checking API permissions...")
	failed := 0

	fmt.Println("1. Testing 'read_products' permission...")
	var products struct {
		Products edges `json:"products"`
	}
	if err := check(ctx, client, productsQuery, &products); err != nil {
		failed++
		fmt.Printf("   ❌ Failed: %v\n", err)
	} else if len(products.Products.Edges) > 0 {
		fmt.Printf("   ✅ Success! Found product: %s\n", products.Products.Edges[0].Node.Title)
	} else {
		fmt.Println("   ✅ Permission works, but no products found")
	}

	fmt.Println("\n2. Testing 'read_locations' permission...")
	var locations struct {
		Locations edges `json:"locations"`
	}
	if err := check(ctx, client, locationsQuery, &locations); err != nil {
		failed++
		fmt.Printf("   ❌ Failed: %v\n", err)
	} else {
		for _, e := range locations.Locations.Edges {
			id := shopify.IDFromGID(e.Node.ID)
			marker := ""
			switch id {
			case cfg.Locations.Primary.ID:
				marker = " (LOCATION_PRIMARY_ID)"
			case cfg.Locations.Secondary.ID:
				marker = " (LOCATION_SECONDARY_ID)"
			}
			fmt.Printf("   ✅ %s: %s%s\n", id, e.Node.Name, marker)
		}
	}

	fmt.Println("\n3. Testing 'read_inventory' permission...")
	var inventory struct {
		InventoryItems edges `json:"inventoryItems"`
	}
	if err := check(ctx, client, inventoryQuery, &inventory); err != nil {
		failed++
		fmt.Printf("   ❌ Failed: %v\n", err)
	} else {
		fmt.Println("   ✅ Success! Inventory items are readable")
	}

	fmt.Println("\n📋 Required scopes for the inventory API:")
	fmt.Println("   - read_products, write_products (search, drafting empty products)")
	fmt.Println("   - read_inventory, write_inventory (levels, adjustments, transfers)")
	fmt.Println("   - read_locations (location ids)")
	fmt.Println("\nWrite scopes are not probed; they need a mutation that would change the shop.")

	if failed > 0 {
		os.Exit(1)
	}
}

func check(ctx context.Context, client *shopify.Client, query string, out interface{}) error {
	resp, err := client.Execute(ctx, query, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(resp.Data, out)
}
