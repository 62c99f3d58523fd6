package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/api/middleware"
)

func main() {
	apiKeyFlag := flag.String("api-key", "", "API key clients will send as a Bearer token (save it; it cannot be retrieved later)")
	flag.Parse()

	apiKey := *apiKeyFlag
	if apiKey == "" && flag.NArg() >= 1 {
		apiKey = flag.Arg(0)
	}
	// Trim so the stored hash matches what the server receives (AuthMiddleware trims the Bearer token)
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		fmt.Println("Usage:")
		fmt.Println("  go run cmd/hash-api-key/main.go --api-key \"your-api-key\"")
		fmt.Println("  go run cmd/hash-api-key/main.go \"your-api-key\"")
		os.Exit(1)
	}
	if len(apiKey) > 72 {
		fmt.Fprintf(os.Stderr, "Error: API key must be at most 72 bytes (bcrypt limit).\n")
		os.Exit(1)
	}

	hash, err := middleware.HashAPIKey(apiKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error hashing API key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Add this line to .env and restart the server:")
	fmt.Printf("API_KEY_HASH=%s\n", hash)
}
