package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "github.com/JJCAPPE/inventario-cappellettoshop/pkg/errors"
)

type Config struct {
	Port         string
	Environment  string
	LogLevel     string
	Version      string
	SettingsFile string // SETTINGS_FILE: JSON file holding the selected current location
	Shopify      ShopifyConfig
	Locations    LocationsConfig
	Firebase     FirebaseConfig
	Stock        StockConfig
	API          APIConfig
	// OperationTimeout bounds a whole scan or transfer
	OperationTimeout time.Duration
}

type ShopifyConfig struct {
	ShopDomain     string
	AccessToken    string
	APIVersion     string
	APIKey         string
	APISecretKey   string
	BaseURL        string // overrides https://<ShopDomain>, used against local fakes
	RequestTimeout time.Duration
}

// LocationConfig is one configured Shopify location
type LocationConfig struct {
	Name string
	ID   string
}

type LocationsConfig struct {
	Primary   LocationConfig
	Secondary LocationConfig
}

// FirebaseConfig is the Firebase web app configuration. Only ProjectID and APIKey are used server side.
type FirebaseConfig struct {
	APIKey            string
	ProjectID         string
	AuthDomain        string
	StorageBucket     string
	MessagingSenderID string
	AppID             string
	MeasurementID     string
	BaseURL           string // overrides the Firestore REST endpoint
}

type StockConfig struct {
	ExcludedProductIDs []string
	FetchWindow        int
	PageSize           int
	BatchDelay         time.Duration
	UpdateDelay        time.Duration
}

type APIConfig struct {
	KeyHash string // API_KEY_HASH: bcrypt hash of the local API key; empty disables auth
}

func Load() (*Config, error) {
	// .env is optional; variables already in the environment win
	_ = godotenv.Load()

	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	viper.SetDefault("PORT", "8787")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SHOPIFY_API_VERSION", "2025-01")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:         getEnvOrViper("PORT", "8787"),
		Environment:  getEnvOrViper("ENVIRONMENT", "development"),
		LogLevel:     getEnvOrViper("LOG_LEVEL", "info"),
		Version:      getEnvOrViper("VERSION", "dev"),
		SettingsFile: strings.TrimSpace(getEnvOrViper("SETTINGS_FILE", defaultSettingsFile())),
		Shopify: ShopifyConfig{
			ShopDomain:   strings.TrimSpace(getEnvOrViper("SHOPIFY_SHOP_DOMAIN", "")),
			AccessToken:  strings.TrimSpace(getEnvOrViper("SHOPIFY_ACCESS_TOKEN", "")),
			APIVersion:   getEnvOrViper("SHOPIFY_API_VERSION", "2025-01"),
			APIKey:       strings.TrimSpace(getEnvOrViper("SHOPIFY_API_KEY", "")),
			APISecretKey: strings.TrimSpace(getEnvOrViper("SHOPIFY_API_SECRET_KEY", "")),
			BaseURL:      strings.TrimSpace(getEnvOrViper("SHOPIFY_BASE_URL", "")),
		},
		Locations: LocationsConfig{
			Primary: LocationConfig{
				Name: getEnvOrViper("LOCATION_PRIMARY_NAME", "Treviso"),
				ID:   strings.TrimSpace(getEnvOrViper("LOCATION_PRIMARY_ID", "")),
			},
			Secondary: LocationConfig{
				Name: getEnvOrViper("LOCATION_SECONDARY_NAME", "Mogliano"),
				ID:   strings.TrimSpace(getEnvOrViper("LOCATION_SECONDARY_ID", "")),
			},
		},
		Firebase: FirebaseConfig{
			APIKey:            strings.TrimSpace(getEnvOrViper("FIREBASE_API_KEY", "")),
			ProjectID:         strings.TrimSpace(getEnvOrViper("FIREBASE_PROJECT_ID", "")),
			AuthDomain:        getEnvOrViper("FIREBASE_AUTH_DOMAIN", ""),
			StorageBucket:     getEnvOrViper("FIREBASE_STORAGE_BUCKET", ""),
			MessagingSenderID: getEnvOrViper("FIREBASE_MESSAGING_SENDER_ID", ""),
			AppID:             getEnvOrViper("FIREBASE_APP_ID", ""),
			MeasurementID:     getEnvOrViper("FIREBASE_MEASUREMENT_ID", ""),
			BaseURL:           strings.TrimSpace(getEnvOrViper("FIREBASE_BASE_URL", "")),
		},
		Stock: StockConfig{
			ExcludedProductIDs: splitList(getEnvOrViper("STOCK_EXCLUDED_PRODUCT_IDS", "3587363962985")),
		},
		API: APIConfig{
			KeyHash: strings.TrimSpace(getEnvOrViper("API_KEY_HASH", "")),
		},
	}

	var err error
	if cfg.Stock.FetchWindow, err = getInt("STOCK_FETCH_WINDOW", 3); err != nil {
		return nil, err
	}
	if cfg.Stock.PageSize, err = getInt("STOCK_PAGE_SIZE", 250); err != nil {
		return nil, err
	}
	if cfg.Stock.BatchDelay, err = getDuration("STOCK_BATCH_DELAY", 100*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.Stock.UpdateDelay, err = getDuration("STOCK_UPDATE_DELAY", 250*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.Shopify.RequestTimeout, err = getDuration("SHOPIFY_REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.OperationTimeout, err = getDuration("OPERATION_TIMEOUT", 10*time.Minute); err != nil {
		return nil, err
	}

	// Validate required fields
	if cfg.Shopify.ShopDomain == "" && cfg.Shopify.BaseURL == "" {
		return nil, &apperrors.ConfigError{Key: "SHOPIFY_SHOP_DOMAIN"}
	}
	if cfg.Shopify.AccessToken == "" {
		return nil, &apperrors.ConfigError{Key: "SHOPIFY_ACCESS_TOKEN"}
	}
	if cfg.Stock.FetchWindow < 1 {
		return nil, &apperrors.ConfigError{Key: "STOCK_FETCH_WINDOW", Message: "must be at least 1"}
	}
	if cfg.Stock.PageSize < 1 || cfg.Stock.PageSize > 250 {
		return nil, &apperrors.ConfigError{Key: "STOCK_PAGE_SIZE", Message: "must be between 1 and 250"}
	}

	return cfg, nil
}

// ValidateInventory checks the settings needed by the location-aware
// operations and the audit log, on top of what Load already requires.
func (c *Config) ValidateInventory() error {
	if c.Locations.Primary.ID == "" {
		return &apperrors.ConfigError{Key: "LOCATION_PRIMARY_ID"}
	}
	if c.Locations.Secondary.ID == "" {
		return &apperrors.ConfigError{Key: "LOCATION_SECONDARY_ID"}
	}
	if c.Locations.Primary.Name == c.Locations.Secondary.Name {
		return &apperrors.ConfigError{Key: "LOCATION_SECONDARY_NAME", Message: "must differ from LOCATION_PRIMARY_NAME"}
	}
	if c.Firebase.ProjectID == "" {
		return &apperrors.ConfigError{Key: "FIREBASE_PROJECT_ID"}
	}
	if c.Firebase.APIKey == "" {
		return &apperrors.ConfigError{Key: "FIREBASE_API_KEY"}
	}
	return nil
}

// ExcludedSet returns the protected product ids as a set
func (c *Config) ExcludedSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Stock.ExcludedProductIDs))
	for _, id := range c.Stock.ExcludedProductIDs {
		set[id] = struct{}{}
	}
	return set
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(getEnvOrViper(key, ""))
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &apperrors.ConfigError{Key: key, Message: fmt.Sprintf("invalid integer %q", raw)}
	}
	return n, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(getEnvOrViper(key, ""))
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, &apperrors.ConfigError{Key: key, Message: fmt.Sprintf("invalid duration %q", raw)}
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func defaultSettingsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "location.json"
	}
	return filepath.Join(dir, "inventario-cappelletto", "location.json")
}
