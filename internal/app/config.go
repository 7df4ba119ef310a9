package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/omii/storefront/internal/domain/order"
)

// Config holds the complete application configuration, loadable from
// environment variables (OMII_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	ImageBaseURL string `default:"" usage:"Base URL prepended to relative product image paths" flag:"image-base-url"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (OMII_API_KEY_PEPPER)" flag:"api-key-pepper"`
	Storage      StorageConfig
	Shipping     ShippingConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// StorageConfig selects where carts, orders, and the catalog live.
type StorageConfig struct {
	// Mode is one of "postgres", "memory", or "file". The file mode keeps
	// repositories in memory but persists cart state to per-owner JSON
	// files under Dir.
	Mode        string `default:"postgres" usage:"Storage backend: postgres, memory, or file" flag:"storage-mode"`
	Dir         string `default:"./data" usage:"State directory for the file storage mode" flag:"storage-dir"`
	DatabaseURL string `usage:"PostgreSQL connection URL (OMII_STORAGE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
}

// ShippingConfig controls the order shipping policy.
type ShippingConfig struct {
	FreeThreshold string `default:"2000" usage:"Discounted total at which shipping becomes free" flag:"free-shipping-threshold"`
	FlatFee       string `default:"150" usage:"Flat shipping fee below the free threshold" flag:"shipping-fee"`
}

// Policy parses the configured amounts into a shipping policy.
func (c ShippingConfig) Policy() (order.ShippingPolicy, error) {
	threshold, err := decimal.NewFromString(c.FreeThreshold)
	if err != nil {
		return order.ShippingPolicy{}, errors.Wrap(err, "parse free shipping threshold")
	}
	fee, err := decimal.NewFromString(c.FlatFee)
	if err != nil {
		return order.ShippingPolicy{}, errors.Wrap(err, "parse shipping fee")
	}
	return order.ShippingPolicy{FreeThreshold: threshold, FlatFee: fee}, nil
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "OMII",
		Files:     []string{"config.yaml", "/etc/omii/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	switch cfg.Storage.Mode {
	case "postgres":
		if cfg.Storage.DatabaseURL == "" {
			return nil, errors.New("database URL is required: set OMII_STORAGE_DATABASE_URL or DATABASE_URL")
		}
	case "memory", "file":
	default:
		return nil, errors.Errorf("unknown storage mode %q", cfg.Storage.Mode)
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and
// PORT to the application's OMII_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Storage.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.Storage.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
