// Command seed-db provisions a PostgreSQL database with the storefront's
// catalog, its built-in promo codes, and a set of API keys.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/omii/storefront/db"
	"github.com/omii/storefront/internal/domain/auth"
	"github.com/omii/storefront/internal/domain/product"
	"github.com/omii/storefront/internal/domain/promo"
	"github.com/omii/storefront/internal/storage/postgres"
)

type productJSON struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	BulkPrice       decimal.Decimal `json:"bulkPrice"`
	MinBulkQuantity int             `json:"minBulkQuantity"`
	Stock           int             `json:"stock"`
	Category        string          `json:"category"`
	Image           string          `json:"image"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		adminKey     string
		apiKeyPepper string
		devKeys      bool
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "", "path to products JSON file (embedded catalog when empty)")
	flag.StringVar(&adminKey, "admin-key", "", "admin API key to seed (or OMII_SEED_ADMIN_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or OMII_API_KEY_PEPPER env)")
	flag.BoolVar(&devKeys, "dev-keys", false, "also seed well-known development API keys (never in production)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminKey == "" {
		adminKey = os.Getenv("OMII_SEED_ADMIN_KEY")
	}
	if adminKey == "" {
		slog.Error("admin API key is required: set --admin-key or OMII_SEED_ADMIN_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("OMII_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, adminKey, apiKeyPepper, devKeys); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, adminKey, pepper string, devKeys bool) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, postgres.NewProductRepository(pool), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedPromos(ctx, postgres.NewPromoRepository(pool)); err != nil {
		return errors.Wrap(err, "seed promo codes")
	}
	if err := seedAdminKey(ctx, postgres.NewAPIKeyRepository(pool), adminKey, pepper); err != nil {
		return errors.Wrap(err, "seed admin key")
	}
	if devKeys {
		if err := seedDevKeys(ctx, postgres.NewAPIKeyRepository(pool), pepper); err != nil {
			return errors.Wrap(err, "seed dev keys")
		}
	}

	return nil
}

func seedProducts(ctx context.Context, repo *postgres.ProductRepository, productsFile string) error {
	data := db.SeedProducts
	if productsFile != "" {
		slog.Info("reading products file", slog.String("path", productsFile))
		var err error
		data, err = os.ReadFile(productsFile)
		if err != nil {
			return errors.Wrap(err, "read products file")
		}
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		err := repo.Upsert(ctx, product.Product{
			ID:              p.ID,
			Name:            p.Name,
			Price:           p.Price,
			BulkPrice:       p.BulkPrice,
			MinBulkQuantity: p.MinBulkQuantity,
			Stock:           p.Stock,
			Category:        p.Category,
			Image:           p.Image,
		})
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedPromos(ctx context.Context, repo *postgres.PromoRepository) error {
	slog.Info("seeding storefront promo codes")

	validUntil := time.Now().AddDate(1, 0, 0)
	rules := []promo.Rule{
		{
			Code:        "WELCOME10",
			Kind:        promo.KindPercentage,
			Value:       decimal.NewFromInt(10),
			MinSubtotal: decimal.NewFromInt(1000),
			ValidUntil:  validUntil,
			Active:      true,
			Description: "10% off orders above ₹1000",
		},
		{
			Code:        "FLAT500",
			Kind:        promo.KindFixed,
			Value:       decimal.NewFromInt(500),
			MinSubtotal: decimal.NewFromInt(2000),
			ValidUntil:  validUntil,
			Active:      true,
			Description: "₹500 off orders above ₹2000",
		},
		{
			Code:        "B2B15",
			Kind:        promo.KindPercentage,
			Value:       decimal.NewFromInt(15),
			MinSubtotal: decimal.NewFromInt(5000),
			MaxDiscount: decimal.NewFromInt(2000),
			ValidUntil:  validUntil,
			Active:      true,
			Description: "15% off business orders above ₹5000, up to ₹2000",
		},
	}

	for _, rule := range rules {
		if err := repo.Upsert(ctx, rule); err != nil {
			return errors.Wrapf(err, "upsert promo %s", rule.Code)
		}

		slog.Info("upserted promo", slog.String("code", rule.Code), slog.String("description", rule.Description))
	}

	return nil
}

func seedAdminKey(ctx context.Context, repo *postgres.APIKeyRepository, adminKey, pepper string) error {
	slog.Info("seeding admin API key")

	err := repo.Upsert(ctx, auth.Identity{
		ID:         "admin",
		KeyHash:    auth.HashKey([]byte(pepper), adminKey),
		Name:       "Admin",
		CustomerID: "admin",
		Role:       auth.RoleAdmin,
	})
	if err != nil {
		return errors.Wrap(err, "upsert admin API key")
	}

	slog.Info("upserted API key", slog.String("id", "admin"))

	return nil
}

func seedDevKeys(ctx context.Context, repo *postgres.APIKeyRepository, pepper string) error {
	slog.Info("seeding development API keys")

	identities := []auth.Identity{
		{ID: "dev-customer", KeyHash: auth.HashKey([]byte(pepper), "dev-customer-key"), Name: "Dev Customer", CustomerID: "cust-dev-1", Role: auth.RoleCustomer},
		{ID: "dev-b2b", KeyHash: auth.HashKey([]byte(pepper), "dev-b2b-key"), Name: "Dev Business", CustomerID: "cust-dev-2", Role: auth.RoleCustomer, B2B: true},
		{ID: "dev-delivery", KeyHash: auth.HashKey([]byte(pepper), "dev-delivery-key"), Name: "Dev Delivery", CustomerID: "dp-dev-1", Role: auth.RoleDelivery},
	}

	for _, id := range identities {
		if err := repo.Upsert(ctx, id); err != nil {
			return errors.Wrapf(err, "upsert dev key %s", id.ID)
		}

		slog.Info("upserted API key", slog.String("id", id.ID))
	}

	return nil
}
