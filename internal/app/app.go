// Package app wires configuration, storage, domain services, and the HTTP
// server into a runnable application.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/omii/storefront/internal/api"
	"github.com/omii/storefront/internal/domain/auth"
	"github.com/omii/storefront/internal/domain/cart"
	"github.com/omii/storefront/internal/domain/order"
	"github.com/omii/storefront/internal/domain/product"
	"github.com/omii/storefront/internal/domain/promo"
	"github.com/omii/storefront/internal/storage/memory"
	"github.com/omii/storefront/internal/storage/postgres"
	"github.com/omii/storefront/internal/storage/statefile"
	"github.com/omii/storefront/pkg/health"
	"github.com/omii/storefront/pkg/httpmiddleware"
)

// repositories groups the storage interfaces the services need, so the
// three storage modes can be wired uniformly.
type repositories struct {
	products product.Repository
	promos   promo.Repository
	orders   order.Repository
	apikeys  auth.Repository
	carts    cart.Store
}

// Run creates all dependencies, starts the HTTP server, and handles
// graceful shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage.Mode),
	)

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))

	repos, cleanup, err := buildRepositories(ctx, lg, cfg, healthSvc)
	if err != nil {
		return err
	}
	defer cleanup()

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	shippingPolicy, err := cfg.Shipping.Policy()
	if err != nil {
		return err
	}

	// Domain services.
	cartService := cart.NewService(repos.carts, promo.NewRepoValidator(repos.promos), lg.Named("cart"))
	orderService := order.NewService(repos.orders, shippingPolicy)

	// HTTP handlers.
	h := api.NewHandler(
		api.Config{
			ImageBaseURL: cfg.ImageBaseURL,
			APIKeyPepper: []byte(cfg.APIKeyPepper),
		},
		repos.products,
		cartService,
		orderService,
		repos.apikeys,
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", h.Routes())

	apiHandler := otelhttp.NewHandler(
		httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", "api_key"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
		"storefront-api",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           apiHandler,
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// buildRepositories wires the storage backend selected by cfg.Storage.Mode.
// The returned cleanup closes any held resources.
func buildRepositories(ctx context.Context, lg *zap.Logger, cfg *Config, healthSvc *health.Health) (*repositories, func(), error) {
	switch cfg.Storage.Mode {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "create db pool")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, errors.Wrap(err, "run migrations")
		}
		healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(pool))
		return &repositories{
			products: postgres.NewProductRepository(pool),
			promos:   postgres.NewPromoRepository(pool),
			orders:   postgres.NewOrderRepository(pool),
			apikeys:  postgres.NewAPIKeyRepository(pool),
			carts:    memory.NewCartStore(),
		}, pool.Close, nil

	case "memory", "file":
		products, err := fixtureProducts()
		if err != nil {
			return nil, nil, err
		}

		var carts cart.Store = memory.NewCartStore()
		if cfg.Storage.Mode == "file" {
			store, err := statefile.New(cfg.Storage.Dir, lg.Named("statefile"))
			if err != nil {
				return nil, nil, errors.Wrap(err, "open state directory")
			}
			carts = store
		}

		lg.Warn("Using development storage mode with fixture API keys",
			zap.String("mode", cfg.Storage.Mode))

		return &repositories{
			products: memory.NewProductRepository(products),
			promos:   memory.NewPromoRepository(fixturePromos(time.Now())),
			orders:   memory.NewOrderRepository(),
			apikeys:  memory.NewAPIKeyRepository(fixtureIdentities([]byte(cfg.APIKeyPepper))),
			carts:    carts,
		}, func() {}, nil

	default:
		return nil, nil, errors.Errorf("unknown storage mode %q", cfg.Storage.Mode)
	}
}
