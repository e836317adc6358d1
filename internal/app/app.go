// Package app wires the storefront and cashier API server.
package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/mabel-naski/internal/domain/auth"
	"github.com/xenking/mabel-naski/internal/domain/checkout"
	"github.com/xenking/mabel-naski/internal/domain/coupon"
	"github.com/xenking/mabel-naski/internal/domain/order"
	"github.com/xenking/mabel-naski/internal/domain/product"
	"github.com/xenking/mabel-naski/internal/domain/sale"
	"github.com/xenking/mabel-naski/internal/domain/storefront"
	"github.com/xenking/mabel-naski/internal/events"
	"github.com/xenking/mabel-naski/internal/handler"
	"github.com/xenking/mabel-naski/internal/media"
	"github.com/xenking/mabel-naski/internal/storage/postgres"
	"github.com/xenking/mabel-naski/internal/storage/redis"
	"github.com/xenking/mabel-naski/pkg/health"
	"github.com/xenking/mabel-naski/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr), zap.String("tz", cfg.TimeZone))
	loc := cfg.Location()

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", health.PingCheck(pool), health.Options{Timeout: 5 * time.Second})
	healthSvc.AddLivenessCheck("goroutines", health.GoroutineCountCheck(10000), health.Options{Timeout: time.Second})

	// Repositories.
	productRepo := postgres.NewProductRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	couponRepo := postgres.NewCouponRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	settingsRepo := postgres.NewSettingsRepository(pool)
	userRepo := postgres.NewUserRepository(pool)

	// Read caches.
	var (
		products     product.Store = productRepo
		historyCache order.HistoryCache
		catalog      *redis.Catalog
	)
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return errors.Wrap(err, "connect redis")
		}
		defer func() { _ = client.Close() }()

		cache := redis.New(client, cfg.Cache.Prefix, cfg.Cache.TTL)
		catalog = redis.NewCatalog(productRepo, cache, lg.Named("catalog"))
		products = catalog
		historyCache = redis.NewHistoryCache(cache)
		healthSvc.AddReadinessCheck("redis", health.PingCheck(cache), health.Options{Timeout: 2 * time.Second})
		lg.Info("Redis caching enabled", zap.Duration("ttl", cfg.Cache.TTL))
	} else {
		lg.Warn("Redis URL not set, caching disabled")
	}
	history := order.NewHistory(orderRepo, historyCache, loc, lg.Named("history"))

	// Order events.
	var publisher events.Publisher = events.Nop{}
	if cfg.NATSURL != "" {
		nc, err := events.ConnectNATS(ctx, cfg.NATSURL, lg.Named("events"))
		if err != nil {
			return errors.Wrap(err, "connect nats")
		}
		defer func() { _ = nc.Close() }()
		publisher = nc
		healthSvc.AddReadinessCheck("nats", health.PingCheck(nc), health.Options{Timeout: 2 * time.Second})
	} else {
		lg.Warn("NATS URL not set, order events disabled")
	}

	// Domain services.
	invalidators := []sale.Invalidator{history}
	var frontInvalidators []storefront.Invalidator
	if catalog != nil {
		invalidators = append(invalidators, catalog)
		frontInvalidators = append(frontInvalidators, catalog)
	}
	sales, err := sale.NewService(postgres.NewSaleProcessor(pool), couponRepo, sale.Options{
		Publisher:    publisher,
		Invalidators: invalidators,
		Logger:       lg.Named("sale"),
		Tracer:       m.TracerProvider().Tracer("mabel-naski/sale"),
		Meter:        m.MeterProvider().Meter("mabel-naski/sale"),
		Location:     loc,
	})
	if err != nil {
		return errors.Wrap(err, "create sale service")
	}
	front := storefront.NewService(productRepo, orderRepo, settingsRepo, publisher,
		cfg.Checkout.FallbackWhatsApp, loc, lg.Named("storefront"), frontInvalidators...)

	sessions := checkout.NewRegistry(cfg.Checkout.SessionTTL)
	go func() {
		if err := sessions.Run(ctx, cfg.Checkout.SweepInterval, lg.Named("sessions")); err != nil && !errors.Is(err, context.Canceled) {
			lg.Error("Session sweeper stopped", zap.Error(err))
		}
	}()

	images := media.NewStore(cfg.Media.Root, cfg.Media.BaseURL, cfg.Media.MaxBytes, lg.Named("media"))

	// HTTP handlers.
	h := handler.New(handler.Config{
		Location:     loc,
		ReceiptWidth: cfg.Checkout.ReceiptWidth,
	}, handler.Deps{
		Auth:       auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Audience, userRepo),
		Products:   products,
		Categories: categoryRepo,
		Coupons:    couponRepo,
		Validator:  coupon.NewRepoValidator(couponRepo),
		Orders:     orderRepo,
		History:    history,
		Sales:      sales,
		Sessions:   sessions,
		Storefront: front,
		Settings:   settingsRepo,
		Users:      userRepo,
		Media:      images,
	})

	api := otelhttp.NewHandler(h.Router(), "mabel-api",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)

	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Mux: health endpoints, uploaded media and the API on one server.
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", api)
	if prefix := strings.TrimRight(cfg.Media.BaseURL, "/"); strings.HasPrefix(prefix, "/") {
		mux.Handle(prefix+"/", http.StripPrefix(prefix, http.FileServer(http.Dir(images.Root()))))
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", httpmiddleware.RequestIDHeader},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:     cfg.RateLimit.Max,
				Window:  cfg.RateLimit.Window,
				KeyFunc: httpmiddleware.BearerOrIP,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.TrackRoute(),
			httpmiddleware.LogRequests(),
		),
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
