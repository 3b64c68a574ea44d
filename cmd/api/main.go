package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/floret-storefront/api/controllers"
	"github.com/angelmondragon/floret-storefront/api/routes"
	"github.com/angelmondragon/floret-storefront/internal/address"
	"github.com/angelmondragon/floret-storefront/internal/auth"
	"github.com/angelmondragon/floret-storefront/internal/cart"
	"github.com/angelmondragon/floret-storefront/internal/coupon"
	"github.com/angelmondragon/floret-storefront/internal/delivery"
	"github.com/angelmondragon/floret-storefront/internal/orders"
	product "github.com/angelmondragon/floret-storefront/internal/products"
	"github.com/angelmondragon/floret-storefront/internal/session"
	"github.com/angelmondragon/floret-storefront/pkg/config"
	"github.com/angelmondragon/floret-storefront/pkg/db"
	"github.com/angelmondragon/floret-storefront/pkg/instance"
	"github.com/angelmondragon/floret-storefront/pkg/logger"
	"github.com/angelmondragon/floret-storefront/pkg/maps"
	"github.com/angelmondragon/floret-storefront/pkg/metrics"
	"github.com/angelmondragon/floret-storefront/pkg/migrate"
	"github.com/angelmondragon/floret-storefront/pkg/redis"
	"github.com/angelmondragon/floret-storefront/pkg/storefront"
)

const (
	shutdownTimeout      = 15 * time.Second
	durablePurgeInterval = time.Hour
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	storefrontMetrics := metrics.NewStorefront(registry)

	client, err := storefront.NewClient(cfg.Storefront, storefront.WithMetrics(storefrontMetrics))
	requireResource(ctx, logg, "storefront client", err)

	deliveryService, err := delivery.NewService(client, cfg.Delivery)
	requireResource(ctx, logg, "delivery service", err)

	evaluator, err := coupon.NewEvaluator(client, storefrontMetrics)
	requireResource(ctx, logg, "coupon evaluator", err)

	carts, err := cart.NewRegistry(evaluator, deliveryService, storefrontMetrics)
	requireResource(ctx, logg, "cart registry", err)
	defer carts.CloseAll()

	sessions, err := buildSessionStore(cfg, logg, dbClient, redisClient, storefrontMetrics)
	requireResource(ctx, logg, "session store", err)

	productService, err := product.NewService(client, redisClient, logg)
	requireResource(ctx, logg, "product service", err)

	orderService, err := orders.NewService(client)
	requireResource(ctx, logg, "orders service", err)

	authService, err := auth.NewService(auth.ServiceParams{
		Remote:   client,
		Sessions: sessions,
		Carts:    carts,
		Logger:   logg,
	})
	requireResource(ctx, logg, "auth service", err)

	addressService := address.NewService(nil, redisClient, cfg.Delivery, logg)
	if places := mapsClient(ctx, cfg, logg); places != nil {
		addressService = address.NewService(places, redisClient, cfg.Delivery, logg)
	}

	go carts.RunSweeper(ctx, cfg.Cart.SweepInterval, cfg.Cart.IdleTTL)
	go consumeSessionEvents(ctx, logg, sessions, carts)
	go purgeExpiredSessions(ctx, logg, dbClient)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Dependencies{
			Config:         cfg,
			Logger:         logg,
			Metrics:        storefrontMetrics,
			MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadyChecks: map[string]controllers.Pinger{
				"db":    dbClient,
				"redis": redisClient,
			},
			RateLimiter: redisClient,
			Sessions:    sessions,
			Carts:       carts,
			Auth:        authService,
			Products:    productService,
			Orders:      orderService,
			Address:     addressService,
			Delivery:    deliveryService,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "api server shutdown failed", err)
	}
	logg.Info(ctx, "api server stopped")
}

func buildSessionStore(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, m *metrics.Storefront) (*session.Store, error) {
	tier, err := session.NewRedisTier(redisClient, cfg.Session.TTL)
	if err != nil {
		return nil, err
	}
	durable, err := session.NewDurableTier(dbClient)
	if err != nil {
		return nil, err
	}
	broadcast, err := session.NewRedisBroadcaster(redisClient, cfg.Session.BroadcastChannel, logg)
	if err != nil {
		return nil, err
	}
	return session.NewStore(session.Deps{
		Sessions:  tier,
		Durable:   durable,
		Broadcast: broadcast,
		Metrics:   m,
		Logger:    logg,
	}, cfg.Session)
}

// mapsClient returns nil when no maps key is configured; address lookups then
// report a dependency error.
func mapsClient(ctx context.Context, cfg *config.Config, logg *logger.Logger) *maps.Client {
	if cfg.GoogleMaps.APIKey == "" {
		logg.Warn(ctx, "google maps api key not set, address lookups disabled")
		return nil
	}
	client, err := maps.NewClient(cfg.GoogleMaps.APIKey)
	if err != nil {
		logg.Error(ctx, "failed to create maps client", err)
		return nil
	}
	return client
}

func purgeExpiredSessions(ctx context.Context, logg *logger.Logger, dbClient *db.Client) {
	durable, err := session.NewDurableTier(dbClient)
	if err != nil {
		logg.Error(ctx, "durable session purge disabled", err)
		return
	}
	ticker := time.NewTicker(durablePurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := durable.PurgeExpired(ctx)
			if err != nil {
				logg.Error(ctx, "purging expired sessions", err)
				continue
			}
			if n > 0 {
				logg.Info(logg.WithField(ctx, "purged", n), "expired sessions purged")
			}
		}
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
