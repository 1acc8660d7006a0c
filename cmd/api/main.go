package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ryoevisu/kaishop-backend/api/routes"
	"github.com/ryoevisu/kaishop-backend/internal/cart"
	"github.com/ryoevisu/kaishop-backend/internal/identity"
	"github.com/ryoevisu/kaishop-backend/internal/notifications"
	"github.com/ryoevisu/kaishop-backend/internal/orders"
	"github.com/ryoevisu/kaishop-backend/internal/realtime"
	"github.com/ryoevisu/kaishop-backend/pkg/config"
	"github.com/ryoevisu/kaishop-backend/pkg/logger"
	"github.com/ryoevisu/kaishop-backend/pkg/metrics"
	"github.com/ryoevisu/kaishop-backend/pkg/redis"
	"github.com/ryoevisu/kaishop-backend/pkg/store"
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

	st, err := store.New(cfg.Store.DataDir)
	if err != nil {
		logg.Error(context.Background(), "failed to open data store", err)
		os.Exit(1)
	}
	collections := store.NewCollections(st)
	if err := collections.Bootstrap(context.Background()); err != nil {
		logg.Error(context.Background(), "failed to bootstrap collections", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, auth rate limiting disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	hub := realtime.NewHub(logg, metrics.NewRealtimeMetrics(registry))

	identityRepo := identity.NewRepository(collections.Identities)
	cartRepo := cart.NewRepository(collections.Carts)
	ordersRepo := orders.NewRepository(collections.Orders)
	notificationsRepo := notifications.NewRepository(collections.Notifications)

	identityService, err := identity.NewService(identity.ServiceParams{
		Repo:           identityRepo,
		PasswordConfig: cfg.Password,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create identity service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cart.ServiceParams{
		Repo:      cartRepo,
		Publisher: hub,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notifications.ServiceParams{
		Repo:      notificationsRepo,
		Publisher: hub,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:           ordersRepo,
		CartRepo:       cartRepo,
		StatsRecorder:  identityRepo,
		Notifier:       notificationsService,
		Publisher:      hub,
		CheckoutConfig: cfg.Checkout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			Redis:         redisClient,
			Registry:      registry,
			Identity:      identityService,
			Cart:          cartService,
			Orders:        ordersService,
			Notifications: notificationsService,
			Realtime:      realtime.NewHandler(hub, logg, cfg.JWT, cfg.Realtime),
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
