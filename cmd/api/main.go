package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/farzana24/RideN-Bite-sub001/api/routes"
	"github.com/farzana24/RideN-Bite-sub001/internal/notifications"
	"github.com/farzana24/RideN-Bite-sub001/internal/orders"
	"github.com/farzana24/RideN-Bite-sub001/internal/payments"
	"github.com/farzana24/RideN-Bite-sub001/internal/realtime"
	"github.com/farzana24/RideN-Bite-sub001/pkg/config"
	"github.com/farzana24/RideN-Bite-sub001/pkg/db"
	"github.com/farzana24/RideN-Bite-sub001/pkg/logger"
	"github.com/farzana24/RideN-Bite-sub001/pkg/metrics"
	"github.com/farzana24/RideN-Bite-sub001/pkg/migrate"
	"github.com/farzana24/RideN-Bite-sub001/pkg/redis"
	"github.com/farzana24/RideN-Bite-sub001/pkg/sslcommerz"
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

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	gatewayClient, err := sslcommerz.NewClient(cfg.Gateway, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create gateway client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	hub := realtime.NewHub()

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersSvc, err := orders.NewService(ordersRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	notificationsSvc, err := notifications.NewService(notifications.NewRepository(dbClient.DB()), hub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	guard, err := payments.NewGuard(redisClient, cfg.Gateway.IdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create finalize guard", err)
		os.Exit(1)
	}

	paymentsSvc, err := payments.NewService(
		payments.NewRepository(dbClient.DB()),
		ordersSvc,
		ordersRepo,
		gatewayClient,
		guard,
		notificationsSvc,
		paymentMetrics,
		cfg.Gateway,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			Hub:             hub,
			Orders:          ordersSvc,
			Payments:        paymentsSvc,
			Notifications:   notificationsSvc,
			PaymentMetrics:  paymentMetrics,
			MetricsRegistry: registry,
		}),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lctx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(lctx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(lctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(lctx, "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var closeErr error
	closeErr = multierr.Append(closeErr, server.Shutdown(shutdownCtx))
	closeErr = multierr.Append(closeErr, redisClient.Close())
	closeErr = multierr.Append(closeErr, dbClient.Close())
	if closeErr != nil {
		logg.Error(lctx, "shutdown finished with errors", closeErr)
		os.Exit(1)
	}
	logg.Info(lctx, "shutdown complete")
}
