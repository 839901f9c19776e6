package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cimillas/order-service/internal/app"
	"github.com/cimillas/order-service/internal/clock"
	"github.com/cimillas/order-service/internal/config"
	"github.com/cimillas/order-service/internal/events"
	"github.com/cimillas/order-service/internal/lock"
	"github.com/cimillas/order-service/internal/seed"
	"github.com/cimillas/order-service/internal/strategy"
	transporthttp "github.com/cimillas/order-service/internal/transport/http"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 10 * time.Second
	lockPrefix      = "orders:lock:"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer rt.close(context.Background())
			return serve(ctx, rt)
		},
	}
}

func serve(ctx context.Context, rt *runtime) error {
	cfg, logger := rt.cfg, rt.logger

	var be *backend
	if cfg.Store == config.StoreMemory {
		be = openMemory()
	} else {
		var err error
		if be, err = openPostgres(ctx, rt); err != nil {
			return err
		}
	}
	defer be.close()

	var locker lock.Locker = lock.NewKeyedMutex()
	if cfg.RedisAddr != "" {
		client := lock.NewRedisClient(cfg.RedisAddr)
		defer func() { _ = client.Close() }()
		locker = lock.NewRedisLocker(client, lockPrefix)
		logger.Info("using redis product locks", zap.String("addr", cfg.RedisAddr))
	}

	adminSvc := app.NewAdminService(be.admin, be.products, app.WithAdminLocker(locker))
	if cfg.Store == config.StoreMemory {
		fixture, err := seed.Load(cfg.SeedFile)
		if err != nil {
			return err
		}
		res, err := seed.Apply(ctx, adminSvc, fixture)
		if err != nil {
			return err
		}
		logger.Info("memory store seeded",
			zap.Int("customers", res.Customers),
			zap.Int("products", res.Products))
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic))
		defer func() {
			if err := kp.Close(); err != nil {
				logger.Warn("kafka writer close", zap.Error(err))
			}
		}()
		publisher = kp
	}

	orderSvc := app.NewOrderService(be.orders, be.products, be.customers,
		strategy.NewPaymentRegistry(), strategy.NewShippingRegistry(),
		clock.NewSystem(),
		app.WithLocker(locker),
		app.WithPublisher(publisher),
		app.WithLogger(logger),
		app.WithStockAttempts(cfg.StockRetryAttempts),
	)

	handler := transporthttp.NewRouter(transporthttp.RouterDeps{
		Orders:      orderSvc,
		Catalog:     app.NewCatalogService(be.products),
		Admin:       adminSvc,
		Logger:      logger,
		CORSOrigins: cfg.CORSOrigins,
		HealthCheck: be.health,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("api listening", zap.String("addr", server.Addr), zap.String("store", cfg.Store))

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var runErr error
	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			runErr = err
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
	return runErr
}
