package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cimillas/order-service/internal/app"
	"github.com/cimillas/order-service/internal/config"
	"github.com/cimillas/order-service/internal/observability"
	"github.com/cimillas/order-service/internal/storage/memory"
	"github.com/cimillas/order-service/internal/storage/postgres"
	"github.com/cimillas/order-service/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const startupTimeout = 5 * time.Second

// runtime is what every subcommand needs before it does its own work.
type runtime struct {
	cfg      config.Config
	logger   *zap.Logger
	otel     observability.Providers
	shutdown func(context.Context) error
}

func bootstrap(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	rt := &runtime{cfg: cfg, shutdown: func(context.Context) error { return nil }}
	var extra []zapcore.Core
	var otelErr error
	if cfg.OTelEndpoint != "" {
		rt.otel, rt.shutdown, otelErr = observability.Setup(ctx, otlpConfig(cfg))
		if rt.otel.Logger != nil {
			extra = append(extra, observability.OTelCore(rt.otel.Logger))
		}
	}

	rt.logger, err = observability.NewLogger(cfg.LogLevel, cfg.LogFormat, extra...)
	if err != nil {
		_ = rt.shutdown(ctx)
		return nil, err
	}
	for _, w := range cfg.Warnings {
		rt.logger.Warn(w)
	}
	if otelErr != nil {
		rt.logger.Warn("otel setup incomplete", zap.Error(otelErr))
	}
	return rt, nil
}

func (rt *runtime) close(ctx context.Context) {
	if err := rt.shutdown(ctx); err != nil {
		rt.logger.Warn("otel shutdown", zap.Error(err))
	}
	_ = rt.logger.Sync()
}

// otlpConfig accepts the endpoint with or without a scheme; plain http
// turns TLS off.
func otlpConfig(cfg config.Config) observability.OTLPConfig {
	endpoint := cfg.OTelEndpoint
	insecure := false
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		endpoint = strings.TrimPrefix(endpoint, "http://")
		insecure = true
	case strings.HasPrefix(endpoint, "https://"):
		endpoint = strings.TrimPrefix(endpoint, "https://")
	}
	return observability.OTLPConfig{
		Endpoint:   strings.TrimSuffix(endpoint, "/"),
		AuthHeader: cfg.OTelAuthHeader,
		Insecure:   insecure,
	}
}

// backend groups the repositories behind one store selection.
type backend struct {
	orders    app.OrderRepository
	products  app.ProductRepository
	customers app.CustomerRepository
	admin     app.AdminRepository
	health    func(ctx context.Context) error
	close     func()
}

func openMemory() *backend {
	store := memory.NewStore()
	return &backend{
		orders:    store,
		products:  store,
		customers: store,
		admin:     store,
		health:    func(context.Context) error { return nil },
		close:     func() {},
	}
}

// openPostgres connects, pings and brings the schema up to date.
func openPostgres(ctx context.Context, rt *runtime) (*backend, error) {
	startupCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, rt.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}
	if err := pool.Ping(startupCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	applied, err := migrations.Apply(startupCtx, pool)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	if len(applied) > 0 {
		rt.logger.Info("migrations applied", zap.Strings("files", applied))
	}

	return &backend{
		orders:    postgres.NewOrderRepository(pool),
		products:  postgres.NewProductRepository(pool),
		customers: postgres.NewCustomerRepository(pool),
		admin:     postgres.NewAdminRepository(pool),
		health:    pool.Ping,
		close:     pool.Close,
	}, nil
}

func requirePostgres(cfg config.Config, command string) error {
	if cfg.Store != config.StorePostgres {
		return errors.New(command + " needs STORE=postgres")
	}
	return nil
}
