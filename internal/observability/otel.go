// Package observability wires zap logging and OpenTelemetry export.
package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	ServiceName          = "order-service"
	ServiceVersion       = "0.1.0"
	instrumentationScope = "github.com/cimillas/order-service"

	tracesPath    = "/v1/traces"
	logsPath      = "/v1/logs"
	exportTimeout = 10 * time.Second
	maxQueueSize  = 2048
)

// OTLPConfig points the exporters at an OTLP/HTTP collector.
type OTLPConfig struct {
	Endpoint   string
	AuthHeader string
	Insecure   bool
}

func (c OTLPConfig) headers() map[string]string {
	if c.AuthHeader == "" {
		return nil
	}
	return map[string]string{"Authorization": c.AuthHeader}
}

// Providers holds what Setup installed globally.
type Providers struct {
	Tracer *sdktrace.TracerProvider
	Logger *sdklog.LoggerProvider
}

// Setup installs the global tracer and logger providers. The returned
// shutdown flushes both; it is safe to call even when Setup failed part way.
func Setup(ctx context.Context, cfg OTLPConfig) (Providers, func(context.Context) error, error) {
	var (
		providers     Providers
		shutdownFuncs []func(context.Context) error
		setupErr      error
	)
	shutdown := func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return providers, shutdown, fmt.Errorf("create resource: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	traceOpts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithURLPath(tracesPath),
		otlptracehttp.WithHeaders(cfg.headers()),
	}
	if cfg.Insecure {
		traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
	}
	traceExporter, err := otlptracehttp.New(ctx, traceOpts...)
	if err != nil {
		setupErr = errors.Join(setupErr, fmt.Errorf("otlp trace exporter: %w", err))
	} else {
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
			sdktrace.WithResource(res),
			sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(traceExporter,
				sdktrace.WithExportTimeout(exportTimeout),
				sdktrace.WithMaxQueueSize(maxQueueSize),
			)),
		)
		otel.SetTracerProvider(tp)
		shutdownFuncs = append(shutdownFuncs, tp.Shutdown)
		providers.Tracer = tp
	}

	logOpts := []otlploghttp.Option{
		otlploghttp.WithEndpoint(cfg.Endpoint),
		otlploghttp.WithURLPath(logsPath),
		otlploghttp.WithHeaders(cfg.headers()),
	}
	if cfg.Insecure {
		logOpts = append(logOpts, otlploghttp.WithInsecure())
	}
	logExporter, err := otlploghttp.New(ctx, logOpts...)
	if err != nil {
		setupErr = errors.Join(setupErr, fmt.Errorf("otlp log exporter: %w", err))
	} else {
		lp := sdklog.NewLoggerProvider(
			sdklog.WithResource(res),
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter,
				sdklog.WithExportTimeout(exportTimeout),
				sdklog.WithMaxQueueSize(maxQueueSize),
			)),
		)
		global.SetLoggerProvider(lp)
		shutdownFuncs = append(shutdownFuncs, lp.Shutdown)
		providers.Logger = lp
	}

	return providers, shutdown, setupErr
}
