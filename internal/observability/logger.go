package observability

import (
	"fmt"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. format is "json" or "console". Extra
// cores, such as the OTLP bridge from OTelCore, receive the same entries.
func NewLogger(level, format string, extra ...zapcore.Core) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch format {
	case "console":
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	case "json", "":
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	cores := append([]zapcore.Core{zapcore.NewCore(enc, zapcore.Lock(os.Stdout), lvl)}, extra...)
	return zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Fields(zap.String("service.name", ServiceName)),
	), nil
}

// OTelCore forwards zap entries to an OpenTelemetry logger provider.
func OTelCore(provider log.LoggerProvider) zapcore.Core {
	return otelzap.NewCore(instrumentationScope, otelzap.WithLoggerProvider(provider))
}
