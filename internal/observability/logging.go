// Package observability provides OpenTelemetry tracing, metrics, and structured logging
// with trace correlation for the splitter.
package observability

import (
	"context"
	"os"
	"strings"

	"parallelsplit/internal/config"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// Logger wraps the zap logger with OpenTelemetry context support
type Logger struct {
	*zap.Logger
	provider *log.LoggerProvider
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// ParseLevel converts a configured level name to a zap level.
// "off" (and "none") report ok=false.
func ParseLevel(name string) (level zapcore.Level, ok bool) {
	trimmed := strings.TrimSpace(name)
	switch strings.ToLower(trimmed) {
	case "off", "none":
		return zapcore.InfoLevel, false
	case "":
		return zapcore.WarnLevel, true
	}
	if err := level.UnmarshalText([]byte(trimmed)); err != nil {
		return zapcore.WarnLevel, true
	}
	return level, true
}

// NewLogger creates a stderr logger from the log configuration, teeing into an
// OTLP exporter when OTLP logging is enabled.
func NewLogger(logCfg *config.LogConfig, otelCfg *config.OpenTelemetryConfig) *Logger {
	if logCfg == nil {
		logCfg = &config.LogConfig{Level: config.DefaultLogLevel}
	}
	level, ok := ParseLevel(logCfg.Level)
	if !ok {
		return NewNopLogger()
	}
	return NewLoggerWithLevel(logCfg, otelCfg, level)
}

// NewLoggerWithLevel creates a logger at an explicit level
func NewLoggerWithLevel(logCfg *config.LogConfig, otelCfg *config.OpenTelemetryConfig, level zapcore.Level) *Logger {
	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.EncoderConfig.TimeKey = "timestamp"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.StacktraceKey = "stacktrace"

	// Use development config if in development mode
	if (logCfg != nil && logCfg.Development) || os.Getenv("ENV") == "development" {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(level)
		if term.IsTerminal(int(os.Stderr.Fd())) {
			zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
	}

	zapLogger, err := zapConfig.Build()
	if err != nil {
		// Fallback to a basic logger if config fails
		zapLogger = zap.NewExample()
	}

	logger := &Logger{Logger: zapLogger}
	if otelCfg != nil && otelCfg.EnableLogging && otelCfg.Endpoint != "" {
		logger.attachOTLP(otelCfg)
	}
	return logger
}

// attachOTLP tees an OTLP log core into the logger. Failures keep stderr logging.
func (l *Logger) attachOTLP(cfg *config.OpenTelemetryConfig) {
	ctx := context.Background()

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		l.Logger.Error("Failed to create otel resource", zap.Error(err))
		return
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlploggrpc.WithHeaders(cfg.Headers))
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		l.Logger.Error("Failed to create OTLP exporter", zap.Error(err), zap.String("endpoint", cfg.Endpoint))
		return
	}

	provider := log.NewLoggerProvider(
		log.WithProcessor(log.NewBatchProcessor(exporter)),
		log.WithResource(res),
	)
	otelCore := otelzap.NewCore(config.ServiceName, otelzap.WithLoggerProvider(provider))

	l.Logger = zap.New(zapcore.NewTee(l.Logger.Core(), otelCore))
	l.provider = provider
	l.Logger.Debug("OTLP logging configured", zap.String("endpoint", cfg.Endpoint))
}

// Debug logs a debug message with context
func (l *Logger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.logWithContext(ctx, zap.DebugLevel, msg, fields...)
}

// Info logs an info message with context
func (l *Logger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.logWithContext(ctx, zap.InfoLevel, msg, fields...)
}

// Warn logs a warning message with context
func (l *Logger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.logWithContext(ctx, zap.WarnLevel, msg, fields...)
}

// Error logs an error message with context
func (l *Logger) Error(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	allFields := l.mergeFields(fields...)
	if err != nil {
		allFields["error"] = err.Error()
	}
	l.logWithContext(ctx, zap.ErrorLevel, msg, allFields)
}

// logWithContext logs a message with OpenTelemetry context correlation
func (l *Logger) logWithContext(ctx context.Context, level zapcore.Level, msg string, fields ...map[string]interface{}) {
	if !l.Logger.Core().Enabled(level) {
		return
	}

	allFields := l.mergeFields(fields...)

	// Add trace context if available
	if span := trace.SpanFromContext(ctx); span != nil {
		spanContext := span.SpanContext()
		if spanContext.IsValid() {
			allFields["trace_id"] = spanContext.TraceID().String()
			allFields["span_id"] = spanContext.SpanID().String()
		}
	}

	zapFields := make([]zap.Field, 0, len(allFields))
	for k, v := range allFields {
		zapFields = append(zapFields, zap.Any(k, v))
	}

	switch level {
	case zap.DebugLevel:
		l.Logger.Debug(msg, zapFields...)
	case zap.InfoLevel:
		l.Logger.Info(msg, zapFields...)
	case zap.WarnLevel:
		l.Logger.Warn(msg, zapFields...)
	case zap.ErrorLevel:
		l.Logger.Error(msg, zapFields...)
	default:
		l.Logger.Info(msg, zapFields...)
	}
}

// mergeFields merges multiple field maps into a single, fresh map
func (l *Logger) mergeFields(fields ...map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{})
	for _, fieldMap := range fields {
		for k, v := range fieldMap {
			merged[k] = v
		}
	}
	return merged
}

// Sync flushes any buffered log entries and shuts down the OTLP provider
func (l *Logger) Sync(ctx context.Context) error {
	var shutdownErr error
	if l.provider != nil {
		shutdownErr = l.provider.Shutdown(ctx)
	}
	// Syncing stderr returns EINVAL on some platforms; only report provider errors.
	_ = l.Logger.Sync()
	return shutdownErr
}
