package observability

import (
	"context"
	"time"

	"parallelsplit/internal/config"
	contextutils "parallelsplit/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// InitMetrics initializes OpenTelemetry metrics
func InitMetrics(cfg *config.OpenTelemetryConfig) (result0 *metric.MeterProvider, err error) {
	ctx := context.Background()

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var exporter metric.Exporter
	switch cfg.Protocol {
	case "grpc":
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
			otlpmetricgrpc.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exp, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otlp grpc metric exporter: %w", err)
		}
		exporter = exp
	case "http":
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(cfg.Endpoint),
			otlpmetrichttp.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exp, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otlp http metric exporter: %w", err)
		}
		exporter = exp
	default:
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unsupported otel protocol: %s", cfg.Protocol)
	}

	mp := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter)),
		metric.WithResource(res),
	)
	return mp, nil
}

// Metric names
const (
	MetricLinesRead   = "parasplit.lines.read"
	MetricRecords     = "parasplit.records"
	MetricBlankLines  = "parasplit.lines.blank"
	MetricErrors      = "parasplit.errors"
	MetricRunDuration = "parasplit.split.duration"
)

// SplitMetrics holds the instruments recorded by the splitter
type SplitMetrics struct {
	linesRead  otelmetric.Int64Counter
	records    otelmetric.Int64Counter
	blankLines otelmetric.Int64Counter
	errors     otelmetric.Int64Counter
	duration   otelmetric.Float64Histogram
}

// NewSplitMetrics creates the splitter instruments on the given meter provider.
// A nil provider uses the global one, which is a no-op unless metrics are enabled.
func NewSplitMetrics(mp otelmetric.MeterProvider) (*SplitMetrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(config.ServiceName)

	m := &SplitMetrics{}
	var err error
	if m.linesRead, err = meter.Int64Counter(MetricLinesRead,
		otelmetric.WithDescription("Input lines read"), otelmetric.WithUnit("{line}")); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create %s counter: %w", MetricLinesRead, err)
	}
	if m.records, err = meter.Int64Counter(MetricRecords,
		otelmetric.WithDescription("Sentence pairs split (or validated by check)"), otelmetric.WithUnit("{record}")); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create %s counter: %w", MetricRecords, err)
	}
	if m.blankLines, err = meter.Int64Counter(MetricBlankLines,
		otelmetric.WithDescription("Blank input lines written as empty lines"), otelmetric.WithUnit("{line}")); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create %s counter: %w", MetricBlankLines, err)
	}
	if m.errors, err = meter.Int64Counter(MetricErrors,
		otelmetric.WithDescription("Failed runs by error code")); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create %s counter: %w", MetricErrors, err)
	}
	if m.duration, err = meter.Float64Histogram(MetricRunDuration,
		otelmetric.WithDescription("Duration of a split or check run"), otelmetric.WithUnit("s")); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create %s histogram: %w", MetricRunDuration, err)
	}
	return m, nil
}

// RecordRun records the counts of a finished run. err may be nil.
func (m *SplitMetrics) RecordRun(ctx context.Context, operation string, linesRead, records, blankLines int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	op := otelmetric.WithAttributes(attribute.String("operation", operation))
	m.linesRead.Add(ctx, int64(linesRead), op)
	m.records.Add(ctx, int64(records), op)
	m.blankLines.Add(ctx, int64(blankLines), op)
	m.duration.Record(ctx, elapsed.Seconds(), op)
	if err != nil {
		m.errors.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("error.code", string(contextutils.GetErrorCode(err))),
		))
	}
}
