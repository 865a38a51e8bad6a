package observability

import (
	"context"
	"errors"

	"parallelsplit/internal/config"

	autosdk "go.opentelemetry.io/auto/sdk"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry bundles the providers installed for one process
type Telemetry struct {
	TracerProvider trace.TracerProvider
	MeterProvider  *metric.MeterProvider
	Logger         *Logger
}

// Constructors used by SetupObservability, replaceable in tests
var (
	initTracing = InitStandardTracing
	initMetrics = InitMetrics
)

// SetupObservability initializes tracing, metrics, and logging for a service.
// Disabled signals leave the global no-op providers in place. Globals are only
// installed once every enabled provider was created; on failure the providers
// already started are shut down.
func SetupObservability(cfg *config.Config, serviceName string) (result0 *Telemetry, err error) {
	otelCfg := &cfg.OpenTelemetry
	if serviceName != "" {
		otelCfg.ServiceName = serviceName
	}

	t := &Telemetry{Logger: NewLogger(&cfg.Log, otelCfg)}
	defer func() {
		if err != nil {
			_ = t.Shutdown(context.Background())
		}
	}()

	if otelCfg.EnableTracing {
		if otelCfg.UseAutoSDK {
			t.TracerProvider = autosdk.TracerProvider()
			t.Logger.Debug(context.Background(), "Tracing enabled with Auto SDK", map[string]interface{}{"service_name": otelCfg.ServiceName})
		} else {
			tp, err := initTracing(otelCfg)
			if err != nil {
				return nil, err
			}
			t.TracerProvider = tp
			t.Logger.Debug(context.Background(), "Tracing enabled with standard SDK", map[string]interface{}{"service_name": otelCfg.ServiceName})
		}
	}

	if otelCfg.EnableMetrics {
		mp, err := initMetrics(otelCfg)
		if err != nil {
			return nil, err
		}
		t.MeterProvider = mp
	}

	if t.TracerProvider != nil {
		otel.SetTracerProvider(t.TracerProvider)
		InitPropagation()
	}
	if t.MeterProvider != nil {
		otel.SetMeterProvider(t.MeterProvider)
	}

	return t, nil
}

// Shutdown flushes and stops every provider that was started
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	var errs []error
	if tp, ok := t.TracerProvider.(*sdktrace.TracerProvider); ok {
		errs = append(errs, tp.Shutdown(ctx))
	}
	if t.MeterProvider != nil {
		errs = append(errs, t.MeterProvider.Shutdown(ctx))
	}
	if t.Logger != nil {
		errs = append(errs, t.Logger.Sync(ctx))
	}
	return errors.Join(errs...)
}
