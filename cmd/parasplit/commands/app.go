// Package commands provides the parasplit command tree
package commands

import (
	"context"
	"os"

	"parallelsplit/internal/config"
	"parallelsplit/internal/observability"
	"parallelsplit/internal/services"
	contextutils "parallelsplit/internal/utils"
	"parallelsplit/internal/version"
)

// SplitterFactory builds the splitter once logging and metrics are ready
type SplitterFactory func(logger *observability.Logger, metrics *observability.SplitMetrics) services.SplitterServiceInterface

// App holds what the subcommands share after configuration is loaded
type App struct {
	Config   *config.Config
	Logger   *observability.Logger
	Splitter services.SplitterServiceInterface

	telemetry   *observability.Telemetry
	newSplitter SplitterFactory
}

// NewApp creates an App. A nil factory uses services.NewSplitterService.
func NewApp(newSplitter SplitterFactory) *App {
	if newSplitter == nil {
		newSplitter = func(logger *observability.Logger, metrics *observability.SplitMetrics) services.SplitterServiceInterface {
			return services.NewSplitterService(logger, metrics)
		}
	}
	return &App{Logger: observability.NewNopLogger(), newSplitter: newSplitter}
}

// Load reads the configuration, starts telemetry and builds the splitter.
// configFile and logLevel come from the global flags and win when set.
func (a *App) Load(configFile, logLevel string) (err error) {
	if configFile != "" {
		if err := os.Setenv(config.ConfigFileEnv, configFile); err != nil {
			return contextutils.WrapError(err, "failed to set "+config.ConfigFileEnv)
		}
	}

	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	cfg.OpenTelemetry.ServiceVersion = version.Version

	tel, err := observability.SetupObservability(cfg, config.ServiceName)
	if err != nil {
		return err
	}

	// Instruments land on the global provider, a no-op unless metrics are enabled
	metrics, err := observability.NewSplitMetrics(nil)
	if err != nil {
		_ = tel.Shutdown(context.Background())
		return err
	}

	a.Config = cfg
	a.Logger = tel.Logger
	a.telemetry = tel
	a.Splitter = a.newSplitter(tel.Logger, metrics)

	a.Logger.Debug(context.Background(), "Configuration loaded", map[string]interface{}{
		"input_path":         cfg.Split.InputPath,
		"source_output_path": cfg.Split.SourceOutputPath,
		"target_output_path": cfg.Split.TargetOutputPath,
		"log_level":          cfg.Log.Level,
		"tracing":            cfg.OpenTelemetry.EnableTracing,
		"metrics":            cfg.OpenTelemetry.EnableMetrics,
	})
	return nil
}

// Close flushes and stops telemetry. It is safe to call when Load never ran.
func (a *App) Close(ctx context.Context) error {
	return a.telemetry.Shutdown(ctx)
}
