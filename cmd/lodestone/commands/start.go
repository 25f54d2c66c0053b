package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lodestone-io/lodestone/internal/logger"
	"github.com/lodestone-io/lodestone/internal/telemetry"
	"github.com/lodestone-io/lodestone/pkg/api"
	"github.com/lodestone-io/lodestone/pkg/config"
	"github.com/lodestone-io/lodestone/pkg/engine"
	"github.com/lodestone-io/lodestone/pkg/graph"
	"github.com/lodestone-io/lodestone/pkg/metrics"
	prommetrics "github.com/lodestone-io/lodestone/pkg/metrics/prometheus"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Lodestone server",
	Long: `Start the Lodestone server with the specified configuration.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/lodestone/config.yaml.

Examples:
  # Start with default config location
  lodestone start

  # Start with custom config file
  lodestone start --config /etc/lodestone/config.yaml

  # Start with environment variable overrides
  LODESTONE_LOGGING_LEVEL=DEBUG lodestone start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "lodestone",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	logger.Info("configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("telemetry disabled")
	}

	// Metrics registry must exist before collectors are created.
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		metricsServer, err = metrics.NewServer(cfg.Metrics.Port)
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		logger.Info("metrics enabled", logger.KeyPort, cfg.Metrics.Port)
	} else {
		logger.Info("metrics collection disabled")
	}

	g, err := graph.LoadFile(cfg.Graph.Path)
	if err != nil {
		return fmt.Errorf("failed to load configuration graph: %w", err)
	}

	sources, err := config.BuildSources(cfg.Sources)
	if err != nil {
		return fmt.Errorf("failed to build sources: %w", err)
	}
	defer func() {
		if err := sources.Close(); err != nil {
			logger.Error("source shutdown error", logger.Err(err))
		}
	}()
	logger.Info("sources registered", "count", sources.Count())

	eng := engine.New(g, sources, engine.Options{
		SweepPeriod:         cfg.Engine.SweepInterval,
		LockExtensionWindow: cfg.Engine.LockExtension,
		Metrics:             prommetrics.NewEngineMetrics(),
	})
	if err := eng.Start(); err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	names, err := eng.GetRepositoryNames(ctx)
	if err != nil {
		logger.Warn("failed to read repository names", logger.Err(err))
	} else {
		logger.Info("repositories configured", "count", len(names), "names", names)
	}

	serverDone := make(chan error, 2)
	serverCount := 0

	if cfg.API.Enabled {
		apiServer := api.NewServer(cfg.API, eng)
		serverCount++
		go func() {
			serverDone <- apiServer.Start(ctx)
		}()
		logger.Info("admin API enabled", logger.KeyPort, apiServer.Port())
	} else {
		logger.Info("admin API disabled")
	}

	if metricsServer != nil {
		serverCount++
		go func() {
			serverDone <- metricsServer.Start(ctx)
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("server is running, press Ctrl+C to stop")

	var runErr error
	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received, initiating graceful shutdown")
	case err := <-serverDone:
		signal.Stop(sigChan)
		serverCount--
		if err != nil {
			logger.Error("server error", logger.Err(err))
			runErr = err
		}
	}

	cancel()
	for i := 0; i < serverCount; i++ {
		if err := <-serverDone; err != nil {
			logger.Error("server shutdown error", logger.Err(err))
			if runErr == nil {
				runErr = err
			}
		}
	}

	if err := eng.Shutdown(); err != nil {
		logger.Error("engine shutdown error", logger.Err(err))
		if runErr == nil {
			runErr = err
		}
	}
	if !eng.AwaitTermination(cfg.ShutdownTimeout) {
		logger.Error("engine did not terminate within timeout", "timeout", cfg.ShutdownTimeout)
		if runErr == nil {
			runErr = fmt.Errorf("engine did not terminate within %s", cfg.ShutdownTimeout)
		}
	} else {
		logger.Info("engine stopped gracefully")
	}

	return runErr
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
