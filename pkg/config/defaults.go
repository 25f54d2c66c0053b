package config

import (
	"strings"
	"time"

	"github.com/lodestone-io/lodestone/pkg/api"
	"github.com/lodestone-io/lodestone/pkg/engine"
	"github.com/lodestone-io/lodestone/pkg/repository"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields.
//
// Zero values (0, "", false, nil) are replaced with defaults; explicit
// values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownTimeoutDefaults(cfg)
	applyEngineDefaults(&cfg.Engine)
	applyMetricsDefaults(&cfg.Metrics)
	cfg.API.ApplyDefaults()
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
}

func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyEngineDefaults sets lock maintenance defaults.
func applyEngineDefaults(cfg *EngineConfig) {
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = engine.DefaultSweepPeriod
	}
	if cfg.LockExtension == 0 {
		cfg.LockExtension = repository.DefaultLockExtensionWindow
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false; port defaults to 9090 when enabled
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// GetDefaultConfig returns a Config struct with all default values
// applied. Useful for generating sample configuration files and tests.
func GetDefaultConfig() *Config {
	cfg := &Config{
		API: api.Config{
			Enabled: true,
		},
		Graph: GraphConfig{
			Path: "/var/lib/lodestone/graph.yaml",
		},
		Sources: []SourceConfig{
			{Name: "main-store", Type: "badger", Path: "/var/lib/lodestone/main-store"},
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
