package config

// ApplyDefaults fills any unspecified fields with sensible defaults.
//
// Default strategy: fields that have a default are filled when they hold
// their zero value; explicit values are preserved. Bool fields are never
// changed, and the metrics port is filled only when metrics are enabled.
func ApplyDefaults(cfg *Config) {
	applyProjectDefaults(&cfg.Project)
	applyWatchDefaults(&cfg.Watch)
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)
	applyHealthDefaults(&cfg.Health)
}

func applyProjectDefaults(cfg *ProjectConfig) {
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{".ts", ".mts", ".cts"}
	}
	if cfg.IgnorePatterns == nil {
		cfg.IgnorePatterns = []string{}
	}
}

func applyWatchDefaults(cfg *WatchConfig) {
	// OneShot defaults to false (watch mode). No need to set, zero value
	// is false.

	if cfg.ParseCacheCapacity == 0 {
		cfg.ParseCacheCapacity = 500
	}
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false (opt-in for metrics).
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// applyHealthDefaults leaves zero-value fields alone: ownership.New and
// health.New apply their own package-level defaults when given zero.
func applyHealthDefaults(cfg *HealthConfig) {
	_ = cfg
}

// GetDefaultConfig returns a Config with all defaults applied and no
// project root set; callers must fill Project.Root before Validate.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
