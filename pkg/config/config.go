// Package config loads the codeindex process configuration: which tree to
// index, how to watch it, and the ambient logging/metrics/health knobs. It
// is a viper-backed Config struct with mapstructure/yaml tags, precedence
// CLI flags > environment > config file > defaults, and a
// Load/ApplyDefaults/Validate pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the codeindex process configuration.
//
// Configuration sources, in order of precedence:
//  1. CLI flags (highest priority)
//  2. Environment variables (CODEINDEX_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Project describes the tree being indexed.
	Project ProjectConfig `mapstructure:"project" yaml:"project"`

	// Watch controls owner-mode behavior: the watcher, heartbeat, and
	// parse cache sizing.
	Watch WatchConfig `mapstructure:"watch" yaml:"watch"`

	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Metrics contains Prometheus metrics server configuration.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Health tunes the ownership arbiter and health monitor.
	Health HealthConfig `mapstructure:"health" yaml:"health"`
}

// ProjectConfig describes the indexed tree.
type ProjectConfig struct {
	// Root must be an absolute path to an existing directory.
	Root string `mapstructure:"root" yaml:"root" validate:"required"`

	// Extensions are the source file extensions indexed.
	// Default: .ts, .mts, .cts
	Extensions []string `mapstructure:"extensions" yaml:"extensions"`

	// IgnorePatterns is a glob list excluded from scanning and watching.
	IgnorePatterns []string `mapstructure:"ignore_patterns" yaml:"ignore_patterns"`
}

// WatchConfig controls owner-mode behavior.
type WatchConfig struct {
	// OneShot disables ownership arbitration, the heartbeat, the watcher,
	// and signal handlers: a single full index runs on open and the
	// session never updates itself again.
	// Default: false (watch mode is the default behavior)
	OneShot bool `mapstructure:"one_shot" yaml:"one_shot"`

	// ParseCacheCapacity bounds the LRU cache of per-file parse results.
	// Default: 500
	ParseCacheCapacity int `mapstructure:"parse_cache_capacity" validate:"omitempty,gt=0" yaml:"parse_cache_capacity"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format.
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written.
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// MetricsConfig controls the Prometheus metrics HTTP endpoint.
type MetricsConfig struct {
	// Enabled controls whether the metrics HTTP server starts.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint.
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// HealthConfig tunes the ownership arbiter and health monitor.
type HealthConfig struct {
	// StaleSeconds is how old an owner heartbeat may be before another
	// process may steal ownership.
	StaleSeconds int `mapstructure:"stale_seconds" validate:"omitempty,gt=0" yaml:"stale_seconds"`

	// HealthCheckIntervalMs is how often the reader polls owner liveness.
	HealthCheckIntervalMs int `mapstructure:"health_check_interval_ms" validate:"omitempty,gt=0" yaml:"health_check_interval_ms"`

	// HeartbeatIntervalMs is how often the owner refreshes its heartbeat.
	HeartbeatIntervalMs int `mapstructure:"heartbeat_interval_ms" validate:"omitempty,gt=0" yaml:"heartbeat_interval_ms"`

	// MaxRetries is the number of consecutive health-check failures
	// tolerated before the session closes itself.
	MaxRetries int `mapstructure:"max_retries" validate:"omitempty,gt=0" yaml:"max_retries"`
}

// Load reads configuration from configPath (or the default search path if
// empty), applies environment overrides, fills defaults, and validates the
// result. When no config file is found, it returns GetDefaultConfig()
// without applying environment overrides or validating.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with a friendly error pointing at `codeindex
// init` when no config file can be found.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  codeindex init\n\n"+
				"Or specify a custom config file:\n"+
				"  codeindex <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  codeindex init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path in YAML form, restricted to owner
// read/write since config files may record filesystem paths.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setupViper wires environment variable support (CODEINDEX_ prefix, "_" in
// place of ".") and config file discovery.
func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("CODEINDEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	configDir := getConfigDir()
	v.AddConfigPath(configDir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// readConfigFile reads the configuration file if present. A missing file is
// not an error: callers fall back to GetDefaultConfig.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks composes the custom mapstructure decode hooks this
// config needs: only time.Duration today, kept for parity with the
// byte-size/duration hook pair the ambient stack elsewhere relies on.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
	)
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory: $XDG_CONFIG_HOME,
// ~/.config, or "." as a last resort.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "codeindex")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "codeindex")
}

// GetDefaultConfigPath returns the default config.yaml location.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default
// location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir exposes the configuration directory for the init command.
func GetConfigDir() string {
	return getConfigDir()
}
