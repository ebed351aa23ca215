package commands

import (
	"fmt"
	"path/filepath"

	"github.com/marmos91/codeindex/internal/logger"
	"github.com/marmos91/codeindex/pkg/config"
	"github.com/marmos91/codeindex/pkg/index/session"
)

// loadConfig loads the config file named by the persistent --config flag
// (falling back to defaults when none is found) and applies the --root
// override when set.
func loadConfig(root string) (*config.Config, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if root != "" {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root: %w", err)
		}
		cfg.Project.Root = abs
		config.ApplyDefaults(cfg)
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// initLogger initializes the structured logger from configuration.
func initLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// openOneShotSession opens a session in one-shot scan mode: a single full
// index runs on open and the session never updates itself again. This is
// the right mode for a short-lived CLI invocation.
func openOneShotSession(cfg *config.Config) (*session.Session, error) {
	s, err := session.Open(session.Config{
		ProjectRoot:        cfg.Project.Root,
		Extensions:         cfg.Project.Extensions,
		IgnorePatterns:     cfg.Project.IgnorePatterns,
		ParseCacheCapacity: cfg.Watch.ParseCacheCapacity,
		WatchMode:          boolPtr(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	return s, nil
}

func boolPtr(b bool) *bool {
	return &b
}
