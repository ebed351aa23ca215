package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := GetDefaultConfig()
	cfg.Project.Root = t.TempDir()
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig(t)
	require.NoError(t, Validate(cfg))
}

func TestValidate_MissingRoot(t *testing.T) {
	cfg := validConfig(t)
	cfg.Project.Root = ""

	err := Validate(cfg)
	require.Error(t, err)
}

func TestValidate_RelativeRoot(t *testing.T) {
	cfg := validConfig(t)
	cfg.Project.Root = "relative/path"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absolute")
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := validConfig(t)
	cfg.Logging.Level = "VERBOSE"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oneof")
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := validConfig(t)
	cfg.Logging.Format = "xml"

	require.Error(t, Validate(cfg))
}

func TestValidate_MetricsPortOutOfRange(t *testing.T) {
	cfg := validConfig(t)
	cfg.Metrics.Port = 70000

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max")
}

func TestValidate_NegativeParseCacheCapacity(t *testing.T) {
	cfg := validConfig(t)
	cfg.Watch.ParseCacheCapacity = -1

	require.Error(t, Validate(cfg))
}

func TestApplyDefaults_FillsExtensionsAndCapacity(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, []string{".ts", ".mts", ".cts"}, cfg.Project.Extensions)
	assert.Equal(t, 500, cfg.Watch.ParseCacheCapacity)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.False(t, cfg.Watch.OneShot)
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Project: ProjectConfig{Extensions: []string{".tsx"}},
		Watch:   WatchConfig{ParseCacheCapacity: 10, OneShot: true},
		Logging: LoggingConfig{Level: "DEBUG"},
	}
	ApplyDefaults(cfg)

	assert.Equal(t, []string{".tsx"}, cfg.Project.Extensions)
	assert.Equal(t, 10, cfg.Watch.ParseCacheCapacity)
	assert.True(t, cfg.Watch.OneShot)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
}

func TestLoad_NoConfigFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "INFO", cfg.Logging.Level)
}

func TestLoad_ReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	root := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := "project:\n  root: " + root + "\nlogging:\n  level: DEBUG\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, root, cfg.Project.Root)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, []string{".ts", ".mts", ".cts"}, cfg.Project.Extensions)
}

func TestLoad_RejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := "logging:\n  level: NOPE\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveConfig_RoundTrips(t *testing.T) {
	cfg := validConfig(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Project.Root, loaded.Project.Root)
}
