package config

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Loader handles loading of the settings file.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{
		logger: logger,
	}
}

// LoadFromFile loads configuration from a YAML file.
// If the file doesn't exist, returns default configuration with no error.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			l.logger.Debug("no config file, using defaults", zap.String("path", path))
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := l.LoadFromString(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromString decodes YAML on top of the defaults, so omitted keys keep
// their default values.
func (l *Loader) LoadFromString(source string) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(source), cfg); err != nil {
		return nil, err
	}
	if cfg.History.MaxEntries < 0 {
		return nil, fmt.Errorf("history.max_entries must not be negative, got %d", cfg.History.MaxEntries)
	}
	return cfg, nil
}
