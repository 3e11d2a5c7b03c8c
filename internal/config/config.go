// Package config handles the optional YAML settings file of the shell.
// A missing file yields DefaultConfig.
package config

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the settings read from ~/.shell/config.yaml.
type Config struct {
	// LogLevel controls logging verbosity. SHELL_LOG_LEVEL takes precedence.
	LogLevel string `yaml:"log_level"`

	History HistoryConfig `yaml:"history"`
	Journal JournalConfig `yaml:"journal"`
	Prompt  PromptConfig  `yaml:"prompt"`
}

// HistoryConfig controls the line history kept in ~/.shell_history.
type HistoryConfig struct {
	// MaxEntries bounds the number of lines written back. 0 means unlimited.
	MaxEntries int `yaml:"max_entries"`
	// IgnoreSpace skips lines starting with a space.
	IgnoreSpace bool `yaml:"ignore_space"`
	// IgnoreDups skips a line identical to the previous one.
	IgnoreDups bool `yaml:"ignore_dups"`
}

// JournalConfig controls the SQLite command journal.
type JournalConfig struct {
	Enabled bool `yaml:"enabled"`
}

// PromptConfig controls prompt rendering.
type PromptConfig struct {
	// Color enables ANSI colors in the displayed prompt.
	Color bool `yaml:"color"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		History: HistoryConfig{
			MaxEntries:  1000,
			IgnoreSpace: true,
			IgnoreDups:  true,
		},
		Journal: JournalConfig{Enabled: true},
		Prompt:  PromptConfig{Color: true},
	}
}

// Level resolves the effective log level. SHELL_LOG_LEVEL wins over the file
// setting; unknown values fall back to info.
func (c *Config) Level() zap.AtomicLevel {
	name := c.LogLevel
	if env := os.Getenv("SHELL_LOG_LEVEL"); env != "" {
		name = env
	}

	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		level = zapcore.InfoLevel
	}
	return zap.NewAtomicLevelAt(level)
}

// ShouldCleanLogFile reports whether the log file should be truncated at startup.
func ShouldCleanLogFile() bool {
	switch strings.ToLower(os.Getenv("SHELL_CLEAN_LOG_FILE")) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
