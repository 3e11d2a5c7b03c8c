// Package core holds the fixed per-user file locations used by the shell.
package core

import (
	"errors"
	"os"
	"path/filepath"
)

const (
	rcFileName      = ".shellrc"
	historyFileName = ".shell_history"
	dataDirName     = ".shell"
)

// ErrNoHomeDir is returned when the user's home directory cannot be determined.
var ErrNoHomeDir = errors.New("couldn't get home directory")

// HomeDir returns the user's home directory.
func HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", ErrNoHomeDir
	}
	return home, nil
}

// RcFile returns the path of the startup script sourced at bootstrap.
func RcFile() (string, error) {
	home, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, rcFileName), nil
}

// HistoryFile returns the path of the newline-delimited line history.
func HistoryFile() (string, error) {
	home, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, historyFileName), nil
}

// DataDir returns the directory holding logs, the journal and the config file.
// SHELL_DATA_DIR overrides the default of ~/.shell.
func DataDir() (string, error) {
	if dir := os.Getenv("SHELL_DATA_DIR"); dir != "" {
		return dir, nil
	}
	home, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, dataDirName), nil
}

// EnsureDataDir creates the data directory if needed and returns its path.
func EnsureDataDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// LogFile returns the path of the log file.
func LogFile() (string, error) {
	return dataFile("shell.log")
}

// JournalFile returns the path of the SQLite command journal.
func JournalFile() (string, error) {
	return dataFile("journal.db")
}

// ConfigFile returns the path of the optional YAML settings file.
func ConfigFile() (string, error) {
	return dataFile("config.yaml")
}

func dataFile(name string) (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}
