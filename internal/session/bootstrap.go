package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/atinylittleshell/shell/internal/builtin"
	"github.com/atinylittleshell/shell/internal/core"
	"go.uber.org/zap"
)

// DefaultPS1 is the prompt template used when PS1 is not inherited.
const DefaultPS1 = "{display_cwd}{git_branch}$ "

// Options configures Bootstrap. Zero values fall back to the real process
// state.
type Options struct {
	// SuppressRC skips sourcing the rc file.
	SuppressRC bool
	// Environ is the inherited environment as NAME=value pairs. Nil means os.Environ().
	Environ []string
	// Cwd is the initial working directory. Empty means os.Getwd().
	Cwd string
	// RcFile overrides the rc file location. Empty means ~/.shellrc.
	RcFile string

	Builtins    *builtin.Registry
	Interpreter Interpreter
	Logger      *zap.Logger
}

// Bootstrap builds the session: environment, working directory, built-ins, and
// unless suppressed, the result of sourcing the rc file.
func Bootstrap(ctx context.Context, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}

	cwd := opts.Cwd
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get the current working directory: %w", err)
		}
		cwd = wd
	}

	s := New(seedEnv(environ), cwd, opts.Builtins)

	if opts.SuppressRC {
		return s, nil
	}

	rcFile, ok, err := locateRcFile(opts.RcFile)
	if err != nil {
		return nil, fmt.Errorf("failed to locate ~/.shellrc: %w", err)
	}
	if !ok {
		logger.Debug("no rc file to source")
		return s, nil
	}

	if opts.Interpreter == nil {
		return nil, errors.New("failed to source ~/.shellrc: no interpreter")
	}

	logger.Info("sourcing rc file", zap.String("path", rcFile))
	line := fmt.Sprintf("source '%s'", rcFile)
	exitCode, err := opts.Interpreter.Execute(ctx, line, rcFile, s)
	if err != nil {
		return nil, fmt.Errorf("failed to source ~/.shellrc: %w", err)
	}
	s.SetLastExitCode(exitCode)

	return s, nil
}

// seedEnv converts environ to a map. The default PS1 applies only when the
// inherited environment has none.
func seedEnv(environ []string) map[string]string {
	env := make(map[string]string, len(environ)+1)
	for _, kv := range environ {
		name, value, found := strings.Cut(kv, "=")
		if !found || name == "" {
			continue
		}
		env[name] = value
	}
	if _, ok := env["PS1"]; !ok {
		env["PS1"] = DefaultPS1
	}
	return env
}

// locateRcFile resolves the rc file path and whether it exists. A missing home
// directory means there is no rc file to source.
func locateRcFile(override string) (string, bool, error) {
	path := override
	if path == "" {
		p, err := core.RcFile()
		if errors.Is(err, core.ErrNoHomeDir) {
			return "", false, nil
		}
		if err != nil {
			return "", false, err
		}
		path = p
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return path, false, nil
		}
		return "", false, err
	}
	return path, true, nil
}
