// Package driver decides how the shell runs: a script file, an inline
// command, the interactive loop, or a parse-only debug dump.
package driver

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/atinylittleshell/shell/internal/builtin"
	"github.com/atinylittleshell/shell/internal/config"
	"github.com/atinylittleshell/shell/internal/core"
	"github.com/atinylittleshell/shell/internal/history"
	"github.com/atinylittleshell/shell/internal/interpreter"
	"github.com/atinylittleshell/shell/internal/prompt"
	"github.com/atinylittleshell/shell/internal/repl"
	"github.com/atinylittleshell/shell/internal/repl/completion"
	"github.com/atinylittleshell/shell/internal/repl/input"
	"github.com/atinylittleshell/shell/internal/session"
	"go.uber.org/zap"
)

// Interpreter executes source for a session and can dump its syntax tree.
type Interpreter interface {
	session.Interpreter
	DebugParse(w io.Writer, source, filename string) error
}

type Options struct {
	// File is a script to run. It wins over Command when both are set.
	File string
	// Command is inline source, used when HasCommand is set.
	Command    string
	HasCommand bool
	// Debug prints the syntax tree of the script instead of running it.
	Debug bool
	// Interact enters the interactive loop after the script finishes.
	Interact bool
	// NoRC skips sourcing ~/.shellrc.
	NoRC bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Environ and Cwd default to the process environment and directory.
	Environ []string
	Cwd     string
	// RcFile and HistoryFile override the files under the home directory.
	RcFile      string
	HistoryFile string

	Config   *config.Config
	Builtins *builtin.Registry
	// Journal is optional.
	Journal repl.Journal

	// Interpreter and Editor replace the real implementations, mostly in tests.
	Interpreter Interpreter
	Editor      repl.LineEditor

	Logger *zap.Logger
}

// Run executes the selected mode and returns the exit status for the
// process. A non-nil error is a driver failure and should abort the process.
func Run(ctx context.Context, opts Options) (int, error) {
	applyDefaults(&opts)
	logger := opts.Logger

	script, filename, hasScript, err := resolveScript(opts)
	if err != nil {
		return 1, err
	}

	if opts.Interpreter == nil {
		opts.Interpreter = interpreter.New(interpreter.Options{
			Stdin:       opts.Stdin,
			Stdout:      opts.Stdout,
			Stderr:      opts.Stderr,
			Interactive: !hasScript || opts.Interact,
			Logger:      logger,
		})
	}

	if hasScript && opts.Debug {
		if err := opts.Interpreter.DebugParse(opts.Stdout, script, filename); err != nil {
			return 1, fmt.Errorf("failed to parse script: %w", err)
		}
		return 0, nil
	}

	s, err := session.Bootstrap(ctx, session.Options{
		SuppressRC:  opts.NoRC,
		Environ:     opts.Environ,
		Cwd:         opts.Cwd,
		RcFile:      opts.RcFile,
		Builtins:    opts.Builtins,
		Interpreter: opts.Interpreter,
		Logger:      logger,
	})
	if err != nil {
		return 1, err
	}

	stop := watchInterrupts(s.Cancellation(), logger)
	defer stop()

	if !hasScript {
		if err := runInteractive(ctx, opts, s); err != nil {
			return 1, err
		}
		return 0, nil
	}

	logger.Debug("running script", zap.String("filename", filename))
	code, err := opts.Interpreter.Execute(ctx, script, filename, s)
	if err != nil {
		return 1, fmt.Errorf("failed to execute script: %w", err)
	}
	s.SetLastExitCode(code)

	if opts.Interact {
		if err := runInteractive(ctx, opts, s); err != nil {
			return 1, err
		}
	}
	return code, nil
}

func applyDefaults(opts *Options) {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
}

// resolveScript picks the source to run. The file is read in full; a
// missing or unreadable file is a driver failure.
func resolveScript(opts Options) (script, filename string, ok bool, err error) {
	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return "", "", false, fmt.Errorf("failed to read script file %s: %w", opts.File, err)
		}
		return string(data), opts.File, true, nil
	}
	if opts.HasCommand {
		return opts.Command, "", true, nil
	}
	return "", "", false, nil
}

func runInteractive(ctx context.Context, opts Options, s *session.Session) error {
	home, err := core.HomeDir()
	if err != nil {
		return fmt.Errorf("failed to locate the home directory: %w", err)
	}

	historyFile := opts.HistoryFile
	if historyFile == "" {
		if historyFile, err = core.HistoryFile(); err != nil {
			return fmt.Errorf("failed to locate the command history: %w", err)
		}
	}
	cfg := opts.Config.History
	store, err := history.Load(historyFile, history.Options{
		MaxEntries:  cfg.MaxEntries,
		IgnoreSpace: cfg.IgnoreSpace,
		IgnoreDups:  cfg.IgnoreDups,
	})
	if err != nil {
		return fmt.Errorf("failed to read the command history: %w", err)
	}

	editor := opts.Editor
	if editor == nil {
		editor = input.NewEditor(input.EditorOptions{
			Stdin:      opts.Stdin,
			Stdout:     opts.Stdout,
			History:    store,
			Completion: completion.NewProvider(s),
			Logger:     opts.Logger,
		})
	}

	loop, err := repl.New(repl.Options{
		Session:     s,
		Interpreter: opts.Interpreter,
		Editor:      editor,
		Prompt:      prompt.NewRenderer(home, opts.Config.Prompt.Color),
		History:     store,
		Journal:     opts.Journal,
		Notices:     opts.Stdout,
		Logger:      opts.Logger,
	})
	if err != nil {
		return fmt.Errorf("failed to start the interactive loop: %w", err)
	}

	opts.Logger.Info("entering interactive mode", zap.String("history", historyFile))
	return loop.Run(ctx)
}

// watchInterrupts cancels the running command on SIGINT for as long as the
// returned stop function has not been called. The shell itself keeps running.
func watchInterrupts(token *session.CancellationToken, logger *zap.Logger) (stop func()) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-signals:
				logger.Debug("interrupt received")
				token.Cancel()
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(signals)
		close(done)
	}
}
