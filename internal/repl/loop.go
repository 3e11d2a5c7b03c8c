// Package repl runs the interactive read / dispatch loop of the shell.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atinylittleshell/shell/internal/history"
	"github.com/atinylittleshell/shell/internal/journal"
	"github.com/atinylittleshell/shell/internal/prompt"
	"github.com/atinylittleshell/shell/internal/repl/input"
	"github.com/atinylittleshell/shell/internal/session"
	"github.com/atinylittleshell/shell/internal/styles"
	"go.uber.org/zap"
)

const exitKeyword = "exit"

// LineEditor reads one line of input. It returns input.ErrInterrupted when
// the user aborts the line and input.ErrEOF at end of input.
type LineEditor interface {
	ReadLine(ctx context.Context, p prompt.Rendered) (string, error)
}

// Journal records dispatched commands with their exit codes.
type Journal interface {
	Start(command, directory string) (*journal.Entry, error)
	Finish(entry *journal.Entry, exitCode int) (*journal.Entry, error)
}

var _ Journal = (*journal.Journal)(nil)

type Options struct {
	Session     *session.Session
	Interpreter session.Interpreter
	Editor      LineEditor
	Prompt      *prompt.Renderer
	History     *history.Store
	// Journal is optional.
	Journal Journal
	// Notices receives the short messages printed on interrupt and exit.
	// Defaults to os.Stdout.
	Notices io.Writer
	Logger  *zap.Logger
}

type state int

const (
	stateReading state = iota
	stateDispatching
	stateTerminating
)

func (s state) String() string {
	switch s {
	case stateReading:
		return "reading"
	case stateDispatching:
		return "dispatching"
	case stateTerminating:
		return "terminating"
	default:
		return "unknown"
	}
}

// Loop is the interactive controller. It moves between reading a line,
// dispatching it to the interpreter and terminating, which saves history.
type Loop struct {
	opts   Options
	logger *zap.Logger
}

func New(opts Options) (*Loop, error) {
	switch {
	case opts.Session == nil:
		return nil, errors.New("repl: session is required")
	case opts.Interpreter == nil:
		return nil, errors.New("repl: interpreter is required")
	case opts.Editor == nil:
		return nil, errors.New("repl: line editor is required")
	case opts.Prompt == nil:
		return nil, errors.New("repl: prompt renderer is required")
	case opts.History == nil:
		return nil, errors.New("repl: history store is required")
	}
	if opts.Notices == nil {
		opts.Notices = os.Stdout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{opts: opts, logger: logger}, nil
}

// Run blocks until the user leaves the shell. Errors are driver failures;
// a failing user command only changes the session's last exit code.
func (l *Loop) Run(ctx context.Context) error {
	var (
		current = stateReading
		line    string
		runErr  error
	)

	for {
		l.logger.Debug("repl state", zap.Stringer("state", current))

		switch current {
		case stateReading:
			line, current = l.read(ctx)

		case stateDispatching:
			current, runErr = l.dispatch(ctx, line)

		case stateTerminating:
			if err := l.opts.History.Save(); err != nil {
				return errors.Join(runErr, fmt.Errorf("failed to write the command history: %w", err))
			}
			return runErr
		}
	}
}

func (l *Loop) read(ctx context.Context) (string, state) {
	s := l.opts.Session
	s.Cancellation().Reset()

	line, err := l.opts.Editor.ReadLine(ctx, l.opts.Prompt.Render(s))
	switch {
	case err == nil && s.Cancellation().Cancelled():
		// An interrupt that lands while the editor returns aborts the line.
		l.logger.Info("line aborted by interrupt")
		l.notice("^C")
		return "", stateReading
	case err == nil:
		l.opts.History.Add(line)
		return line, stateDispatching
	case errors.Is(err, input.ErrInterrupted):
		l.logger.Info("input interrupted")
		l.notice("^C")
		return "", stateReading
	case errors.Is(err, input.ErrEOF):
		l.logger.Info("end of input")
		l.notice(exitKeyword)
		return "", stateTerminating
	default:
		l.logger.Error("line editor failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, styles.ERROR(err.Error()))
		return "", stateTerminating
	}
}

func (l *Loop) dispatch(ctx context.Context, line string) (state, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return stateReading, nil
	}

	s := l.opts.Session
	entry := l.journalStart(line, s.Cwd())

	code, err := l.opts.Interpreter.Execute(ctx, line, "", s)
	if err != nil {
		return stateTerminating, fmt.Errorf("failed to execute %q: %w", line, err)
	}
	s.SetLastExitCode(code)
	l.journalFinish(entry, code)
	l.logger.Debug("command finished", zap.String("command", line), zap.Int("exit_code", code))

	if strings.EqualFold(trimmed, exitKeyword) {
		l.notice("Exiting...")
		return stateTerminating, nil
	}
	if s.ExitRequested() {
		return stateTerminating, nil
	}
	return stateReading, nil
}

func (l *Loop) journalStart(line, dir string) *journal.Entry {
	if l.opts.Journal == nil {
		return nil
	}
	entry, err := l.opts.Journal.Start(line, dir)
	if err != nil {
		l.logger.Warn("failed to record command in journal", zap.Error(err))
		return nil
	}
	return entry
}

func (l *Loop) journalFinish(entry *journal.Entry, code int) {
	if entry == nil {
		return
	}
	if _, err := l.opts.Journal.Finish(entry, code); err != nil {
		l.logger.Warn("failed to record exit code in journal", zap.Error(err))
	}
}

func (l *Loop) notice(msg string) {
	fmt.Fprintln(l.opts.Notices, styles.NOTICE(msg))
}
