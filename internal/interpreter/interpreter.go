// Package interpreter executes shell source for a session using mvdan/sh.
// One runner lives for the whole session so that shell variables, functions
// and aliases survive between commands; exported variables and the working
// directory are mirrored into the session after every run.
package interpreter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/atinylittleshell/shell/internal/session"
	"go.uber.org/zap"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

const (
	// ExitSyntaxError is reported for source that fails to parse.
	ExitSyntaxError = 2
	// ExitInterrupted is reported when the cancellation token stopped a command.
	ExitInterrupted = 130

	defaultKillTimeout = 2 * time.Second
)

// promptVars are mirrored into the session even when not exported, because
// the prompt renderer reads them from the session environment.
var promptVars = []string{"PS1"}

// Options configures an Interpreter.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Interactive enables interactive shell behavior such as alias expansion.
	Interactive bool

	// KillTimeout is how long a cancelled external command gets between
	// SIGINT and SIGKILL. Zero means two seconds; negative kills immediately.
	KillTimeout time.Duration

	Logger *zap.Logger
}

// Interpreter implements session.Interpreter.
type Interpreter struct {
	opts   Options
	logger *zap.Logger

	runner *interp.Runner
	owner  *session.Session
	// synced is the session environment as of the last write-back, used to
	// detect changes made to the session outside the runner.
	synced map[string]string
}

var _ session.Interpreter = (*Interpreter)(nil)

// New creates an Interpreter. Nil streams default to the process's standard streams.
func New(opts Options) *Interpreter {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.KillTimeout == 0 {
		opts.KillTimeout = defaultKillTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Interpreter{
		opts:   opts,
		logger: logger,
	}
}

// Parse parses source. filename is used in error positions only.
func Parse(source, filename string) (*syntax.File, error) {
	return syntax.NewParser().Parse(strings.NewReader(source), filename)
}

// DebugParse writes the syntax tree of source to w without executing anything.
func (i *Interpreter) DebugParse(w io.Writer, source, filename string) error {
	prog, err := Parse(source, filename)
	if err != nil {
		return err
	}
	return syntax.DebugPrint(w, prog)
}

// Execute runs source against s and returns its exit status. Syntax errors,
// failing commands and interrupts are reported on stderr and through the exit
// code; the error return is reserved for failures to set up the runner.
func (i *Interpreter) Execute(ctx context.Context, source string, filename string, s *session.Session) (int, error) {
	prog, err := Parse(source, filename)
	if err != nil {
		fmt.Fprintln(i.opts.Stderr, err)
		s.SetLastCommandCd(false)
		s.SetExitRequested(false)
		return ExitSyntaxError, nil
	}

	if err := i.prepare(ctx, s); err != nil {
		return 1, err
	}

	ctx, release := s.Cancellation().Bind(ctx)
	defer release()

	runErr := i.runner.Run(ctx, prog)

	i.writeBack(s)
	s.SetLastCommandCd(isDirectoryChange(prog))
	// Only the latest run decides, so an exit in a script or rc file does
	// not end a later interactive session.
	s.SetExitRequested(i.runner.Exited())

	code := i.exitCode(ctx, runErr)
	i.logger.Debug("executed", zap.String("filename", filename), zap.Int("exitCode", code))
	return code, nil
}

func (i *Interpreter) exitCode(ctx context.Context, err error) int {
	if err == nil {
		return 0
	}

	var exitStatus interp.ExitStatus
	if errors.As(err, &exitStatus) {
		return int(exitStatus)
	}

	if ctx.Err() != nil {
		return ExitInterrupted
	}

	fmt.Fprintln(i.opts.Stderr, err)
	return 1
}

// prepare creates the runner on first use and otherwise replays session
// changes made since the last run.
func (i *Interpreter) prepare(ctx context.Context, s *session.Session) error {
	if i.runner == nil || i.owner != s {
		runner, err := i.newRunner(s)
		if err != nil {
			return fmt.Errorf("failed to create shell runner: %w", err)
		}
		i.runner = runner
		i.owner = s
		i.synced = s.Env()
		return nil
	}

	sync := i.pendingChanges(s)
	if sync == "" {
		return nil
	}

	prog, err := Parse(sync, "")
	if err != nil {
		return fmt.Errorf("failed to sync session state: %w", err)
	}
	if err := i.runner.Run(ctx, prog); err != nil {
		return fmt.Errorf("failed to sync session state: %w", err)
	}
	return nil
}

func (i *Interpreter) newRunner(s *session.Session) (*interp.Runner, error) {
	processGroupHandler := NewProcessGroupExecHandler(i.opts.KillTimeout)

	return interp.New(
		interp.Interactive(i.opts.Interactive),
		interp.Env(expand.ListEnviron(s.EnvList()...)),
		interp.Dir(s.Cwd()),
		interp.StdIO(i.opts.Stdin, i.opts.Stdout, i.opts.Stderr),
		interp.ExecHandlers(
			s.Builtins().ExecMiddleware(),
			func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
				return processGroupHandler
			},
		),
	)
}

// pendingChanges renders the session changes since the last write-back as
// shell source: exports, unsets and a cd.
func (i *Interpreter) pendingChanges(s *session.Session) string {
	var b strings.Builder

	current := s.Env()
	for name, value := range current {
		if prev, ok := i.synced[name]; ok && prev == value {
			continue
		}
		if !syntax.ValidName(name) {
			continue
		}
		quoted, err := syntax.Quote(value, syntax.LangBash)
		if err != nil {
			i.logger.Warn("cannot quote session variable", zap.String("name", name), zap.Error(err))
			continue
		}
		fmt.Fprintf(&b, "export %s=%s\n", name, quoted)
	}
	for name := range i.synced {
		if _, ok := current[name]; !ok && syntax.ValidName(name) {
			fmt.Fprintf(&b, "unset %s\n", name)
		}
	}

	if s.Cwd() != i.runner.Dir {
		quoted, err := syntax.Quote(s.Cwd(), syntax.LangBash)
		if err == nil {
			fmt.Fprintf(&b, "cd -- %s\n", quoted)
		}
	}

	return b.String()
}

// writeBack mirrors the runner's exported variables and directory into s.
func (i *Interpreter) writeBack(s *session.Session) {
	for name, vr := range i.runner.Vars {
		if !vr.IsSet() {
			s.Unsetenv(name)
			continue
		}
		if vr.Exported || isPromptVar(name) {
			s.Setenv(name, vr.String())
		}
	}
	if i.runner.Dir != "" {
		s.SetCwd(i.runner.Dir)
	}
	i.synced = s.Env()
}

func isPromptVar(name string) bool {
	for _, v := range promptVars {
		if v == name {
			return true
		}
	}
	return false
}

// isDirectoryChange reports whether prog is a single cd command.
func isDirectoryChange(prog *syntax.File) bool {
	if len(prog.Stmts) != 1 {
		return false
	}
	call, ok := prog.Stmts[0].Cmd.(*syntax.CallExpr)
	if !ok || len(call.Args) == 0 {
		return false
	}
	return call.Args[0].Lit() == "cd"
}

