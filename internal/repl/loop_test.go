package repl

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atinylittleshell/shell/internal/history"
	"github.com/atinylittleshell/shell/internal/journal"
	"github.com/atinylittleshell/shell/internal/prompt"
	"github.com/atinylittleshell/shell/internal/repl/input"
	"github.com/atinylittleshell/shell/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// step is one scripted ReadLine outcome.
type step struct {
	line string
	err  error
	// during runs while the line is being read.
	during func()
}

type scriptedEditor struct {
	steps   []step
	prompts []string
}

func (e *scriptedEditor) ReadLine(ctx context.Context, p prompt.Rendered) (string, error) {
	e.prompts = append(e.prompts, p.Plain)
	if len(e.steps) == 0 {
		return "", input.ErrEOF
	}
	next := e.steps[0]
	e.steps = e.steps[1:]
	if next.during != nil {
		next.during()
	}
	return next.line, next.err
}

type recordingInterpreter struct {
	sources []string
	codes   map[string]int
	exitOn  string
	err     error
}

func (r *recordingInterpreter) Execute(ctx context.Context, source, filename string, s *session.Session) (int, error) {
	r.sources = append(r.sources, source)
	if r.err != nil {
		return 0, r.err
	}
	if source == r.exitOn {
		s.SetExitRequested(true)
	}
	return r.codes[source], nil
}

type recordingJournal struct {
	started  []string
	finished []int
}

func (j *recordingJournal) Start(command, directory string) (*journal.Entry, error) {
	j.started = append(j.started, command)
	return &journal.Entry{Command: command, Directory: directory}, nil
}

func (j *recordingJournal) Finish(entry *journal.Entry, exitCode int) (*journal.Entry, error) {
	j.finished = append(j.finished, exitCode)
	return entry, nil
}

type fixture struct {
	loop        *Loop
	editor      *scriptedEditor
	interp      *recordingInterpreter
	session     *session.Session
	notices     *bytes.Buffer
	historyPath string
}

func newFixture(t *testing.T, steps ...step) *fixture {
	t.Helper()
	dir := t.TempDir()
	historyPath := filepath.Join(dir, ".shell_history")
	store, err := history.Load(historyPath, history.Options{})
	require.NoError(t, err)

	f := &fixture{
		editor:      &scriptedEditor{steps: steps},
		interp:      &recordingInterpreter{codes: map[string]int{}},
		session:     session.New(map[string]string{"PS1": "> "}, dir, nil),
		notices:     &bytes.Buffer{},
		historyPath: historyPath,
	}
	f.loop, err = New(Options{
		Session:     f.session,
		Interpreter: f.interp,
		Editor:      f.editor,
		Prompt:      prompt.NewRenderer("", false),
		History:     store,
		Notices:     f.notices,
		Logger:      zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) savedHistory(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(f.historyPath)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestLoop_DispatchesUntilEOF(t *testing.T) {
	f := newFixture(t, step{line: "echo a"}, step{line: "false"})
	f.interp.codes["false"] = 1

	require.NoError(t, f.loop.Run(context.Background()))

	assert.Equal(t, []string{"echo a", "false"}, f.interp.sources)
	assert.Equal(t, 1, f.session.LastExitCode())
	assert.Equal(t, "exit\n", f.notices.String())
	assert.Equal(t, []string{"echo a", "false"}, f.savedHistory(t))
	assert.Equal(t, []string{"> ", "> ", "> "}, f.editor.prompts)
}

func TestLoop_InterruptKeepsReading(t *testing.T) {
	f := newFixture(t, step{err: input.ErrInterrupted}, step{line: "ls"})

	require.NoError(t, f.loop.Run(context.Background()))

	assert.Equal(t, []string{"ls"}, f.interp.sources)
	assert.Equal(t, "^C\nexit\n", f.notices.String())
}

func TestLoop_InterruptDuringReadAbortsLine(t *testing.T) {
	f := newFixture(t, step{line: "sleep 10"}, step{line: "ls"})
	f.editor.steps[0].during = func() { f.session.Cancellation().Cancel() }

	require.NoError(t, f.loop.Run(context.Background()))

	assert.Equal(t, []string{"ls"}, f.interp.sources)
	assert.Equal(t, "^C\nexit\n", f.notices.String())
	assert.Equal(t, []string{"ls"}, f.savedHistory(t))
}

func TestLoop_ExitKeyword(t *testing.T) {
	for _, line := range []string{"exit", "  EXIT ", "Exit"} {
		t.Run(line, func(t *testing.T) {
			f := newFixture(t, step{line: line}, step{line: "never"})
			f.interp.codes[line] = 7

			require.NoError(t, f.loop.Run(context.Background()))

			assert.Equal(t, []string{line}, f.interp.sources)
			assert.Equal(t, "Exiting...\n", f.notices.String())
			assert.Len(t, f.editor.steps, 1)
		})
	}
}

func TestLoop_InterpreterExitTerminates(t *testing.T) {
	f := newFixture(t, step{line: "exit 3"}, step{line: "never"})
	f.interp.exitOn = "exit 3"
	f.interp.codes["exit 3"] = 3

	require.NoError(t, f.loop.Run(context.Background()))

	assert.Equal(t, []string{"exit 3"}, f.interp.sources)
	assert.Equal(t, 3, f.session.LastExitCode())
	assert.Empty(t, f.notices.String())
}

func TestLoop_BlankLinesAreNotDispatched(t *testing.T) {
	f := newFixture(t, step{line: ""}, step{line: "   "}, step{line: "pwd"})

	require.NoError(t, f.loop.Run(context.Background()))

	assert.Equal(t, []string{"pwd"}, f.interp.sources)
	assert.Equal(t, []string{"pwd"}, f.savedHistory(t))
}

func TestLoop_ResetsCancellationBeforeReading(t *testing.T) {
	f := newFixture(t)
	f.session.Cancellation().Cancel()

	require.NoError(t, f.loop.Run(context.Background()))
	assert.False(t, f.session.Cancellation().Cancelled())
}

func TestLoop_EditorFailureTerminates(t *testing.T) {
	f := newFixture(t, step{line: "ls"}, step{err: errors.New("tty gone")}, step{line: "never"})

	require.NoError(t, f.loop.Run(context.Background()))
	assert.Equal(t, []string{"ls"}, f.interp.sources)
	assert.Equal(t, []string{"ls"}, f.savedHistory(t))
}

func TestLoop_InterpreterErrorIsFatal(t *testing.T) {
	f := newFixture(t, step{line: "ls"})
	f.interp.err = errors.New("runner broke")

	err := f.loop.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `failed to execute "ls"`)
	assert.Contains(t, err.Error(), "runner broke")
}

func TestLoop_HistorySaveFailure(t *testing.T) {
	f := newFixture(t, step{line: "ls"})
	store, err := history.Load(filepath.Join(t.TempDir(), "missing", "history"), history.Options{})
	require.NoError(t, err)
	f.loop.opts.History = store

	err = f.loop.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write the command history")
}

func TestLoop_AppendsToExistingHistory(t *testing.T) {
	f := newFixture(t, step{line: "new one"}, step{line: "new two"})
	require.NoError(t, os.WriteFile(f.historyPath, []byte("old one\nold two\n"), 0o600))
	store, err := history.Load(f.historyPath, history.Options{})
	require.NoError(t, err)
	f.loop.opts.History = store

	require.NoError(t, f.loop.Run(context.Background()))
	assert.Equal(t, []string{"old one", "old two", "new one", "new two"}, f.savedHistory(t))
}

func TestLoop_RecordsJournal(t *testing.T) {
	f := newFixture(t, step{line: "make"}, step{line: ""})
	f.interp.codes["make"] = 2
	j := &recordingJournal{}
	f.loop.opts.Journal = j

	require.NoError(t, f.loop.Run(context.Background()))
	assert.Equal(t, []string{"make"}, j.started)
	assert.Equal(t, []int{2}, j.finished)
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "reading", stateReading.String())
	assert.Equal(t, "terminating", stateTerminating.String())
	assert.Equal(t, "unknown", state(42).String())
}
