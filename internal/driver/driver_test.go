package driver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/atinylittleshell/shell/internal/prompt"
	"github.com/atinylittleshell/shell/internal/repl/input"
	"github.com/atinylittleshell/shell/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type call struct {
	source   string
	filename string
}

type fakeInterpreter struct {
	executed []call
	parsed   []call
	code     int
}

func (f *fakeInterpreter) Execute(ctx context.Context, source, filename string, s *session.Session) (int, error) {
	f.executed = append(f.executed, call{source, filename})
	return f.code, nil
}

func (f *fakeInterpreter) DebugParse(w io.Writer, source, filename string) error {
	f.parsed = append(f.parsed, call{source, filename})
	_, err := fmt.Fprintf(w, "tree of %q", source)
	return err
}

type lineQueue []string

func (q *lineQueue) ReadLine(ctx context.Context, p prompt.Rendered) (string, error) {
	if len(*q) == 0 {
		return "", input.ErrEOF
	}
	line := (*q)[0]
	*q = (*q)[1:]
	return line, nil
}

func baseOptions(t *testing.T, interp *fakeInterpreter) Options {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return Options{
		NoRC:        true,
		Stdin:       &bytes.Buffer{},
		Stdout:      &bytes.Buffer{},
		Stderr:      &bytes.Buffer{},
		Environ:     []string{"HOME=" + home},
		Cwd:         home,
		HistoryFile: filepath.Join(home, ".shell_history"),
		Interpreter: interp,
		Logger:      zaptest.NewLogger(t),
	}
}

func TestRun_InlineCommand(t *testing.T) {
	interp := &fakeInterpreter{code: 4}
	opts := baseOptions(t, interp)
	opts.Command, opts.HasCommand = "echo hi", true

	code, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 4, code)
	assert.Equal(t, []call{{"echo hi", ""}}, interp.executed)
}

func TestRun_EmptyInlineCommandIsStillScriptMode(t *testing.T) {
	interp := &fakeInterpreter{}
	opts := baseOptions(t, interp)
	opts.HasCommand = true
	opts.Editor = &lineQueue{"never"}

	code, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, []call{{"", ""}}, interp.executed)
}

func TestRun_FileWinsOverCommand(t *testing.T) {
	interp := &fakeInterpreter{}
	opts := baseOptions(t, interp)
	script := filepath.Join(t.TempDir(), "job.sh")
	require.NoError(t, os.WriteFile(script, []byte("echo from file\n"), 0o644))
	opts.File = script
	opts.Command, opts.HasCommand = "echo inline", true

	_, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []call{{"echo from file\n", script}}, interp.executed)
}

func TestRun_MissingFileIsFatal(t *testing.T) {
	interp := &fakeInterpreter{}
	opts := baseOptions(t, interp)
	opts.File = filepath.Join(t.TempDir(), "nope.sh")

	code, err := Run(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read script file")
	assert.NotEqual(t, 0, code)
	assert.Empty(t, interp.executed)
	assert.Empty(t, interp.parsed)
}

func TestRun_DebugNeverExecutes(t *testing.T) {
	interp := &fakeInterpreter{code: 9}
	opts := baseOptions(t, interp)
	opts.Command, opts.HasCommand = "ls | wc", true
	opts.Debug = true
	opts.NoRC = false
	rc := filepath.Join(t.TempDir(), ".shellrc")
	require.NoError(t, os.WriteFile(rc, []byte("echo rc\n"), 0o644))
	opts.RcFile = rc

	code, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Empty(t, interp.executed)
	assert.Equal(t, []call{{"ls | wc", ""}}, interp.parsed)
	assert.Equal(t, `tree of "ls | wc"`, opts.Stdout.(*bytes.Buffer).String())
}

func TestRun_SourcesRcFile(t *testing.T) {
	interp := &fakeInterpreter{}
	opts := baseOptions(t, interp)
	opts.NoRC = false
	rc := filepath.Join(t.TempDir(), ".shellrc")
	require.NoError(t, os.WriteFile(rc, []byte("alias ll='ls -l'\n"), 0o644))
	opts.RcFile = rc
	opts.Command, opts.HasCommand = "ll", true

	_, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, interp.executed, 2)
	assert.Equal(t, call{fmt.Sprintf("source '%s'", rc), rc}, interp.executed[0])
	assert.Equal(t, call{"ll", ""}, interp.executed[1])
}

func TestRun_Interactive(t *testing.T) {
	interp := &fakeInterpreter{code: 1}
	opts := baseOptions(t, interp)
	opts.Editor = &lineQueue{"ls", "false"}

	code, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, []call{{"ls", ""}, {"false", ""}}, interp.executed)

	data, err := os.ReadFile(opts.HistoryFile)
	require.NoError(t, err)
	assert.Equal(t, "ls\nfalse\n", string(data))
	assert.Contains(t, opts.Stdout.(*bytes.Buffer).String(), "exit")
}

func TestRun_InteractAfterScriptKeepsScriptCode(t *testing.T) {
	interp := &fakeInterpreter{code: 3}
	opts := baseOptions(t, interp)
	opts.Command, opts.HasCommand = "false", true
	opts.Interact = true
	opts.Editor = &lineQueue{"pwd"}

	code, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 3, code)
	assert.Equal(t, []call{{"false", ""}, {"pwd", ""}}, interp.executed)
}

func TestRun_InteractAfterExitKeepsReading(t *testing.T) {
	opts := baseOptions(t, nil)
	opts.Interpreter = nil
	opts.Command, opts.HasCommand = "exit 0", true
	opts.Interact = true
	editor := &lineQueue{"echo first", "echo second", "echo third"}
	opts.Editor = editor

	code, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Empty(t, *editor)
	assert.Contains(t, opts.Stdout.(*bytes.Buffer).String(), "first\nsecond\nthird\n")
}

func TestRun_InteractiveNeedsHome(t *testing.T) {
	interp := &fakeInterpreter{}
	opts := baseOptions(t, interp)
	opts.Editor = &lineQueue{}
	t.Setenv("HOME", "")

	_, err := Run(context.Background(), opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "home directory")
	assert.Empty(t, interp.executed)
}

func TestWatchInterrupts(t *testing.T) {
	token := &session.CancellationToken{}
	stop := watchInterrupts(token, zaptest.NewLogger(t))
	stop()
	assert.False(t, token.Cancelled())
}
