package input

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atinylittleshell/shell/internal/prompt"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var (
	// ErrInterrupted is returned by ReadLine when the user pressed Ctrl+C.
	ErrInterrupted = errors.New("interrupted")
	// ErrEOF is returned by ReadLine at end of input.
	ErrEOF = errors.New("end of input")
)

// HistorySource supplies previous lines for Up/Down navigation, newest first.
type HistorySource interface {
	Recent() []string
}

type EditorOptions struct {
	Stdin      io.Reader
	Stdout     io.Writer
	History    HistorySource
	Completion CompletionProvider
	Logger     *zap.Logger
}

// Editor reads one line per call. On a terminal it runs the Bubble Tea
// model with the colored prompt; otherwise it prints the plain prompt and
// reads a line from Stdin.
type Editor struct {
	opts   EditorOptions
	logger *zap.Logger
	tty    bool
	plain  *bufio.Reader
}

func NewEditor(opts EditorOptions) *Editor {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Editor{
		opts:   opts,
		logger: logger,
		tty:    isTerminal(opts.Stdin) && isTerminal(opts.Stdout),
	}
}

// ReadLine returns the submitted line without its trailing newline, or
// ErrInterrupted or ErrEOF.
func (e *Editor) ReadLine(ctx context.Context, p prompt.Rendered) (string, error) {
	if e.tty {
		return e.readTerminal(ctx, p.Colored)
	}
	return e.readPlain(p.Plain)
}

func (e *Editor) readTerminal(ctx context.Context, promptText string) (string, error) {
	width := 0
	if f, ok := e.opts.Stdout.(*os.File); ok {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil {
			width = w
		}
	}

	var history []string
	if e.opts.History != nil {
		history = e.opts.History.Recent()
	}

	model := New(Config{
		Prompt:             promptText,
		HistoryValues:      history,
		CompletionProvider: e.opts.Completion,
		Width:              width,
		Logger:             e.logger,
	})

	program := tea.NewProgram(
		model,
		tea.WithContext(ctx),
		tea.WithInput(e.opts.Stdin),
		tea.WithOutput(e.opts.Stdout),
		tea.WithoutSignalHandler(),
	)
	final, err := program.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return "", ErrInterrupted
		}
		return "", fmt.Errorf("line editor failed: %w", err)
	}

	result := final.(Model).Result()
	switch result.Type {
	case ResultSubmit:
		return result.Value, nil
	case ResultInterrupt:
		return "", ErrInterrupted
	default:
		return "", ErrEOF
	}
}

func (e *Editor) readPlain(promptText string) (string, error) {
	if e.plain == nil {
		e.plain = bufio.NewReader(e.opts.Stdin)
	}
	if _, err := io.WriteString(e.opts.Stdout, promptText); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}

	line, err := e.plain.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line == "" {
				return "", ErrEOF
			}
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
