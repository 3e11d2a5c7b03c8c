// Package input is the interactive line editor: a Bubble Tea model for a
// single prompt line with history navigation, tab completion and paste.
package input

import (
	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// ResultType says how an edit session ended.
type ResultType int

const (
	ResultNone ResultType = iota
	ResultSubmit
	ResultInterrupt
	ResultEOF
)

type Result struct {
	Type  ResultType
	Value string
}

// Model edits one line. It is driven by a tea.Program and finishes by
// setting a Result and returning tea.Quit.
type Model struct {
	buffer *Buffer
	keymap *KeyMap
	prompt string

	// historyValues is newest first; historyIndex 0 is the line being typed.
	historyValues       []string
	historyIndex        int
	savedCurrentInput   string
	hasNavigatedHistory bool

	completion         *CompletionState
	completionProvider CompletionProvider

	renderer *Renderer
	result   Result
	logger   *zap.Logger
}

type Config struct {
	Prompt string
	// HistoryValues lists previous lines, most recent first.
	HistoryValues      []string
	CompletionProvider CompletionProvider
	KeyMap             *KeyMap
	RenderConfig       *RenderConfig
	Width              int
	Logger             *zap.Logger
}

func New(cfg Config) Model {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	keymap := cfg.KeyMap
	if keymap == nil {
		keymap = DefaultKeyMap()
	}
	renderConfig := DefaultRenderConfig()
	if cfg.RenderConfig != nil {
		renderConfig = *cfg.RenderConfig
	}

	renderer := NewRenderer(renderConfig)
	renderer.SetWidth(cfg.Width)

	return Model{
		buffer:             NewBuffer(),
		keymap:             keymap,
		prompt:             cfg.Prompt,
		historyValues:      cfg.HistoryValues,
		completion:         NewCompletionState(),
		completionProvider: cfg.CompletionProvider,
		renderer:           renderer,
		logger:             logger,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.renderer.SetWidth(msg.Width)
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case pasteMsg:
		m.insert([]rune(string(msg)))
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if m.result.Type != ResultNone {
		// Leave the finished line on screen without the cursor or menu.
		return m.renderer.RenderInputLine(m.prompt, m.buffer, false)
	}
	return m.renderer.RenderView(m.prompt, m.buffer, m.completion)
}

func (m Model) Result() Result { return m.result }

func (m Model) Value() string { return m.buffer.Text() }

func (m *Model) SetValue(text string) {
	m.buffer.SetText(text)
	m.historyIndex = 0
	m.hasNavigatedHistory = false
}

func (m Model) Buffer() *Buffer { return m.buffer }

func (m Model) Completion() *CompletionState { return m.completion }

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := m.keymap.Lookup(msg)

	if m.completion.IsActive() {
		switch action {
		case ActionComplete, ActionCursorDown:
			m.cycleCompletion(m.completion.NextSuggestion())
			return m, nil
		case ActionCompleteBackward, ActionCursorUp:
			m.cycleCompletion(m.completion.PrevSuggestion())
			return m, nil
		case ActionCancel:
			if original := m.completion.Cancel(); original != "" {
				m.buffer.SetText(original)
			}
			return m, nil
		}
		m.completion.Reset()
	}

	switch action {
	case ActionSubmit:
		return m.finish(ResultSubmit, m.buffer.Text())
	case ActionInterrupt:
		return m.finish(ResultInterrupt, "")
	case ActionDeleteCharacterForward:
		if m.buffer.Len() == 0 {
			return m.finish(ResultEOF, "")
		}
		m.buffer.DeleteCharForward()
	case ActionClearScreen:
		return m, tea.ClearScreen
	case ActionPaste:
		return m, Paste
	case ActionComplete:
		m.startCompletion()
	case ActionCharacterForward:
		m.buffer.SetPos(m.buffer.Pos() + 1)
	case ActionCharacterBackward:
		m.buffer.SetPos(m.buffer.Pos() - 1)
	case ActionWordForward:
		m.buffer.WordForward()
	case ActionWordBackward:
		m.buffer.WordBackward()
	case ActionLineStart:
		m.buffer.CursorStart()
	case ActionLineEnd:
		m.buffer.CursorEnd()
	case ActionDeleteCharacterBackward:
		m.buffer.DeleteCharBackward()
	case ActionDeleteWordBackward:
		m.buffer.DeleteWordBackward()
	case ActionDeleteWordForward:
		m.buffer.DeleteWordForward()
	case ActionDeleteBeforeCursor:
		m.buffer.DeleteBeforeCursor()
	case ActionDeleteAfterCursor:
		m.buffer.DeleteAfterCursor()
	case ActionCursorUp:
		m.historyPrevious()
	case ActionCursorDown:
		m.historyNext()
	case ActionNone:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			m.insert(msg.Runes)
		}
	}
	return m, nil
}

func (m Model) finish(kind ResultType, value string) (tea.Model, tea.Cmd) {
	m.result = Result{Type: kind, Value: value}
	return m, tea.Quit
}

// insert types runes at the cursor; tabs and newlines become spaces so a
// pasted block stays on one line.
func (m *Model) insert(runes []rune) {
	m.buffer.InsertRunes(sanitizeRunes(runes))
	m.historyIndex = 0
	m.hasNavigatedHistory = false
}

func (m *Model) historyPrevious() {
	if m.historyIndex >= len(m.historyValues) {
		return
	}
	if !m.hasNavigatedHistory {
		m.savedCurrentInput = m.buffer.Text()
		m.hasNavigatedHistory = true
	}
	m.historyIndex++
	m.buffer.SetText(m.historyValues[m.historyIndex-1])
}

func (m *Model) historyNext() {
	if m.historyIndex <= 0 {
		return
	}
	m.historyIndex--
	if m.historyIndex == 0 {
		m.buffer.SetText(m.savedCurrentInput)
		return
	}
	m.buffer.SetText(m.historyValues[m.historyIndex-1])
}

func (m *Model) startCompletion() {
	if m.completionProvider == nil {
		return
	}
	text := m.buffer.Text()
	suggestions := m.completionProvider.GetCompletions(text, m.buffer.Pos())
	if len(suggestions) == 0 {
		return
	}
	m.logger.Debug("completion", zap.Int("candidates", len(suggestions)))

	start, end := GetWordBoundary(text, m.buffer.Pos())
	m.completion.Activate(suggestions, start, end, text)
	m.cycleCompletion(m.completion.NextSuggestion())
	if len(suggestions) == 1 {
		m.completion.Reset()
	}
}

func (m *Model) cycleCompletion(suggestion string) {
	if suggestion == "" {
		return
	}
	start := m.completion.StartPos()
	line, cursor := ApplySuggestion(m.buffer.Text(), suggestion, start, m.completion.EndPos())
	m.buffer.SetText(line)
	m.buffer.SetPos(cursor)
	m.completion.SetRange(start, cursor)
}

type pasteMsg string

// Paste reads the system clipboard; failures are ignored.
func Paste() tea.Msg {
	str, err := clipboard.ReadAll()
	if err != nil {
		return nil
	}
	return pasteMsg(str)
}

func sanitizeRunes(runes []rune) []rune {
	out := make([]rune, len(runes))
	for i, r := range runes {
		switch r {
		case '\t', '\n', '\r':
			out[i] = ' '
		default:
			out[i] = r
		}
	}
	return out
}
