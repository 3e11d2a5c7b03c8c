package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCompletions []string

func (s staticCompletions) GetCompletions(line string, pos int) []string {
	return s
}

func press(t *testing.T, m Model, msgs ...tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func typed(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelSubmit(t *testing.T) {
	m, cmd := press(t, New(Config{Prompt: "$ "}), typed("echo"), tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}, typed("hi"), tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.Equal(t, ResultSubmit, m.Result().Type)
	assert.Equal(t, "echo hi", m.Result().Value)
	assert.Equal(t, "$ echo hi", m.View())
}

func TestModelInterrupt(t *testing.T) {
	m, _ := press(t, New(Config{}), typed("partial"), tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.Equal(t, Result{Type: ResultInterrupt}, m.Result())
}

func TestModelCtrlD(t *testing.T) {
	m, _ := press(t, New(Config{}), typed("ab"), tea.KeyMsg{Type: tea.KeyLeft}, tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.Equal(t, ResultNone, m.Result().Type)
	assert.Equal(t, "a", m.Value())

	m, _ = press(t, New(Config{}), tea.KeyMsg{Type: tea.KeyCtrlD})
	assert.Equal(t, ResultEOF, m.Result().Type)
}

func TestModelSanitizesPaste(t *testing.T) {
	m, _ := press(t, New(Config{}), typed("a\tb\nc"))
	assert.Equal(t, "a b c", m.Value())

	next, _ := m.Update(pasteMsg("\r\nd"))
	assert.Equal(t, "a b c  d", next.(Model).Value())
}

func TestModelHistoryNavigation(t *testing.T) {
	m := New(Config{HistoryValues: []string{"newest", "older"}})
	m, _ = press(t, m, typed("draft"))

	up := tea.KeyMsg{Type: tea.KeyUp}
	down := tea.KeyMsg{Type: tea.KeyDown}

	m, _ = press(t, m, up)
	assert.Equal(t, "newest", m.Value())
	m, _ = press(t, m, up)
	assert.Equal(t, "older", m.Value())
	m, _ = press(t, m, up)
	assert.Equal(t, "older", m.Value())

	m, _ = press(t, m, down)
	assert.Equal(t, "newest", m.Value())
	m, _ = press(t, m, down)
	assert.Equal(t, "draft", m.Value())
	m, _ = press(t, m, down)
	assert.Equal(t, "draft", m.Value())
}

func TestModelSingleCompletionApplies(t *testing.T) {
	m := New(Config{CompletionProvider: staticCompletions{"history"}})
	m, _ = press(t, m, typed("hist"), tea.KeyMsg{Type: tea.KeyTab})

	assert.Equal(t, "history", m.Value())
	assert.False(t, m.Completion().IsActive())
}

func TestModelCompletionCycleAndCancel(t *testing.T) {
	m := New(Config{CompletionProvider: staticCompletions{"which", "while"}})
	m, _ = press(t, m, typed("wh"), tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "which", m.Value())
	assert.True(t, m.Completion().IsVisible())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "while", m.Value())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, "which", m.Value())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, "wh", m.Value())
	assert.False(t, m.Completion().IsActive())
}

func TestModelCompletionKeepsRestOfLine(t *testing.T) {
	m := New(Config{CompletionProvider: staticCompletions{"Documents/"}})
	m.SetValue("cd Doc && ls")
	m.Buffer().SetPos(6)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "cd Documents/ && ls", m.Value())
	assert.Equal(t, 13, m.Buffer().Pos())
}

func TestModelNoProvider(t *testing.T) {
	m, _ := press(t, New(Config{}), typed("ls"), tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "ls", m.Value())
}
