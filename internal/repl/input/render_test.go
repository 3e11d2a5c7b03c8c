package input

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func plainConfig() RenderConfig {
	return RenderConfig{
		TextStyle:     lipgloss.NewStyle(),
		CursorStyle:   lipgloss.NewStyle(),
		SelectedStyle: lipgloss.NewStyle(),
		MenuStyle:     lipgloss.NewStyle(),
	}
}

func TestRenderInputLineWithoutCursor(t *testing.T) {
	r := NewRenderer(plainConfig())
	out := r.RenderInputLine("~$ ", NewBufferWithText("ls -la"), false)
	assert.Equal(t, "~$ ls -la", out)
}

func TestRenderInputLineWraps(t *testing.T) {
	r := NewRenderer(plainConfig())
	r.SetWidth(6)
	out := r.RenderInputLine("$ ", NewBufferWithText("abcdefgh"), false)
	assert.Equal(t, "$ abcd\nefgh", out)
}

func TestRenderInputLineIgnoresEarlierPromptLines(t *testing.T) {
	r := NewRenderer(plainConfig())
	r.SetWidth(4)
	out := r.RenderInputLine("a long first line\n$ ", NewBufferWithText("ab"), false)
	assert.Equal(t, "a long first line\n$ ab", out)
}

func TestSetWidthIgnoresNonPositive(t *testing.T) {
	r := NewRenderer(DefaultRenderConfig())
	r.SetWidth(0)
	assert.Equal(t, 80, r.Width())
	r.SetWidth(120)
	assert.Equal(t, 120, r.Width())
}

func TestRenderCompletionMenu(t *testing.T) {
	r := NewRenderer(plainConfig())
	cs := NewCompletionState()
	assert.Empty(t, r.RenderCompletionMenu(cs, 3))

	cs.Activate([]string{"a", "b", "c", "d", "e"}, 0, 0, "")
	cs.NextSuggestion()
	cs.NextSuggestion()

	menu := r.RenderCompletionMenu(cs, 3)
	assert.Equal(t, []string{"  a", "> b", "  c", "  2/5"}, strings.Split(menu, "\n"))
}

func TestVisibleWindow(t *testing.T) {
	start, end := visibleWindow(0, 3, 8)
	assert.Equal(t, [2]int{0, 3}, [2]int{start, end})

	start, end = visibleWindow(9, 10, 4)
	assert.Equal(t, [2]int{6, 10}, [2]int{start, end})

	start, end = visibleWindow(5, 10, 4)
	assert.Equal(t, [2]int{3, 7}, [2]int{start, end})
}
