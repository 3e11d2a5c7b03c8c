package input

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const defaultMenuHeight = 8

// RenderConfig holds the styles used to draw the input line.
type RenderConfig struct {
	TextStyle     lipgloss.Style
	CursorStyle   lipgloss.Style
	SelectedStyle lipgloss.Style
	MenuStyle     lipgloss.Style
}

func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		TextStyle:     lipgloss.NewStyle(),
		CursorStyle:   lipgloss.NewStyle().Reverse(true),
		SelectedStyle: lipgloss.NewStyle().Bold(true),
		MenuStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Renderer draws the prompt, the edited line and the completion menu.
type Renderer struct {
	config RenderConfig
	width  int
}

func NewRenderer(config RenderConfig) *Renderer {
	return &Renderer{config: config, width: 80}
}

// SetWidth ignores non-positive widths.
func (r *Renderer) SetWidth(width int) {
	if width > 0 {
		r.width = width
	}
}

func (r *Renderer) Width() int { return r.width }

// RenderInputLine draws prompt followed by the buffer, wrapping at the
// terminal width. The prompt may already carry ANSI color codes; only its
// last line counts toward the wrap column.
func (r *Renderer) RenderInputLine(prompt string, buffer *Buffer, showCursor bool) string {
	var sb strings.Builder
	sb.WriteString(prompt)

	column := ansi.StringWidth(prompt[strings.LastIndex(prompt, "\n")+1:])
	runes := []rune(buffer.Text())
	pos := clamp(buffer.Pos(), 0, len(runes))

	write := func(s string, style lipgloss.Style) {
		w := ansi.StringWidth(s)
		if column+w > r.width {
			sb.WriteString("\n")
			column = 0
		}
		sb.WriteString(style.Render(s))
		column += w
	}

	for i, ch := range runes {
		style := r.config.TextStyle
		if showCursor && i == pos {
			style = r.config.CursorStyle
		}
		write(string(ch), style)
	}
	if showCursor && pos == len(runes) {
		write(" ", r.config.CursorStyle)
	}
	return sb.String()
}

// RenderCompletionMenu lists the candidates around the selected one, at
// most maxVisible rows, with a counter when the list is truncated.
func (r *Renderer) RenderCompletionMenu(cs *CompletionState, maxVisible int) string {
	if !cs.IsVisible() {
		return ""
	}
	if maxVisible <= 0 {
		maxVisible = defaultMenuHeight
	}

	suggestions := cs.Suggestions()
	start, end := visibleWindow(cs.Selected(), len(suggestions), maxVisible)

	lines := make([]string, 0, end-start+1)
	for i := start; i < end; i++ {
		if i == cs.Selected() {
			lines = append(lines, r.config.SelectedStyle.Render("> "+suggestions[i]))
		} else {
			lines = append(lines, r.config.MenuStyle.Render("  "+suggestions[i]))
		}
	}
	if end-start < len(suggestions) {
		counter := strconv.Itoa(cs.Selected()+1) + "/" + strconv.Itoa(len(suggestions))
		lines = append(lines, r.config.MenuStyle.Render("  "+counter))
	}
	return strings.Join(lines, "\n")
}

// RenderView is the full frame: the input line plus the open menu, if any.
func (r *Renderer) RenderView(prompt string, buffer *Buffer, cs *CompletionState) string {
	view := r.RenderInputLine(prompt, buffer, true)
	if menu := r.RenderCompletionMenu(cs, defaultMenuHeight); menu != "" {
		view += "\n" + menu
	}
	return view
}

// visibleWindow keeps the selected row inside a window of maxVisible rows.
func visibleWindow(selected, total, maxVisible int) (start, end int) {
	if total <= maxVisible {
		return 0, total
	}
	if selected < 0 {
		selected = 0
	}
	start = selected - maxVisible/2
	start = clamp(start, 0, total-maxVisible)
	return start, start + maxVisible
}
