package input

import "unicode"

// CompletionProvider suggests replacements for the word under the cursor.
// pos is a rune offset into line.
type CompletionProvider interface {
	GetCompletions(line string, pos int) []string
}

// CompletionState tracks an open completion menu: the candidates, the
// selected entry and the rune range of the line being replaced.
type CompletionState struct {
	active       bool
	suggestions  []string
	selected     int
	startPos     int
	endPos       int
	originalText string
}

func NewCompletionState() *CompletionState {
	return &CompletionState{selected: -1}
}

func (cs *CompletionState) Reset() {
	*cs = CompletionState{selected: -1}
}

func (cs *CompletionState) Activate(suggestions []string, startPos, endPos int, originalText string) {
	cs.active = true
	cs.suggestions = suggestions
	cs.selected = -1
	cs.startPos = startPos
	cs.endPos = endPos
	cs.originalText = originalText
}

func (cs *CompletionState) IsActive() bool { return cs.active }

// IsVisible reports whether there is a menu worth drawing.
func (cs *CompletionState) IsVisible() bool {
	return cs.active && len(cs.suggestions) > 1
}

func (cs *CompletionState) Suggestions() []string { return cs.suggestions }

func (cs *CompletionState) Selected() int { return cs.selected }

func (cs *CompletionState) StartPos() int { return cs.startPos }

func (cs *CompletionState) EndPos() int { return cs.endPos }

// NextSuggestion advances the selection, wrapping at the end.
func (cs *CompletionState) NextSuggestion() string {
	if !cs.active || len(cs.suggestions) == 0 {
		return ""
	}
	cs.selected = (cs.selected + 1) % len(cs.suggestions)
	return cs.suggestions[cs.selected]
}

// PrevSuggestion moves the selection back, wrapping at the start.
func (cs *CompletionState) PrevSuggestion() string {
	if !cs.active || len(cs.suggestions) == 0 {
		return ""
	}
	cs.selected--
	if cs.selected < 0 {
		cs.selected = len(cs.suggestions) - 1
	}
	return cs.suggestions[cs.selected]
}

// SetRange records where the last applied suggestion now sits.
func (cs *CompletionState) SetRange(startPos, endPos int) {
	cs.startPos = startPos
	cs.endPos = endPos
}

// Cancel closes the menu and returns the line as it was before completion.
func (cs *CompletionState) Cancel() string {
	original := cs.originalText
	cs.Reset()
	return original
}

// GetWordBoundary returns the rune range of the whitespace-delimited word
// touching cursorPos.
func GetWordBoundary(text string, cursorPos int) (start, end int) {
	runes := []rune(text)
	cursorPos = clamp(cursorPos, 0, len(runes))

	start = cursorPos
	for start > 0 && !unicode.IsSpace(runes[start-1]) {
		start--
	}
	end = cursorPos
	for end < len(runes) && !unicode.IsSpace(runes[end]) {
		end++
	}
	return start, end
}

// ApplySuggestion replaces the runes in [startPos, endPos) with suggestion
// and returns the new line and the cursor position after the suggestion.
func ApplySuggestion(text, suggestion string, startPos, endPos int) (string, int) {
	runes := []rune(text)
	endPos = clamp(endPos, 0, len(runes))
	startPos = clamp(startPos, 0, endPos)

	out := make([]rune, 0, len(runes)+len(suggestion))
	out = append(out, runes[:startPos]...)
	out = append(out, []rune(suggestion)...)
	out = append(out, runes[endPos:]...)
	return string(out), startPos + len([]rune(suggestion))
}
