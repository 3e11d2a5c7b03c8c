package input

import "unicode"

// Buffer holds the line being edited as runes plus the cursor position.
type Buffer struct {
	runes []rune
	pos   int
}

func NewBuffer() *Buffer {
	return &Buffer{runes: []rune{}}
}

// NewBufferWithText creates a buffer holding text with the cursor at the end.
func NewBufferWithText(text string) *Buffer {
	b := NewBuffer()
	b.SetText(text)
	return b
}

func (b *Buffer) Text() string { return string(b.runes) }

func (b *Buffer) Len() int { return len(b.runes) }

func (b *Buffer) Pos() int { return b.pos }

// SetText replaces the content and moves the cursor to the end.
func (b *Buffer) SetText(text string) {
	b.runes = []rune(text)
	b.pos = len(b.runes)
}

func (b *Buffer) Clear() {
	b.runes = []rune{}
	b.pos = 0
}

// SetPos moves the cursor, clamped to [0, Len()].
func (b *Buffer) SetPos(pos int) {
	b.pos = clamp(pos, 0, len(b.runes))
}

func (b *Buffer) CursorStart() { b.pos = 0 }

func (b *Buffer) CursorEnd() { b.pos = len(b.runes) }

// InsertRunes inserts at the cursor and leaves the cursor after the insertion.
func (b *Buffer) InsertRunes(runes []rune) {
	if len(runes) == 0 {
		return
	}
	out := make([]rune, 0, len(b.runes)+len(runes))
	out = append(out, b.runes[:b.pos]...)
	out = append(out, runes...)
	out = append(out, b.runes[b.pos:]...)
	b.runes = out
	b.pos += len(runes)
}

func (b *Buffer) Insert(text string) { b.InsertRunes([]rune(text)) }

// DeleteCharBackward removes the rune before the cursor.
func (b *Buffer) DeleteCharBackward() bool {
	if b.pos == 0 {
		return false
	}
	b.deleteRange(b.pos-1, b.pos)
	return true
}

// DeleteCharForward removes the rune under the cursor.
func (b *Buffer) DeleteCharForward() bool {
	if b.pos >= len(b.runes) {
		return false
	}
	b.deleteRange(b.pos, b.pos+1)
	return true
}

func (b *Buffer) DeleteBeforeCursor() { b.deleteRange(0, b.pos) }

func (b *Buffer) DeleteAfterCursor() { b.deleteRange(b.pos, len(b.runes)) }

func (b *Buffer) DeleteWordBackward() {
	end := b.pos
	b.WordBackward()
	b.deleteRange(b.pos, end)
}

func (b *Buffer) DeleteWordForward() {
	start := b.pos
	b.WordForward()
	b.deleteRange(start, b.pos)
}

// WordBackward moves to the start of the previous whitespace-delimited word.
func (b *Buffer) WordBackward() {
	i := b.pos
	for i > 0 && unicode.IsSpace(b.runes[i-1]) {
		i--
	}
	for i > 0 && !unicode.IsSpace(b.runes[i-1]) {
		i--
	}
	b.pos = i
}

// WordForward moves past the end of the next whitespace-delimited word.
func (b *Buffer) WordForward() {
	i := b.pos
	for i < len(b.runes) && unicode.IsSpace(b.runes[i]) {
		i++
	}
	for i < len(b.runes) && !unicode.IsSpace(b.runes[i]) {
		i++
	}
	b.pos = i
}

func (b *Buffer) TextBeforeCursor() string { return string(b.runes[:b.pos]) }

func (b *Buffer) TextAfterCursor() string { return string(b.runes[b.pos:]) }

// deleteRange removes runes in [start, end) and leaves the cursor at start.
func (b *Buffer) deleteRange(start, end int) {
	start = clamp(start, 0, len(b.runes))
	end = clamp(end, start, len(b.runes))
	if start == end {
		return
	}
	b.runes = append(b.runes[:start:start], b.runes[end:]...)
	b.pos = start
}

func clamp(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
