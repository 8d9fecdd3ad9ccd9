package selection

import (
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/words"
)

// Buffer is the query input buffer: a codepoint array plus a cursor,
// generalized from peco's split Query/Caret pair into one type since
// every edit moves both together.
type Buffer struct {
	mutex sync.Mutex
	runes []rune
	pos   int
}

// NewBuffer creates an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// String returns the current buffer contents.
func (b *Buffer) String() string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return string(b.runes)
}

// Len returns the number of codepoints in the buffer.
func (b *Buffer) Len() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.runes)
}

// Pos returns the current cursor position, in codepoints.
func (b *Buffer) Pos() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.pos
}

// Set replaces the buffer contents and moves the cursor to the end,
// used by history navigation to swap in an adjacent entry.
func (b *Buffer) Set(s string) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.runes = []rune(s)
	b.pos = len(b.runes)
}

// Reset empties the buffer.
func (b *Buffer) Reset() {
	b.Set("")
}

// InsertRune inserts ch at the cursor and advances the cursor by one.
func (b *Buffer) InsertRune(ch rune) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.insertAt(ch, b.pos)
	b.pos++
}

func (b *Buffer) insertAt(ch rune, where int) {
	if where == len(b.runes) {
		b.runes = append(b.runes, ch)
		return
	}
	buf := make([]rune, len(b.runes)+1)
	copy(buf, b.runes[:where])
	buf[where] = ch
	copy(buf[where+1:], b.runes[where:])
	b.runes = buf
}

// DeletePrevChar deletes the codepoint before the cursor, if any.
func (b *Buffer) DeletePrevChar() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.pos == 0 {
		return
	}
	b.deleteRange(b.pos-1, b.pos)
	b.pos--
}

// DeleteNextChar deletes the codepoint at the cursor, if any.
func (b *Buffer) DeleteNextChar() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.pos >= len(b.runes) {
		return
	}
	b.deleteRange(b.pos, b.pos+1)
}

// DeleteLine clears the entire buffer and resets the cursor to 0.
func (b *Buffer) DeleteLine() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.runes = nil
	b.pos = 0
}

// DeletePrevWord deletes from the start of the previous word up to the
// cursor.
func (b *Buffer) DeletePrevWord() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	start := prevWordBoundary(b.runes, b.pos)
	b.deleteRange(start, b.pos)
	b.pos = start
}

func (b *Buffer) deleteRange(start, end int) {
	if start < 0 {
		start = 0
	}
	if end > len(b.runes) {
		end = len(b.runes)
	}
	if start >= end {
		return
	}
	copy(b.runes[start:], b.runes[end:])
	b.runes = b.runes[:len(b.runes)-(end-start)]
}

// MoveToPrevChar moves the cursor left by one codepoint.
func (b *Buffer) MoveToPrevChar() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.pos > 0 {
		b.pos--
	}
}

// MoveToNextChar moves the cursor right by one codepoint.
func (b *Buffer) MoveToNextChar() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.pos < len(b.runes) {
		b.pos++
	}
}

// MoveToStart moves the cursor to the beginning of the buffer.
func (b *Buffer) MoveToStart() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.pos = 0
}

// MoveToEnd moves the cursor to the end of the buffer.
func (b *Buffer) MoveToEnd() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.pos = len(b.runes)
}

// prevWordBoundary returns the index of the start of the word segment
// immediately before pos, using UAX #29 word-boundary segmentation so
// combining marks and multi-codepoint graphemes move as one unit instead
// of the rough letter-or-digit test a naive scan would use.
func prevWordBoundary(runes []rune, pos int) int {
	if pos == 0 {
		return 0
	}

	seg := words.NewSegmenter([]byte(string(runes[:pos])))
	lastStart := 0
	runeOffset := 0
	for seg.Next() {
		tok := seg.Value()
		if !isAllSpace(tok) {
			lastStart = runeOffset
		}
		runeOffset += utf8.RuneCount(tok)
	}
	return lastStart
}

func isAllSpace(tok []byte) bool {
	for _, r := range string(tok) {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
