// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

// Package reader implements a rune cursor over an in-memory source text.
package reader

// Reader is a forward-only cursor over a fixed rune buffer. Row and Col always
// describe the rune that the next call to Advance returns; both are 1-based.
type Reader struct {
	chars []rune
	i     int
	row   int
	col   int
}

func New(text string) *Reader {
	return &Reader{
		chars: []rune(text),
		row:   1,
		col:   1,
	}
}

// Row returns the 1-based line of the rune under the cursor.
func (r *Reader) Row() int { return r.row }

// Col returns the 1-based column of the rune under the cursor.
func (r *Reader) Col() int { return r.col }

// Offset returns the rune index of the cursor.
func (r *Reader) Offset() int { return r.i }

// EOF reports whether every rune has been consumed.
func (r *Reader) EOF() bool { return r.i >= len(r.chars) }

// Advance returns the rune under the cursor and moves past it. It returns false
// once the buffer is exhausted and may be called any number of times after that.
func (r *Reader) Advance() (rune, bool) {
	if r.i >= len(r.chars) {
		return 0, false
	}

	ch := r.chars[r.i]
	r.i++
	if ch == '\n' {
		r.row++
		r.col = 1
	} else {
		r.col++
	}
	return ch, true
}

// Peek returns the rune under the cursor without consuming it.
func (r *Reader) Peek() (rune, bool) {
	return r.PeekAt(0)
}

// PeekAt returns the rune offset positions past the cursor without consuming anything.
func (r *Reader) PeekAt(offset int) (rune, bool) {
	idx := r.i + offset
	if offset < 0 || idx >= len(r.chars) {
		return 0, false
	}
	return r.chars[idx], true
}

// Skip consumes n runes one at a time so that row and column stay correct.
func (r *Reader) Skip(n int) {
	for ; n > 0; n-- {
		if _, ok := r.Advance(); !ok {
			return
		}
	}
}

// CountRun counts the consecutive runes starting at the cursor that satisfy pred.
// The cursor does not move.
func (r *Reader) CountRun(pred func(rune) bool) int {
	n := 0
	for ch, ok := r.PeekAt(n); ok && pred(ch); ch, ok = r.PeekAt(n) {
		n++
	}
	return n
}

// ReadWhile consumes and returns runes as long as pred holds.
func (r *Reader) ReadWhile(pred func(rune) bool) string {
	n := r.CountRun(pred)
	text := string(r.chars[r.i : r.i+n])
	r.Skip(n)
	return text
}

// ReadUntil consumes and returns runes up to, not including, stop or the end of input.
func (r *Reader) ReadUntil(stop rune) string {
	return r.ReadWhile(func(ch rune) bool { return ch != stop })
}

// ReadUntilAny is ReadUntil with a set of stop runes.
func (r *Reader) ReadUntilAny(stops ...rune) string {
	return r.ReadWhile(func(ch rune) bool {
		for _, s := range stops {
			if ch == s {
				return false
			}
		}
		return true
	})
}

// Is returns a predicate matching exactly ch.
func Is(ch rune) func(rune) bool {
	return func(c rune) bool { return c == ch }
}
