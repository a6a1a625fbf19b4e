// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

// Package lexer turns Object Pascal source text into positioned tokens.
package lexer

import (
	"strings"
	"unicode"

	"github.com/open-edge-platform/pascal-lint/internal/reader"
)

const quote = '\''

var isQuote = reader.Is(quote)

// Lexer is a single-pass tokenizer over one source text. Every call to Next starts
// from the rune under the cursor; no state is buffered between calls.
type Lexer struct {
	r    *reader.Reader
	errs []*Error
}

func New(source string) *Lexer {
	return &Lexer{r: reader.New(source)}
}

// Errors returns the lexical errors reported so far, in source order.
func (l *Lexer) Errors() []*Error {
	return l.errs
}

// Next returns the next token. Once the input is exhausted it keeps returning an
// EndOfInput token at the final position.
func (l *Lexer) Next() Token {
	ch, ok := l.r.Peek()
	if !ok {
		return l.token(EndOfInput, "", l.r.Row(), l.r.Col())
	}

	switch {
	case unicode.IsSpace(ch):
		return l.scanWhitespace()
	case ch == quote:
		return l.scanString()
	case unicode.IsDigit(ch):
		return l.scanNumber()
	case l.atComment(ch):
		return l.scanComment()
	case isOperator(ch):
		return l.scanOperator()
	case isIdentStart(ch):
		return l.scanIdentifier()
	default:
		row, col := l.r.Row(), l.r.Col()
		l.r.Skip(1)
		return l.illegal(&Error{Kind: UnexpectedCharacter, Row: row, Col: col, Char: ch}, string(ch))
	}
}

// Tokenize drains a new Lexer over source. The returned slice ends with the
// EndOfInput token.
func Tokenize(source string) ([]Token, []*Error) {
	l := New(source)
	var tokens []Token
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Kind == EndOfInput {
			return tokens, l.Errors()
		}
	}
}

func (l *Lexer) token(kind Kind, content string, row, col int) Token {
	return Token{Kind: kind, Content: content, Row: row, Col: col}
}

func (l *Lexer) illegal(err *Error, content string) Token {
	l.errs = append(l.errs, err)
	return Token{Kind: Illegal, Content: content, Row: err.Row, Col: err.Col, Err: err}
}

func (l *Lexer) peekIs(offset int, want rune) bool {
	ch, ok := l.r.PeekAt(offset)
	return ok && ch == want
}

func (l *Lexer) atComment(ch rune) bool {
	switch ch {
	case '{':
		return true
	case '/':
		return l.peekIs(1, '/')
	}
	return false
}

func isOperator(ch rune) bool {
	return unicode.IsPunct(ch) || unicode.IsSymbol(ch)
}

func isIdentStart(ch rune) bool {
	return unicode.IsLetter(ch)
}

func isIdentPart(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

func isNumberPart(ch rune) bool {
	return unicode.IsDigit(ch) || ch == '.'
}

func (l *Lexer) scanWhitespace() Token {
	row, col := l.r.Row(), l.r.Col()
	return l.token(Whitespace, l.r.ReadWhile(unicode.IsSpace), row, col)
}

// scanNumber reads digits and dots only; exponents and $hex literals end the token.
func (l *Lexer) scanNumber() Token {
	row, col := l.r.Row(), l.r.Col()
	return l.token(Number, l.r.ReadWhile(isNumberPart), row, col)
}

func (l *Lexer) scanOperator() Token {
	row, col := l.r.Row(), l.r.Col()
	ch, _ := l.r.Advance()
	return l.token(Operator, string(ch), row, col)
}

func (l *Lexer) scanIdentifier() Token {
	row, col := l.r.Row(), l.r.Col()
	word := l.r.ReadWhile(isIdentPart)
	if IsKeyword(word) {
		return l.token(Keyword, word, row, col)
	}
	return l.token(Identifier, word, row, col)
}

func (l *Lexer) scanComment() Token {
	row, col := l.r.Row(), l.r.Col()
	ch, _ := l.r.Advance()

	switch ch {
	case '/':
		l.r.Skip(1)
		content := l.r.ReadWhile(func(c rune) bool { return c != '\n' && c != '\r' })
		return l.token(Comment, content, row, col)
	default:
		content := l.r.ReadUntil('}')
		if _, ok := l.r.Advance(); !ok {
			return l.illegal(&Error{Kind: UnterminatedComment, Row: row, Col: col}, content)
		}
		return l.token(Comment, content, row, col)
	}
}

// scanString handles every literal that starts with an apostrophe. The length of
// the opening quote run decides the form:
//
//	even        the run is the whole literal: '' is empty, '''' is one quote
//	odd, >= 3   a fence when a line break follows, otherwise escaped quotes + opener
//	1           an ordinary single-line literal
func (l *Lexer) scanString() Token {
	row, col := l.r.Row(), l.r.Col()
	n := l.r.CountRun(isQuote)

	if n%2 == 0 {
		l.r.Skip(n)
		return l.token(String, strings.Repeat(string(quote), n/2-1), row, col)
	}

	if n >= 3 && l.lineBreakAt(n) {
		return l.scanFenced(n, row, col)
	}

	l.r.Skip(n)
	var b strings.Builder
	b.WriteString(strings.Repeat(string(quote), n/2))
	for {
		b.WriteString(l.r.ReadUntil(quote))

		m := l.r.CountRun(isQuote)
		if m == 0 {
			return l.illegal(&Error{Kind: UnterminatedString, Row: row, Col: col}, b.String())
		}
		l.r.Skip(m)
		b.WriteString(strings.Repeat(string(quote), m/2))
		if m%2 == 1 {
			return l.token(String, b.String(), row, col)
		}
	}
}

// scanFenced reads a multi-line literal closed by a line starting with exactly
// fence apostrophes. The indentation of the first content line is removed from
// every line, and the line break before the closing fence is dropped.
func (l *Lexer) scanFenced(fence, row, col int) Token {
	l.r.Skip(fence)
	l.skipLineBreak()

	indent := l.r.CountRun(reader.Is(' '))
	var lines []string
	for {
		l.r.Skip(min(indent, l.r.CountRun(reader.Is(' '))))

		if l.r.CountRun(isQuote) == fence {
			l.r.Skip(fence)
			return l.token(String, strings.Join(lines, "\n"), row, col)
		}
		if l.r.EOF() {
			return l.illegal(&Error{Kind: UnterminatedString, Row: row, Col: col}, strings.Join(lines, "\n"))
		}

		lines = append(lines, l.fencedLine())
		l.skipLineBreak()
	}
}

// fencedLine reads the rest of a physical line inside a fence. Even quote runs
// are unescaped; odd runs cannot close the literal here and are kept as written.
func (l *Lexer) fencedLine() string {
	var b strings.Builder
	for {
		b.WriteString(l.r.ReadUntilAny(quote, '\n'))

		m := l.r.CountRun(isQuote)
		if m == 0 {
			break
		}
		l.r.Skip(m)
		if m%2 == 0 {
			m /= 2
		}
		b.WriteString(strings.Repeat(string(quote), m))
	}
	return strings.TrimSuffix(b.String(), "\r")
}

func (l *Lexer) lineBreakAt(offset int) bool {
	return l.peekIs(offset, '\n') || (l.peekIs(offset, '\r') && l.peekIs(offset+1, '\n'))
}

func (l *Lexer) skipLineBreak() {
	if l.peekIs(0, '\r') && l.peekIs(1, '\n') {
		l.r.Skip(2)
		return
	}
	if l.peekIs(0, '\n') {
		l.r.Skip(1)
	}
}
