// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

// Package parser checks the skeleton of a Delphi unit: "unit NAME; ... end.".
// It consumes tokens from the lexer and does not build a syntax tree.
package parser

import (
	"fmt"

	"github.com/open-edge-platform/pascal-lint/internal/lexer"
)

// TokenSource yields tokens in source order. Once EndOfInput is returned it keeps
// returning it. *lexer.Lexer is a TokenSource.
type TokenSource interface {
	Next() lexer.Token
	Errors() []*lexer.Error
}

type Parser struct {
	src TokenSource
	buf struct {
		tok         lexer.Token
		isUnscanned bool
	}
}

func New(source string) *Parser {
	return NewFromLexer(lexer.New(source))
}

func NewFromLexer(lex *lexer.Lexer) *Parser {
	return &Parser{src: lex}
}

// NewFromTokens parses an already tokenized source, e.g. the result of
// lexer.Tokenize, without lexing it again.
func NewFromTokens(tokens []lexer.Token, errs []*lexer.Error) *Parser {
	return &Parser{src: &tokenSlice{tokens: tokens, errs: errs}}
}

type tokenSlice struct {
	tokens []lexer.Token
	errs   []*lexer.Error
	i      int
}

func (s *tokenSlice) Next() lexer.Token {
	if s.i < len(s.tokens) {
		tok := s.tokens[s.i]
		if tok.Kind != lexer.EndOfInput {
			s.i++
		}
		return tok
	}
	// A slice without a trailing EndOfInput ends after its last token.
	if len(s.tokens) == 0 {
		return lexer.Token{Kind: lexer.EndOfInput, Row: 1, Col: 1}
	}
	last := s.tokens[len(s.tokens)-1]
	return lexer.Token{Kind: lexer.EndOfInput, Row: last.Row, Col: last.Col}
}

// Errors returns the diagnostics of the tokens handed out so far, matching
// what a *lexer.Lexer reports at the same point.
func (s *tokenSlice) Errors() []*lexer.Error {
	n := 0
	for _, tok := range s.tokens[:s.i] {
		if tok.Kind == lexer.Illegal {
			n++
		}
	}
	return s.errs[:min(n, len(s.errs))]
}

// File is the result of a successful header check.
type File struct {
	// Unit is the identifier token naming the unit.
	Unit lexer.Token

	// Diagnostics holds the recoverable lexical errors seen while parsing.
	Diagnostics []*lexer.Error
}

// UnexpectedTokenError is returned when the token stream does not match the
// unit skeleton. An empty ExpectedContent accepts any content.
type UnexpectedTokenError struct {
	Expected        lexer.Kind
	ExpectedContent string
	Found           lexer.Token
}

func (e *UnexpectedTokenError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Found.Row, e.Found.Col, e.Message())
}

// Message describes the mismatch without its position.
func (e *UnexpectedTokenError) Message() string {
	return fmt.Sprintf("expected %s, found %s", describe(e.Expected, e.ExpectedContent), describe(e.Found.Kind, e.Found.Content))
}

// Unwrap exposes the lexical error when the offending token is Illegal.
func (e *UnexpectedTokenError) Unwrap() error {
	if e.Found.Err == nil {
		return nil
	}
	return e.Found.Err
}

func describe(kind lexer.Kind, content string) string {
	if content == "" {
		return kind.String()
	}
	return fmt.Sprintf("%s %q", kind, content)
}

func (p *Parser) scan() lexer.Token {
	if p.buf.isUnscanned {
		p.buf.isUnscanned = false
		return p.buf.tok
	}

	p.buf.tok = p.src.Next()
	return p.buf.tok
}

func (p *Parser) unscan() { p.buf.isUnscanned = true }

// Last returns the most recently scanned token without consuming another one.
func (p *Parser) Last() lexer.Token { return p.buf.tok }

func (p *Parser) scanSkipTrivia() lexer.Token {
	for {
		tok := p.scan()
		if !tok.Kind.IsTrivia() {
			return tok
		}
	}
}

func (p *Parser) expect(kind lexer.Kind, content string) (lexer.Token, error) {
	tok := p.scanSkipTrivia()
	if tok.Kind != kind || (content != "" && tok.Content != content) {
		p.unscan()
		return tok, &UnexpectedTokenError{Expected: kind, ExpectedContent: content, Found: tok}
	}
	return tok, nil
}

// skipUntil discards tokens up to and including the first one matching kind and
// content. Reaching the end of input first is an error.
func (p *Parser) skipUntil(kind lexer.Kind, content string) error {
	for {
		tok := p.scanSkipTrivia()
		switch {
		case tok.Is(kind, content):
			return nil
		case tok.Kind == lexer.EndOfInput:
			p.unscan()
			return &UnexpectedTokenError{Expected: kind, ExpectedContent: content, Found: tok}
		}
	}
}

// parseEnd requires the last two significant tokens of the file to be "end" ".".
func (p *Parser) parseEnd() error {
	var prev, last lexer.Token
	seen := 0
	for {
		tok := p.scanSkipTrivia()
		if tok.Kind == lexer.EndOfInput {
			break
		}
		prev, last = last, tok
		seen++
	}

	switch {
	case seen == 0:
		return &UnexpectedTokenError{Expected: lexer.Keyword, ExpectedContent: "end", Found: p.Last()}
	case !last.Is(lexer.Operator, "."):
		return &UnexpectedTokenError{Expected: lexer.Operator, ExpectedContent: ".", Found: last}
	case seen < 2 || !prev.Is(lexer.Keyword, "end"):
		found := prev
		if seen < 2 {
			found = last
		}
		return &UnexpectedTokenError{Expected: lexer.Keyword, ExpectedContent: "end", Found: found}
	}
	return nil
}

// ParseFile validates "unit NAME ; ... end .". Everything between the unit name and
// the first ";" is skipped, as is everything between that ";" and the final "end.".
func (p *Parser) ParseFile() (*File, error) {
	if _, err := p.expect(lexer.Keyword, "unit"); err != nil {
		return nil, err
	}

	name, err := p.expect(lexer.Identifier, "")
	if err != nil {
		return nil, err
	}

	if err := p.skipUntil(lexer.Operator, ";"); err != nil {
		return nil, err
	}

	if err := p.parseEnd(); err != nil {
		return nil, err
	}

	return &File{Unit: name, Diagnostics: p.src.Errors()}, nil
}
