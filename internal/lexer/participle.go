// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package lexer

import (
	"fmt"
	"io"

	plexer "github.com/alecthomas/participle/v2/lexer"
)

// Definition exposes the lexer to participle grammars. Token types are named after
// Kind, so grammars can match e.g. @Identifier or "unit":Keyword; the EndOfInput
// token maps to participle's EOF.
var Definition plexer.Definition = definition{}

type definition struct{}

func (definition) Symbols() map[string]plexer.TokenType {
	symbols := map[string]plexer.TokenType{"EOF": plexer.EOF}
	for k := Comment; k <= Illegal; k++ {
		if k == EndOfInput {
			continue
		}
		symbols[k.String()] = plexer.TokenType(k)
	}
	return symbols
}

func (definition) Lex(filename string, r io.Reader) (plexer.Lexer, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", filename, err)
	}
	return &participleLexer{filename: filename, lex: New(string(src))}, nil
}

type participleLexer struct {
	filename string
	lex      *Lexer
}

func (p *participleLexer) Next() (plexer.Token, error) {
	tok := p.lex.Next()
	if tok.Kind == Illegal {
		return plexer.Token{}, &plexer.Error{Msg: tok.Err.Message(), Pos: position(p.filename, tok)}
	}
	return participleToken(p.filename, tok), nil
}

// Upgrade hands already scanned tokens to a participle parser, e.g. through
// Parser.ParseFromLexer, with whitespace and comments elided. Unlike Definition
// it does not fail on Illegal tokens but passes them on. The stream ends at the
// first EndOfInput token or after the last token.
func Upgrade(filename string, tokens []Token) (*plexer.PeekingLexer, error) {
	return plexer.Upgrade(&sliceLexer{filename: filename, tokens: tokens},
		plexer.TokenType(Whitespace), plexer.TokenType(Comment))
}

type sliceLexer struct {
	filename string
	tokens   []Token
	pos      plexer.Position
}

func (s *sliceLexer) Next() (plexer.Token, error) {
	if len(s.tokens) == 0 {
		return plexer.EOFToken(s.pos), nil
	}
	tok := s.tokens[0]
	s.tokens = s.tokens[1:]
	s.pos = position(s.filename, tok)
	return participleToken(s.filename, tok), nil
}

func participleToken(filename string, tok Token) plexer.Token {
	pos := position(filename, tok)
	if tok.Kind == EndOfInput {
		return plexer.EOFToken(pos)
	}
	return plexer.Token{Type: plexer.TokenType(tok.Kind), Value: tok.Content, Pos: pos}
}

func position(filename string, tok Token) plexer.Position {
	return plexer.Position{Filename: filename, Line: tok.Row, Column: tok.Col}
}
