// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package lexer

import "fmt"

type Kind int

const (
	Comment Kind = iota
	String
	Number
	// ConditionalCompilation is reserved for {$...} directives. The lexer does not produce it yet.
	ConditionalCompilation
	Operator
	Keyword
	Identifier
	Whitespace
	EndOfInput

	// Illegal carries a lexical error; see Token.Err.
	Illegal
)

var kindNames = [...]string{
	Comment:                "Comment",
	String:                 "String",
	Number:                 "Number",
	ConditionalCompilation: "ConditionalCompilation",
	Operator:               "Operator",
	Keyword:                "Keyword",
	Identifier:             "Identifier",
	Whitespace:             "Whitespace",
	EndOfInput:             "EndOfInput",
	Illegal:                "Illegal",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// IsTrivia reports whether tokens of this kind carry no syntax.
func (k Kind) IsTrivia() bool {
	return k == Whitespace || k == Comment
}

// Token is one classified unit of source text. Content holds the decoded value:
// string literals are unescaped and comments have their delimiters stripped.
// Row and Col point at the first rune of the token in the source.
type Token struct {
	Kind    Kind
	Content string
	Row     int
	Col     int

	// Err is set only for Illegal tokens.
	Err *Error
}

func (t Token) String() string {
	return fmt.Sprintf("%d:%d %s %q", t.Row, t.Col, t.Kind, t.Content)
}

// Is reports whether the token has the given kind and content.
func (t Token) Is(kind Kind, content string) bool {
	return t.Kind == kind && t.Content == content
}
