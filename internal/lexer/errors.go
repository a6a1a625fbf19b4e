// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package lexer

import "fmt"

type ErrorKind int

const (
	UnexpectedCharacter ErrorKind = iota
	UnterminatedString
	UnterminatedComment
)

func (k ErrorKind) String() string {
	switch k {
	case UnexpectedCharacter:
		return "UnexpectedCharacter"
	case UnterminatedString:
		return "UnterminatedString"
	case UnterminatedComment:
		return "UnterminatedComment"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a recoverable lexical error. For unterminated constructs the position
// is the one of the opening delimiter.
type Error struct {
	Kind ErrorKind
	Row  int
	Col  int

	// Char is the offending rune for UnexpectedCharacter.
	Char rune
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Row, e.Col, e.Message())
}

// Message describes the error without its position.
func (e *Error) Message() string {
	switch e.Kind {
	case UnexpectedCharacter:
		return fmt.Sprintf("unexpected character %q", e.Char)
	case UnterminatedString:
		return "unterminated string literal"
	case UnterminatedComment:
		return "unterminated comment"
	default:
		return e.Kind.String()
	}
}
