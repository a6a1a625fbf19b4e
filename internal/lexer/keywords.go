// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package lexer

import "slices"

// Reserved words and directives of Delphi, matched exactly as written.
var keywords = map[string]struct{}{}

var keywordList = []string{
	"absolute", "abstract", "and", "array", "as", "asm", "assembler", "automated",
	"begin",
	"case", "cdecl", "class", "const", "constructor", "contains",
	"default", "destructor", "dispid", "dispinterface", "div", "do", "downto", "dynamic",
	"else", "end", "except", "export", "exports", "external",
	"far", "file", "final", "finalization", "finally", "for", "forward", "function",
	"goto",
	"if", "implementation", "implements", "in", "index", "inherited", "initialization",
	"inline", "interface", "is",
	"label", "library",
	"message", "mod",
	"name", "near", "nil", "not",
	"object", "of", "on", "or", "out", "overload", "override",
	"package", "packed", "pascal", "platform", "private", "procedure", "program",
	"property", "protected", "public", "published",
	"raise", "read", "record", "register", "reintroduce", "repeat", "requires",
	"resident", "resourcestring",
	"safecall", "set", "shl", "shr", "stdcall", "stored", "string",
	"then", "threadvar", "to", "try", "type",
	"unit", "unsafe", "until", "uses",
	"var", "virtual",
	"while", "with", "write",
	"xor",
}

func init() {
	for _, kw := range keywordList {
		keywords[kw] = struct{}{}
	}
}

// IsKeyword reports whether word is a reserved word. The lookup is case-sensitive.
func IsKeyword(word string) bool {
	_, ok := keywords[word]
	return ok
}

// Keywords returns a sorted copy of the keyword table.
func Keywords() []string {
	out := slices.Clone(keywordList)
	slices.Sort(out)
	return out
}
