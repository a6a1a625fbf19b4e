// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package parser

import (
	"errors"
	"fmt"

	"github.com/alecthomas/participle/v2"
	plexer "github.com/alecthomas/participle/v2/lexer"

	"github.com/open-edge-platform/pascal-lint/internal/lexer"
)

// UsesClause is a "uses A, B.C;" clause of the interface or implementation section.
type UsesClause struct {
	Pos   plexer.Position
	Units []*UsedUnit `"uses":Keyword @@ ( "," @@ )* ";"`
}

type UsedUnit struct {
	Pos plexer.Position
	// Name is the possibly dotted unit name, e.g. "System.SysUtils".
	Name string `@Identifier ( @"." @Identifier )*`
}

var usesParser = participle.MustBuild[UsesClause](participle.Lexer(lexer.Definition))

// Uses collects the uses clauses from tokens, as returned by lexer.Tokenize. A
// malformed clause is skipped and reported in the joined error; the clauses
// that parsed are returned regardless.
func Uses(filename string, tokens []lexer.Token) ([]*UsesClause, error) {
	var (
		clauses []*UsesClause
		errs    []error
	)
	for i, tok := range tokens {
		if !tok.Is(lexer.Keyword, "uses") {
			continue
		}

		peek, err := lexer.Upgrade(filename, tokens[i:])
		if err != nil {
			return clauses, fmt.Errorf("failed to read tokens: %w", err)
		}
		clause, err := usesParser.ParseFromLexer(peek, participle.AllowTrailing(true))
		if err != nil {
			errs = append(errs, fmt.Errorf("malformed uses clause: %w", err))
			continue
		}
		clauses = append(clauses, clause)
	}
	return clauses, errors.Join(errs...)
}

// UnitNames flattens the clauses into the used unit names, in source order.
func UnitNames(clauses []*UsesClause) []string {
	var names []string
	for _, c := range clauses {
		for _, u := range c.Units {
			names = append(names, u.Name)
		}
	}
	return names
}
