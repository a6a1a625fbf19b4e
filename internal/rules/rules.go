// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v2"

	"github.com/open-edge-platform/pascal-lint/internal/lexer"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

func (s Severity) Validate() error {
	switch s {
	case SeverityError:
	case SeverityWarning:
	case SeverityInfo:
	default:
		return fmt.Errorf("unknown severity: %q", s)
	}
	return nil
}

const (
	TrailingWhitespace = "trailing-whitespace"
	NoTabs             = "no-tabs"
	MaxLineLength      = "max-line-length"
	KeywordCase        = "keyword-case"
	EmptyComment       = "empty-comment"

	// Lexical and Syntax name findings that do not come from a configurable rule.
	Lexical = "lexical"
	Syntax  = "syntax"
)

const defaultMaxLineLength = 120

// Rule enables one check with a severity and check specific options.
type Rule struct {
	Name     string         `yaml:"name"`
	Severity Severity       `yaml:"severity"`
	Options  map[string]int `yaml:"options,omitempty"`
}

// RuleSet represents a deserialized rule set file.
type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// Finding is a single rule violation at a 1-based position.
type Finding struct {
	Rule     string   `json:"rule" yaml:"rule"`
	Severity Severity `json:"severity" yaml:"severity"`
	Message  string   `json:"message" yaml:"message"`
	Row      int      `json:"row" yaml:"row"`
	Col      int      `json:"col" yaml:"col"`
}

type checkFunc func(rule Rule, src string, tokens []lexer.Token) []Finding

var checks = map[string]checkFunc{
	TrailingWhitespace: checkTrailingWhitespace,
	NoTabs:             checkNoTabs,
	MaxLineLength:      checkMaxLineLength,
	KeywordCase:        checkKeywordCase,
	EmptyComment:       checkEmptyComment,
}

// DefaultRuleSet enables every check with its default severity.
func DefaultRuleSet() *RuleSet {
	return &RuleSet{Rules: []Rule{
		{Name: TrailingWhitespace, Severity: SeverityWarning},
		{Name: NoTabs, Severity: SeverityInfo},
		{Name: MaxLineLength, Severity: SeverityWarning, Options: map[string]int{"max": defaultMaxLineLength}},
		{Name: KeywordCase, Severity: SeverityInfo},
		{Name: EmptyComment, Severity: SeverityInfo},
	}}
}

// LoadRuleSet loads and validates a rule set from the file specified by its path.
func LoadRuleSet(filePath string) (*RuleSet, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %q: %w", filePath, err)
	}
	return ParseRuleSet(data)
}

func ParseRuleSet(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.UnmarshalStrict(data, &rs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rule set: %w", err)
	}
	if err := rs.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate rule set: %w", err)
	}
	return &rs, nil
}

func (rs *RuleSet) Validate() error {
	if len(rs.Rules) == 0 {
		return errors.New("rule set is empty")
	}

	seen := make(map[string]bool, len(rs.Rules))
	for _, r := range rs.Rules {
		if _, ok := checks[r.Name]; !ok {
			return fmt.Errorf("unknown rule: %q", r.Name)
		}
		if seen[r.Name] {
			return fmt.Errorf("duplicated rule: %q", r.Name)
		}
		seen[r.Name] = true

		if err := r.Severity.Validate(); err != nil {
			return fmt.Errorf("invalid rule %q: %w", r.Name, err)
		}
		for k, v := range r.Options {
			if v <= 0 {
				return fmt.Errorf("invalid rule %q: option %q must be positive", r.Name, k)
			}
		}
	}
	return nil
}

// Marshal returns the YAML representation of the rule set.
func (rs *RuleSet) Marshal() (string, error) {
	out, err := yaml.Marshal(rs)
	if err != nil {
		return "", fmt.Errorf("failed to marshal rule set: %w", err)
	}
	return string(out), nil
}

// Check runs every rule of the set over a token stream produced from src.
// Findings are grouped by rule in rule set order.
func (rs *RuleSet) Check(src string, tokens []lexer.Token) []Finding {
	var findings []Finding
	for _, r := range rs.Rules {
		check, ok := checks[r.Name]
		if !ok {
			continue
		}
		findings = append(findings, check(r, src, tokens)...)
	}
	return findings
}

func (r Rule) finding(row, col int, format string, args ...any) Finding {
	return Finding{Rule: r.Name, Severity: r.Severity, Message: fmt.Sprintf(format, args...), Row: row, Col: col}
}

func (r Rule) option(name string, def int) int {
	if v, ok := r.Options[name]; ok {
		return v
	}
	return def
}

func checkTrailingWhitespace(rule Rule, _ string, tokens []lexer.Token) []Finding {
	var findings []Finding
	for i, tok := range tokens {
		if tok.Kind != lexer.Whitespace {
			continue
		}

		row, col := tok.Row, tok.Col
		blankRow, blankCol := 0, 0
		for _, ch := range tok.Content {
			switch ch {
			case ' ', '\t':
				if blankRow == 0 {
					blankRow, blankCol = row, col
				}
			case '\r':
			case '\n':
				if blankRow != 0 {
					findings = append(findings, rule.finding(blankRow, blankCol, "trailing whitespace"))
				}
				blankRow = 0
				row++
				col = 1
				continue
			default:
				blankRow = 0
			}
			col++
		}

		atEnd := i+1 < len(tokens) && tokens[i+1].Kind == lexer.EndOfInput
		if atEnd && blankRow != 0 {
			findings = append(findings, rule.finding(blankRow, blankCol, "trailing whitespace"))
		}
	}
	return findings
}

func checkNoTabs(rule Rule, _ string, tokens []lexer.Token) []Finding {
	var findings []Finding
	for _, tok := range tokens {
		if tok.Kind != lexer.Whitespace {
			continue
		}

		row, col := tok.Row, tok.Col
		for _, ch := range tok.Content {
			if ch == '\t' {
				findings = append(findings, rule.finding(row, col, "tab character used for whitespace"))
				break
			}
			if ch == '\n' {
				row++
				col = 1
				continue
			}
			col++
		}
	}
	return findings
}

func checkMaxLineLength(rule Rule, src string, _ []lexer.Token) []Finding {
	limit := rule.option("max", defaultMaxLineLength)

	var findings []Finding
	for i, line := range strings.Split(src, "\n") {
		n := utf8.RuneCountInString(strings.TrimSuffix(line, "\r"))
		if n > limit {
			findings = append(findings, rule.finding(i+1, limit+1, "line is %d characters long, limit is %d", n, limit))
		}
	}
	return findings
}

func checkKeywordCase(rule Rule, _ string, tokens []lexer.Token) []Finding {
	var findings []Finding
	for _, tok := range tokens {
		if tok.Kind != lexer.Identifier {
			continue
		}
		lower := strings.ToLower(tok.Content)
		if lower != tok.Content && lexer.IsKeyword(lower) {
			findings = append(findings, rule.finding(tok.Row, tok.Col, "keyword %q should be written as %q", tok.Content, lower))
		}
	}
	return findings
}

func checkEmptyComment(rule Rule, _ string, tokens []lexer.Token) []Finding {
	var findings []Finding
	for _, tok := range tokens {
		if tok.Kind == lexer.Comment && strings.TrimSpace(tok.Content) == "" {
			findings = append(findings, rule.finding(tok.Row, tok.Col, "empty comment"))
		}
	}
	return findings
}
