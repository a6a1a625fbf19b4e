// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

// Package analyzer runs the lexer, the unit header check and the rule set over
// Delphi sources and collects the results into reports.
package analyzer

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/open-edge-platform/pascal-lint/internal/clock"
	"github.com/open-edge-platform/pascal-lint/internal/config"
	"github.com/open-edge-platform/pascal-lint/internal/database/models"
	"github.com/open-edge-platform/pascal-lint/internal/lexer"
	"github.com/open-edge-platform/pascal-lint/internal/metrics"
	"github.com/open-edge-platform/pascal-lint/internal/parser"
	"github.com/open-edge-platform/pascal-lint/internal/rules"
	"github.com/open-edge-platform/pascal-lint/internal/source"
)

// Report is the outcome of analyzing one source.
type Report struct {
	Name     string
	Encoding source.Encoding
	// UnitName is empty when the unit header check failed.
	UnitName string
	// Uses lists the units named in the uses clauses, in source order.
	Uses     []string
	Tokens   []lexer.Token
	Findings []rules.Finding
	Duration time.Duration

	// Err is set when the source could not be loaded. No other field but Name is set then.
	Err error
}

// HasErrors reports whether any finding has error severity.
func (r *Report) HasErrors() bool {
	return models.StatusFor(r.Findings) == models.RunFailed
}

// Run converts the report into a run ready to be stored.
func (r *Report) Run() *models.DBRun {
	return &models.DBRun{
		Name:       r.Name,
		UnitName:   r.UnitName,
		Uses:       r.Uses,
		Encoding:   string(r.Encoding),
		Status:     models.StatusFor(r.Findings),
		TokenCount: int64(len(r.Tokens)),
		Findings:   r.Findings,
	}
}

type Analyzer struct {
	ruleSet     *rules.RuleSet
	workers     int
	maxFileSize int64
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

type Option func(*Analyzer)

// WithMetrics makes the analyzer record token, error and finding counts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Analyzer) { a.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = logger }
}

// New creates an analyzer checking sources against rs. A nil rule set means the default one.
func New(cfg config.AnalyzerConfig, rs *rules.RuleSet, opts ...Option) *Analyzer {
	if rs == nil {
		rs = rules.DefaultRuleSet()
	}
	a := &Analyzer{
		ruleSet:     rs,
		workers:     max(cfg.Workers, 1),
		maxFileSize: cfg.MaxFileSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze checks already decoded source text. Lexical errors are reported as
// findings of the "lexical" rule, a failed unit header check as a "syntax"
// finding. Findings are sorted by position.
func (a *Analyzer) Analyze(name, text string) *Report {
	start := clock.TimeNowFn()

	tokens, lexErrs := lexer.Tokenize(text)
	report := &Report{Name: name, Encoding: source.UTF8, Tokens: tokens}

	for _, e := range lexErrs {
		report.Findings = append(report.Findings, rules.Finding{
			Rule:     rules.Lexical,
			Severity: rules.SeverityError,
			Message:  e.Message(),
			Row:      e.Row,
			Col:      e.Col,
		})
	}

	file, err := parser.NewFromTokens(tokens, lexErrs).ParseFile()
	var tokErr *parser.UnexpectedTokenError
	switch {
	case errors.As(err, &tokErr):
		// An Illegal token is already reported as a lexical finding.
		if tokErr.Found.Kind != lexer.Illegal {
			report.Findings = append(report.Findings, rules.Finding{
				Rule:     rules.Syntax,
				Severity: rules.SeverityError,
				Message:  tokErr.Message(),
				Row:      tokErr.Found.Row,
				Col:      tokErr.Found.Col,
			})
		}
	case err != nil:
		report.Findings = append(report.Findings, rules.Finding{
			Rule:     rules.Syntax,
			Severity: rules.SeverityError,
			Message:  err.Error(),
			Row:      1,
			Col:      1,
		})
	default:
		report.UnitName = file.Unit.Content
	}

	clauses, err := parser.Uses(name, tokens)
	if err != nil {
		a.logger.Debug("skipped uses clause", slog.String("name", name), slog.Any("error", err))
	}
	report.Uses = parser.UnitNames(clauses)

	report.Findings = append(report.Findings, a.ruleSet.Check(text, tokens)...)
	slices.SortStableFunc(report.Findings, func(x, y rules.Finding) int {
		return cmp.Or(cmp.Compare(x.Row, y.Row), cmp.Compare(x.Col, y.Col))
	})

	report.Duration = clock.Since(start)
	a.record(report, lexErrs)

	a.logger.Debug("analyzed source",
		slog.String("name", name),
		slog.Int("tokens", len(tokens)),
		slog.Int("findings", len(report.Findings)),
		slog.Duration("duration", report.Duration),
	)
	return report
}

// AnalyzeFile loads, decodes and analyzes the file at path. Load errors are
// stored in the report.
func (a *Analyzer) AnalyzeFile(path string) *Report {
	f, err := source.Load(path, a.maxFileSize)
	if err != nil {
		a.logger.Warn("failed to load source", slog.String("path", path), slog.Any("error", err))
		if a.metrics != nil {
			a.metrics.Analyses.WithLabelValues("unreadable").Inc()
		}
		return &Report{Name: path, Err: err}
	}

	report := a.Analyze(path, f.Text)
	report.Encoding = f.Encoding
	return report
}

// AnalyzeFiles analyzes the files concurrently, with at most the configured
// number of workers. The reports are returned in the order of paths. When ctx
// is canceled no further files are scheduled and the context error is
// returned together with the reports completed so far; the others are nil.
func (a *Analyzer) AnalyzeFiles(ctx context.Context, paths []string) ([]*Report, error) {
	reports := make([]*Report, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reports[i] = a.AnalyzeFile(path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return reports, fmt.Errorf("failed to analyze files: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return reports, fmt.Errorf("failed to analyze files: %w", err)
	}
	return reports, nil
}

func (a *Analyzer) record(report *Report, lexErrs []*lexer.Error) {
	if a.metrics == nil {
		return
	}

	for _, tok := range report.Tokens {
		a.metrics.Tokens.WithLabelValues(tok.Kind.String()).Inc()
	}
	for _, e := range lexErrs {
		a.metrics.LexicalErrors.WithLabelValues(e.Kind.String()).Inc()
	}
	for _, f := range report.Findings {
		a.metrics.Findings.WithLabelValues(f.Rule, string(f.Severity)).Inc()
	}

	result := "passed"
	if report.HasErrors() {
		result = "failed"
	}
	a.metrics.Analyses.WithLabelValues(result).Inc()
	a.metrics.AnalysisDuration.Observe(report.Duration.Seconds())
}
