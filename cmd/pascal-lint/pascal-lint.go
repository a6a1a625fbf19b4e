// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/open-edge-platform/pascal-lint/internal/analyzer"
	"github.com/open-edge-platform/pascal-lint/internal/config"
	"github.com/open-edge-platform/pascal-lint/internal/database"
	"github.com/open-edge-platform/pascal-lint/internal/rules"
)

const (
	exitOK       = 0
	exitFindings = 1
	exitFailure  = 2
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func validateLogLevel(value string) error {
	switch value {
	case "debug":
	case "info":
	case "warn":
	case "error":
	default:
		return fmt.Errorf("invalid log level %q", value)
	}
	return nil
}

func validateFormat(value string) error {
	switch value {
	case formatText:
	case formatJSON:
	case formatYAML:
	default:
		return fmt.Errorf("invalid output format %q", value)
	}
	return nil
}

type fileResult struct {
	Name     string          `json:"name" yaml:"name"`
	UnitName string          `json:"unitName,omitempty" yaml:"unitName,omitempty"`
	Uses     []string        `json:"uses,omitempty" yaml:"uses,omitempty"`
	Encoding string          `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	Findings []rules.Finding `json:"findings" yaml:"findings"`
	Error    string          `json:"error,omitempty" yaml:"error,omitempty"`
}

type cli struct {
	stdout io.Writer
	stderr io.Writer
	// connect opens the store used by -store.
	connect func(config.DatabaseConfig) (database.RunManager, error)
}

func connectPostgres(cfg config.DatabaseConfig) (database.RunManager, error) {
	db, err := database.ConnectDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return &database.DBService{DB: db}, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	c := &cli{stdout: os.Stdout, stderr: os.Stderr, connect: connectPostgres}
	code := c.run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

func (c *cli) run(ctx context.Context, args []string) int {
	flags := flag.NewFlagSet("pascal-lint", flag.ContinueOnError)
	flags.SetOutput(c.stderr)
	configFile := flags.String("config", "", "config file path")
	rulesFile := flags.String("rules", "", "rule set file path, overrides the config file")
	logLevel := flags.String("log-level", "warn", "log level")
	format := flags.String("format", formatText, "output format: text, json or yaml")
	dumpTokens := flags.Bool("tokens", false, "print the token stream instead of findings")
	store := flags.Bool("store", false, "store the analysis runs in the database")
	if err := flags.Parse(args); err != nil {
		return exitFailure
	}

	if err := validateLogLevel(*logLevel); err != nil {
		fmt.Fprintln(c.stderr, err)
		return exitFailure
	}
	if err := validateFormat(*format); err != nil {
		fmt.Fprintln(c.stderr, err)
		return exitFailure
	}
	if flags.NArg() == 0 {
		fmt.Fprintln(c.stderr, "no input files")
		flags.Usage()
		return exitFailure
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintln(c.stderr, err)
		return exitFailure
	}
	logger := slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: lvl}))

	conf := config.Default()
	if *configFile != "" {
		var err error
		conf, err = config.LoadConfig(*configFile)
		if err != nil {
			fmt.Fprintf(c.stderr, "Error loading config: %v\n", err)
			return exitFailure
		}
	}
	if *rulesFile != "" {
		conf.Rules.File = *rulesFile
	}

	ruleSet := rules.DefaultRuleSet()
	if conf.Rules.File != "" {
		var err error
		ruleSet, err = rules.LoadRuleSet(conf.Rules.File)
		if err != nil {
			fmt.Fprintf(c.stderr, "Error loading rule set: %v\n", err)
			return exitFailure
		}
	}

	a := analyzer.New(conf.Analyzer, ruleSet, analyzer.WithLogger(logger))
	reports, err := a.AnalyzeFiles(ctx, flags.Args())
	if err != nil {
		fmt.Fprintln(c.stderr, err)
		return exitFailure
	}

	if *dumpTokens {
		return c.printTokens(reports)
	}

	if *store {
		if err := c.storeRuns(ctx, conf.Database, reports, logger); err != nil {
			fmt.Fprintf(c.stderr, "Error storing runs: %v\n", err)
			return exitFailure
		}
	}

	if err := c.printFindings(*format, reports); err != nil {
		fmt.Fprintln(c.stderr, err)
		return exitFailure
	}
	return exitCode(reports)
}

func exitCode(reports []*analyzer.Report) int {
	code := exitOK
	for _, r := range reports {
		if r.Err != nil {
			return exitFailure
		}
		if r.HasErrors() {
			code = exitFindings
		}
	}
	return code
}

func (c *cli) printTokens(reports []*analyzer.Report) int {
	code := exitOK
	for _, r := range reports {
		if r.Err != nil {
			fmt.Fprintf(c.stderr, "%s: %v\n", r.Name, r.Err)
			code = exitFailure
			continue
		}
		for _, tok := range r.Tokens {
			fmt.Fprintf(c.stdout, "%s:%s\n", r.Name, tok)
		}
	}
	return code
}

func (c *cli) printFindings(format string, reports []*analyzer.Report) error {
	if format == formatText {
		for _, r := range reports {
			if r.Err != nil {
				fmt.Fprintf(c.stderr, "%s: %v\n", r.Name, r.Err)
				continue
			}
			for _, f := range r.Findings {
				fmt.Fprintf(c.stdout, "%s:%d:%d: %s: [%s] %s\n", r.Name, f.Row, f.Col, f.Severity, f.Rule, f.Message)
			}
		}
		return nil
	}

	results := make([]fileResult, len(reports))
	for i, r := range reports {
		results[i] = fileResult{
			Name:     r.Name,
			UnitName: r.UnitName,
			Uses:     r.Uses,
			Encoding: string(r.Encoding),
			Findings: r.Findings,
		}
		if results[i].Findings == nil {
			results[i].Findings = []rules.Finding{}
		}
		if r.Err != nil {
			results[i].Error = r.Err.Error()
		}
	}

	switch format {
	case formatJSON:
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
	case formatYAML:
		enc := yaml.NewEncoder(c.stdout)
		defer enc.Close()
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
	}
	return nil
}

func (c *cli) storeRuns(ctx context.Context, cfg config.DatabaseConfig, reports []*analyzer.Report, logger *slog.Logger) error {
	runs, err := c.connect(cfg)
	if err != nil {
		return err
	}

	var errs []error
	for _, r := range reports {
		if r.Err != nil {
			continue
		}
		run := r.Run()
		if err := runs.CreateRun(ctx, run); err != nil {
			errs = append(errs, err)
			continue
		}
		logger.Info("stored analysis run", slog.String("name", run.Name), slog.String("id", run.ID.String()))
	}
	return errors.Join(errs...)
}
