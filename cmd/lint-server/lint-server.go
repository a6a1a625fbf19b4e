// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"gorm.io/gorm"

	"github.com/open-edge-platform/pascal-lint/internal/analyzer"
	"github.com/open-edge-platform/pascal-lint/internal/app"
	"github.com/open-edge-platform/pascal-lint/internal/config"
	"github.com/open-edge-platform/pascal-lint/internal/database"
	"github.com/open-edge-platform/pascal-lint/internal/executor"
	"github.com/open-edge-platform/pascal-lint/internal/metrics"
	"github.com/open-edge-platform/pascal-lint/internal/rules"
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

type server struct {
	stderr  io.Writer
	connect func(config.DatabaseConfig) (*gorm.DB, error)
	listen  func(port int) (net.Listener, error)
}

func listenTCP(port int) (net.Listener, error) {
	return net.Listen("tcp", ":"+strconv.Itoa(port))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	s := &server{stderr: os.Stderr, connect: database.ConnectDB, listen: listenTCP}
	err := s.run(ctx, os.Args[1:])
	stop()
	if err != nil {
		log.Print(err.Error())
		os.Exit(1)
	}
}

// run serves the API until ctx is done.
func (s *server) run(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("lint-server", flag.ContinueOnError)
	flags.SetOutput(s.stderr)
	configFile := flags.String("config", "", "config file path")
	logLevel := flags.String("log-level", "info", "API server log level")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if err := validateLogLevel(*logLevel); err != nil {
		return err
	}

	configuration := config.Default()
	if *configFile != "" {
		var err error
		configuration, err = config.LoadConfig(*configFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
	}

	ruleSet := rules.DefaultRuleSet()
	if configuration.Rules.File != "" {
		var err error
		ruleSet, err = rules.LoadRuleSet(configuration.Rules.File)
		if err != nil {
			return fmt.Errorf("error loading rule set: %w", err)
		}
	}

	db, err := s.connect(configuration.Database)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	dbService := &database.DBService{DB: db}

	reg, m := metrics.NewRegistry()
	a := analyzer.New(configuration.Analyzer, ruleSet, analyzer.WithMetrics(m), analyzer.WithLogger(slog.Default()))

	lis, err := s.listen(configuration.Server.Port)
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", configuration.Server.Port, err)
	}

	rEx := executor.NewRetentionExecutor(configuration.Database, dbService, *logLevel)
	rEx.Start(ctx)
	defer rEx.Stop()

	return app.StartServer(ctx, lis, configuration, *logLevel, dbService, a, reg)
}
