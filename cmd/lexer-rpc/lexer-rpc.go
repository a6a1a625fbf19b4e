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

	"github.com/open-edge-platform/pascal-lint/internal/config"
	"github.com/open-edge-platform/pascal-lint/internal/lexrpc"
)

type server struct {
	stdout io.Writer
	stderr io.Writer
	listen func(port int) (net.Listener, error)
}

func listenTCP(port int) (net.Listener, error) {
	return net.Listen("tcp", ":"+strconv.Itoa(port))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	s := &server{stdout: os.Stdout, stderr: os.Stderr, listen: listenTCP}
	err := s.run(ctx, os.Args[1:])
	stop()
	if err != nil {
		log.Print(err.Error())
		os.Exit(1)
	}
	log.Println("Shutdown completed.")
}

// run serves the lexer service until ctx is done.
func (s *server) run(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("lexer-rpc", flag.ContinueOnError)
	flags.SetOutput(s.stderr)
	configFile := flags.String("config", "", "config file path")
	port := flags.Int("port", 0, "gRPC server port, overrides the config file")
	if err := flags.Parse(args); err != nil {
		return err
	}

	configuration := config.Default()
	if *configFile != "" {
		var err error
		configuration, err = config.LoadConfig(*configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}
	if *port != 0 {
		configuration.Server.GRPCPort = *port
	}

	logger := slog.New(slog.NewJSONHandler(s.stdout, nil))
	slog.SetDefault(logger)

	lis, err := s.listen(configuration.Server.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", configuration.Server.GRPCPort, err)
	}
	logger.Info("Starting grpc server", slog.String("address", lis.Addr().String()))

	grpcServer := lexrpc.NewGRPCServer(lexrpc.NewServer(configuration.Analyzer.MaxFileSize, logger))
	return lexrpc.Serve(ctx, grpcServer, lis)
}
