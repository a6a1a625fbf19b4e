// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package lexrpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/open-edge-platform/pascal-lint/internal/lexer"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	maxSourceSize int64
	logger        *slog.Logger
}

// NewServer creates the lexer service. A maxSourceSize of zero disables the size check.
func NewServer(maxSourceSize int64, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		maxSourceSize: maxSourceSize,
		logger:        logger,
	}
}

func (s *Server) Tokenize(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}

	src := req.GetValue()
	if s.maxSourceSize > 0 && int64(len(src)) > s.maxSourceSize {
		return nil, status.Errorf(codes.ResourceExhausted, "source of %d bytes exceeds limit of %d bytes", len(src), s.maxSourceSize)
	}

	tokens, lexErrs := lexer.Tokenize(src)
	res, err := tokenizeResult(tokens, lexErrs)
	if err != nil {
		s.logger.Error("failed to encode tokens", slog.Any("error", err))
		return nil, status.Error(codes.Internal, "failed to encode tokens")
	}

	s.logger.Debug("tokenized source",
		slog.Int("bytes", len(src)),
		slog.Int("tokens", len(tokens)),
		slog.Int("diagnostics", len(lexErrs)),
	)
	return res, nil
}

func (s *Server) Keywords(context.Context, *emptypb.Empty) (*structpb.ListValue, error) {
	keywords := lexer.Keywords()
	values := make([]*structpb.Value, len(keywords))
	for i, kw := range keywords {
		values[i] = structpb.NewStringValue(kw)
	}
	return &structpb.ListValue{Values: values}, nil
}

func tokenizeResult(tokens []lexer.Token, lexErrs []*lexer.Error) (*structpb.Struct, error) {
	toks := make([]any, len(tokens))
	for i, tok := range tokens {
		toks[i] = map[string]any{
			"kind":    tok.Kind.String(),
			"content": tok.Content,
			"row":     tok.Row,
			"col":     tok.Col,
		}
	}
	diags := make([]any, len(lexErrs))
	for i, e := range lexErrs {
		diags[i] = map[string]any{
			"kind":    e.Kind.String(),
			"message": e.Message(),
			"row":     e.Row,
			"col":     e.Col,
		}
	}
	return structpb.NewStruct(map[string]any{
		"tokens":      toks,
		"diagnostics": diags,
	})
}

// NewGRPCServer returns a gRPC server with the lexer and health services registered.
func NewGRPCServer(s *Server, opts ...grpc.ServerOption) *grpc.Server {
	grpcServer := grpc.NewServer(opts...)

	healthCheck := health.NewServer()
	healthCheck.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthCheck.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(grpcServer, healthCheck)

	RegisterLexerServer(grpcServer, s)
	return grpcServer
}

// Serve serves grpcServer on lis until ctx is done, then stops it gracefully.
// If the graceful stop does not complete in time the server is stopped forcibly.
func Serve(ctx context.Context, grpcServer *grpc.Server, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- grpcServer.Serve(lis)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Got termination/interruption signal, attempting graceful shutdown.")
	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()

	t := time.NewTimer(shutdownTimeout)
	defer t.Stop()
	select {
	case <-t.C:
		slog.Warn("Graceful shutdown could not be completed in time, attempting ungraceful shutdown.",
			slog.Duration("timeout", shutdownTimeout))
		grpcServer.Stop()
	case <-stopped:
	}

	if err := <-errCh; err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}
