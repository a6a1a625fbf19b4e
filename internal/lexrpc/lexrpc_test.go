// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package lexrpc

import (
	"context"
	"net"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/open-edge-platform/pascal-lint/api/v1"
	"github.com/open-edge-platform/pascal-lint/internal/lexer"
)

const (
	rpcTimeout    = 5 * time.Second
	maxSourceSize = 64
)

var _ = Describe("Lexer service", Ordered, func() {
	var (
		lis        *bufconn.Listener
		conn       *grpc.ClientConn
		client     *Client
		cancel     context.CancelFunc
		serveErrCh chan error
	)

	BeforeAll(func() {
		lis = bufconn.Listen(1024 * 1024)
		grpcServer := NewGRPCServer(NewServer(maxSourceSize, nil))

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		serveErrCh = make(chan error, 1)
		go func() {
			serveErrCh <- Serve(ctx, grpcServer, lis)
		}()

		var err error
		conn, err = grpc.NewClient(
			"passthrough://bufnet",
			grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
				return lis.Dial()
			}),
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
		Expect(err).ToNot(HaveOccurred())
		client = NewClient(conn)
	})

	AfterAll(func() {
		Expect(conn.Close()).To(Succeed())
		cancel()
		Eventually(serveErrCh).WithTimeout(rpcTimeout).Should(Receive(BeNil()))
	})

	It("Reports the service as serving", func() {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()

		res, err := grpc_health_v1.NewHealthClient(conn).Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: ServiceName})
		Expect(err).ToNot(HaveOccurred())
		Expect(res.GetStatus()).To(Equal(grpc_health_v1.HealthCheckResponse_SERVING))
	})

	It("Tokenizes source text", func() {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()

		res, err := client.Tokenize(ctx, "x:='it''s'")
		Expect(err).ToNot(HaveOccurred())
		Expect(res.Diagnostics).To(BeEmpty())
		Expect(res.Tokens).To(Equal([]api.Token{
			{Kind: "Identifier", Content: "x", Row: 1, Col: 1},
			{Kind: "Operator", Content: ":", Row: 1, Col: 2},
			{Kind: "Operator", Content: "=", Row: 1, Col: 3},
			{Kind: "String", Content: "it's", Row: 1, Col: 4},
			{Kind: "EndOfInput", Content: "", Row: 1, Col: 11},
		}))
	})

	It("Returns lexical diagnostics with the tokens", func() {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()

		res, err := client.Tokenize(ctx, "{ open")
		Expect(err).ToNot(HaveOccurred())
		Expect(res.Diagnostics).To(Equal([]api.Diagnostic{
			{Kind: "UnterminatedComment", Message: "unterminated comment", Row: 1, Col: 1},
		}))
		Expect(res.Tokens).To(HaveLen(2))
		Expect(res.Tokens[0].Kind).To(Equal("Illegal"))
	})

	It("Rejects sources over the size limit", func() {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()

		_, err := client.Tokenize(ctx, strings.Repeat("x", maxSourceSize+1))
		Expect(status.Code(err)).To(Equal(codes.ResourceExhausted))
	})

	It("Lists the keywords", func() {
		ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer cancel()

		keywords, err := client.Keywords(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(keywords).To(Equal(lexer.Keywords()))
	})
})

var _ = Describe("Tokenize", func() {
	It("Fails on a canceled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewServer(0, nil).Tokenize(ctx, nil)
		Expect(status.Code(err)).To(Equal(codes.Canceled))
	})
})
