// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/open-edge-platform/pascal-lint/internal/lexrpc"
)

const rpcTimeout = 5 * time.Second

var _ = Describe("lexer-rpc", func() {
	var (
		stdout, stderr *bytes.Buffer
		lis            *bufconn.Listener
		ports          chan int
		s              *server
	)

	BeforeEach(func() {
		stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}
		lis = bufconn.Listen(1024 * 1024)
		ports = make(chan int, 1)
		s = &server{
			stdout: stdout,
			stderr: stderr,
			listen: func(port int) (net.Listener, error) {
				ports <- port
				return lis, nil
			},
		}
	})

	It("Fails on a missing config file", func() {
		err := s.run(context.Background(), []string{"-config", filepath.Join(GinkgoT().TempDir(), "missing.yaml")})
		Expect(err).To(MatchError(ContainSubstring("failed to load config")))
	})

	It("Rejects unknown flags", func() {
		Expect(s.run(context.Background(), []string{"-unknown"})).ToNot(Succeed())
		Expect(stderr.String()).To(ContainSubstring("flag provided but not defined"))
	})

	It("Fails when the port cannot be bound", func() {
		s.listen = func(int) (net.Listener, error) {
			return nil, errors.New("address already in use")
		}

		err := s.run(context.Background(), []string{"-port", "7000"})
		Expect(err).To(MatchError(ContainSubstring("failed to listen on port 7000")))
	})

	It("Takes the port from the config file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "config.yaml")
		Expect(os.WriteFile(path, []byte("server:\n  grpcPort: 7100\n"), 0o600)).To(Succeed())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		Expect(s.run(ctx, []string{"-config", path})).To(Succeed())
		Expect(ports).To(Receive(Equal(7100)))
	})

	It("Serves tokenize requests until canceled", func() {
		ctx, cancel := context.WithCancel(context.Background())
		DeferCleanup(cancel)
		errCh := make(chan error, 1)
		go func() { errCh <- s.run(ctx, []string{"-port", "7200"}) }()

		Eventually(ports).WithTimeout(rpcTimeout).Should(Receive(Equal(7200)))

		conn, err := grpc.NewClient(
			"passthrough://bufnet",
			grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
				return lis.Dial()
			}),
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
		Expect(err).ToNot(HaveOccurred())
		DeferCleanup(conn.Close)

		rpcCtx, rpcCancel := context.WithTimeout(context.Background(), rpcTimeout)
		defer rpcCancel()
		res, err := lexrpc.NewClient(conn).Tokenize(rpcCtx, "unit A;")
		Expect(err).ToNot(HaveOccurred())
		Expect(res.Tokens).To(HaveLen(5))

		cancel()
		Eventually(errCh).WithTimeout(rpcTimeout).Should(Receive(BeNil()))
	})
})
