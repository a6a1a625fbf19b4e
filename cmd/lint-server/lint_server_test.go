// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/open-edge-platform/pascal-lint/internal/config"
)

var _ = Describe("lint-server", func() {
	var (
		dir    string
		stderr *bytes.Buffer
		s      *server
		addrCh chan string
	)

	writeFile := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
		return path
	}

	get := func(addr, path string) (int, string) {
		resp, err := http.Get("http://" + addr + path) //nolint:noctx
		if err != nil {
			return 0, ""
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return 0, ""
		}
		return resp.StatusCode, string(body)
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		stderr = &bytes.Buffer{}
		addrCh = make(chan string, 1)
		s = &server{
			stderr: stderr,
			connect: func(config.DatabaseConfig) (*gorm.DB, error) {
				return gorm.Open(sqlite.Open(filepath.Join(dir, "runs.db")))
			},
			listen: func(int) (net.Listener, error) {
				lis, err := net.Listen("tcp", "127.0.0.1:0")
				if err == nil {
					addrCh <- lis.Addr().String()
				}
				return lis, err
			},
		}
	})

	It("Rejects an invalid log level", func() {
		err := s.run(context.Background(), []string{"-log-level", "verbose"})
		Expect(err).To(MatchError(ContainSubstring(`invalid log level "verbose"`)))
	})

	It("Rejects unknown flags", func() {
		Expect(s.run(context.Background(), []string{"-unknown"})).ToNot(Succeed())
		Expect(stderr.String()).To(ContainSubstring("flag provided but not defined"))
	})

	It("Fails on a missing config file", func() {
		err := s.run(context.Background(), []string{"-config", filepath.Join(dir, "missing.yaml")})
		Expect(err).To(MatchError(ContainSubstring("error loading config")))
	})

	It("Fails on an invalid rule set", func() {
		rulesPath := writeFile("rules.yaml", "rules: [")
		configPath := writeFile("config.yaml", "rules:\n  file: "+rulesPath+"\n")

		err := s.run(context.Background(), []string{"-config", configPath})
		Expect(err).To(MatchError(ContainSubstring("error loading rule set")))
	})

	It("Fails when the database is unavailable", func() {
		s.connect = func(config.DatabaseConfig) (*gorm.DB, error) {
			return nil, errors.New("no database in tests")
		}

		err := s.run(context.Background(), nil)
		Expect(err).To(MatchError("no database in tests"))
	})

	It("Fails when the port cannot be bound", func() {
		s.listen = func(int) (net.Listener, error) {
			return nil, errors.New("address already in use")
		}

		err := s.run(context.Background(), nil)
		Expect(err).To(MatchError(ContainSubstring("failed to listen on port 8080")))
	})

	It("Serves the API with metrics until canceled", func() {
		configPath := writeFile("config.yaml", "server:\n  shutdownTimeout: 1s\n")

		ctx, cancel := context.WithCancel(context.Background())
		DeferCleanup(cancel)
		errCh := make(chan error, 1)
		go func() { errCh <- s.run(ctx, []string{"-config", configPath, "-log-level", "error"}) }()

		var addr string
		Eventually(addrCh).WithTimeout(5 * time.Second).Should(Receive(&addr))

		Eventually(func() string {
			_, body := get(addr, "/metrics")
			return body
		}).WithTimeout(5 * time.Second).Should(ContainSubstring("pascal_lint_analysis_duration_seconds_count 0"))

		code, body := get(addr, "/api/v1/analyses")
		Expect(code).To(Equal(http.StatusOK))
		Expect(strings.TrimSpace(body)).To(MatchJSON(`{"runs":[]}`))

		cancel()
		Eventually(errCh).WithTimeout(5 * time.Second).Should(Receive(BeNil()))
	})
})
