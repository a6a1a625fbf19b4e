// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/open-edge-platform/pascal-lint/internal/config"
	"github.com/open-edge-platform/pascal-lint/internal/database"
	"github.com/open-edge-platform/pascal-lint/internal/database/models"
	"github.com/open-edge-platform/pascal-lint/internal/rules"
)

var _ = Describe("pascal-lint", func() {
	var (
		dir            string
		stdout, stderr *bytes.Buffer
		c              *cli
	)

	writeFile := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
		return path
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}
		c = &cli{
			stdout: stdout,
			stderr: stderr,
			connect: func(config.DatabaseConfig) (database.RunManager, error) {
				return nil, errors.New("no database in tests")
			},
		}
	})

	It("Fails without input files", func() {
		Expect(c.run(context.Background(), nil)).To(Equal(exitFailure))
		Expect(stderr.String()).To(ContainSubstring("no input files"))
	})

	It("Rejects an invalid log level", func() {
		Expect(c.run(context.Background(), []string{"-log-level", "loud", "A.pas"})).To(Equal(exitFailure))
		Expect(stderr.String()).To(ContainSubstring(`invalid log level "loud"`))
	})

	It("Rejects an invalid output format", func() {
		Expect(c.run(context.Background(), []string{"-format", "xml", "A.pas"})).To(Equal(exitFailure))
		Expect(stderr.String()).To(ContainSubstring(`invalid output format "xml"`))
	})

	It("Prints nothing for a clean unit", func() {
		path := writeFile("Clean.pas", "unit Clean;\ninterface\nimplementation\nend.\n")

		Expect(c.run(context.Background(), []string{path})).To(Equal(exitOK))
		Expect(stdout.String()).To(BeEmpty())
	})

	It("Reports syntax errors with their position", func() {
		path := writeFile("A.pas", "unit A end.")

		Expect(c.run(context.Background(), []string{path})).To(Equal(exitFindings))
		Expect(stdout.String()).To(Equal(path + `:1:12: error: [syntax] expected Operator ";", found EndOfInput` + "\n"))
	})

	It("Fails on unreadable files", func() {
		path := filepath.Join(dir, "Missing.pas")

		Expect(c.run(context.Background(), []string{path})).To(Equal(exitFailure))
		Expect(stderr.String()).To(ContainSubstring("failed to stat file"))
	})

	It("Dumps the token stream", func() {
		path := writeFile("B.pas", "unit B;")

		Expect(c.run(context.Background(), []string{"-tokens", path})).To(Equal(exitOK))
		Expect(stdout.String()).To(HavePrefix(path + `:1:1 Keyword "unit"` + "\n"))
		Expect(stdout.String()).To(HaveSuffix(path + `:1:8 EndOfInput ""` + "\n"))
	})

	It("Uses the given rule set", func() {
		rulesPath := writeFile("rules.yaml", "rules:\n  - name: no-tabs\n    severity: error\n")
		path := writeFile("Tabs.pas", "unit Tabs;\n\tend.")

		Expect(c.run(context.Background(), []string{"-rules", rulesPath, path})).To(Equal(exitFindings))
		Expect(stdout.String()).To(Equal(path + ":2:1: error: [no-tabs] tab character used for whitespace\n"))
	})

	It("Fails on an invalid rule set", func() {
		rulesPath := writeFile("rules.yaml", "rules: []\n")
		path := writeFile("A.pas", "unit A; end.")

		Expect(c.run(context.Background(), []string{"-rules", rulesPath, path})).To(Equal(exitFailure))
		Expect(stderr.String()).To(ContainSubstring("rule set is empty"))
	})

	It("Prints JSON results", func() {
		path := writeFile("C.pas", "unit C; uses SysUtils; end.")

		Expect(c.run(context.Background(), []string{"-format", "json", path})).To(Equal(exitOK))

		var results []fileResult
		Expect(json.Unmarshal(stdout.Bytes(), &results)).To(Succeed())
		Expect(results).To(Equal([]fileResult{{
			Name:     path,
			UnitName: "C",
			Uses:     []string{"SysUtils"},
			Encoding: "utf-8",
			Findings: []rules.Finding{},
		}}))
	})

	It("Prints YAML results", func() {
		path := writeFile("D.pas", "unit D end.")

		Expect(c.run(context.Background(), []string{"-format", "yaml", path})).To(Equal(exitFindings))
		Expect(stdout.String()).To(ContainSubstring("rule: syntax"))
		Expect(stdout.String()).To(ContainSubstring("severity: error"))
	})

	It("Stores the runs", func() {
		dbConn, err := gorm.Open(sqlite.Open("file:cli?mode=memory&cache=shared"))
		Expect(err).ToNot(HaveOccurred())
		Expect(database.Migrate(dbConn)).To(Succeed())
		DeferCleanup(func() {
			sqlDB, err := dbConn.DB()
			Expect(err).ToNot(HaveOccurred())
			Expect(sqlDB.Close()).To(Succeed())
		})
		c.connect = func(config.DatabaseConfig) (database.RunManager, error) {
			return &database.DBService{DB: dbConn}, nil
		}

		path := writeFile("E.pas", "unit E; end.")
		Expect(c.run(context.Background(), []string{"-store", path})).To(Equal(exitOK))

		var runs []models.Run
		Expect(dbConn.Find(&runs).Error).ToNot(HaveOccurred())
		Expect(runs).To(HaveLen(1))
		Expect(runs[0].Name).To(Equal(path))
		Expect(runs[0].UnitName).To(Equal("E"))
		Expect(runs[0].Status).To(Equal(models.RunPassed))
	})

	It("Fails when the store is unavailable", func() {
		path := writeFile("F.pas", "unit F; end.")

		Expect(c.run(context.Background(), []string{"-store", path})).To(Equal(exitFailure))
		Expect(stderr.String()).To(ContainSubstring("no database in tests"))
	})
})
