// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

//go:build mage

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type (
	// Lint is the Mage namespace for linting targets.
	Lint mg.Namespace

	// Gen is the Mage namespace for generation targets.
	Gen mg.Namespace

	// Test is the Mage namespace for testing targets.
	Test mg.Namespace

	// Build is the Mage namespace for build targets.
	Build mg.Namespace
)

var (
	licenseCommonArgs = []string{
		"--copyright-style=spdx-c",
		"--copyright=Intel Corporation",
		"--license=Apache-2.0",
		"--template=intel",
		"--skip-unrecognised",
		"--merge-copyrights",
	}

	skipLicenseDirs = []string{
		".git",
		".reuse",
		"_examples",
		"LICENSES",
	}

	sourceFileRegex = regexp.MustCompile(`\.(go|ya?ml)$`)

	binaries = []string{
		"pascal-lint",
		"lint-server",
		"lexer-rpc",
	}

	// fuzzTests maps fuzz targets to the package holding them.
	fuzzTests = map[string]string{
		"FuzzLexer":                "./internal/lexer/",
		"FuzzTokenizeRandomInput":  "./internal/app/",
		"FuzzCreateAnalysisSource": "./internal/app/",
	}
)

// Ensures all files have copyright and license set.
func (Lint) License() error {
	return sh.Run("reuse", "lint")
}

// Runs golangci-lint over the module.
func (Lint) Golang() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Generates copyright and license headers for Go and YAML files.
func (Gen) License() error {
	files, err := find(".", sourceFileRegex, skipLicenseDirs)
	if err != nil {
		return fmt.Errorf("failed to find included files: %w", err)
	}

	args := []string{"annotate"} //nolint:prealloc // Keep current configuration
	args = append(args, licenseCommonArgs...)
	args = append(args, files...)
	return sh.Run("reuse", args...)
}

func find(dir string, re *regexp.Regexp, skipDirs []string) ([]string, error) {
	if re == nil {
		return nil, errors.New("no regex was provided")
	}

	found := make([]string, 0)
	if err := filepath.WalkDir(dir, func(fpath string, d fs.DirEntry, _ error) error {
		if d.IsDir() && slices.Contains(skipDirs, d.Name()) {
			return filepath.SkipDir
		}
		if !d.IsDir() {
			if re.MatchString(fpath) {
				found = append(found, fpath)
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to walk path %q: %w", dir, err)
	}

	return found, nil
}

// Builds all binaries into the build directory.
func (Build) All() error {
	for _, bin := range binaries {
		if err := sh.RunV("go", "build", "-o", filepath.Join("build", bin), "./cmd/"+bin); err != nil {
			return fmt.Errorf("failed to build %q: %w", bin, err)
		}
	}
	return nil
}

// Runs unit tests with race detection and coverage.
func (Test) Unit() error {
	return sh.RunV("go", "test", "-race", "-coverprofile=coverage.out", "./...")
}

// Runs fuzz tests.
func (Test) Fuzz(fuzzMinutes string) error {
	outputDir := "fuzz-output"

	// Create the directory if it doesn't exist
	err := os.MkdirAll(outputDir, 0750)
	if err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	fuzzSeconds, err := parseMinutesToSeconds(fuzzMinutes)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(fuzzTests))
	for name := range fuzzTests {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, fuzzTest := range names {
		outputFile := filepath.Join(outputDir, "fuzz_output.txt")
		cmd := fmt.Sprintf("nohup go test %s -fuzz=%s -run=%s -fuzztime=%ds >> %s 2>&1 &", fuzzTests[fuzzTest], fuzzTest, fuzzTest, fuzzSeconds, outputFile)
		fmt.Println("Running command:", cmd)

		err := sh.Run("sh", "-c", cmd)
		if err != nil {
			return err
		}
	}
	return nil
}

// parseMinutesToSeconds converts a duration in minutes to seconds.
func parseMinutesToSeconds(minutes string) (int, error) {
	if minutes == "" {
		return 60, nil
	}

	minValue, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, fmt.Errorf("invalid minutes format: %w", err)
	}

	return minValue * 60, nil
}
