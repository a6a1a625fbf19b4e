// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/open-edge-platform/pascal-lint/internal/config"
	"github.com/open-edge-platform/pascal-lint/internal/database"
)

// RetentionExecutor periodically deletes analysis runs older than the configured retention time.
type RetentionExecutor struct {
	retentionTime time.Duration
	interval      time.Duration
	logger        *slog.Logger
	quit          chan struct{}
	done          chan struct{}
	stopOnce      sync.Once

	runs database.RunCleaner
}

func NewRetentionExecutor(cfg config.DatabaseConfig, runs database.RunCleaner, loglevel string) *RetentionExecutor {
	opts := setLogLvl(loglevel)
	return &RetentionExecutor{
		retentionTime: cfg.RetentionTime,
		interval:      cfg.CleanupInterval,
		logger:        slog.New(slog.NewTextHandler(os.Stdout, &opts)),
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
		runs:          runs,
	}
}

// Start deletes expired runs once and then on every tick of the cleanup interval.
// A zero retention time disables the executor.
// NOTE: Once this method is invoked, Stop must be called to release the goroutine.
func (re *RetentionExecutor) Start(ctx context.Context) {
	if re.retentionTime <= 0 || re.interval <= 0 {
		re.logger.Info("Retention disabled: analysis runs are kept")
		close(re.done)
		return
	}

	go func() {
		defer close(re.done)

		ticker := time.NewTicker(re.interval)
		defer ticker.Stop()

		re.cleanup(ctx)
		for {
			select {
			case <-re.quit:
				re.logger.Info("Received signal: stopping retention executor")
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				re.cleanup(ctx)
			}
		}
	}()
}

// Stop stops the executor and waits for a running cleanup to finish. It may be
// called more than once.
func (re *RetentionExecutor) Stop() {
	re.stopOnce.Do(func() { close(re.quit) })
	<-re.done
}

func (re *RetentionExecutor) cleanup(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, re.interval)
	defer cancel()

	n, err := re.runs.DeleteRunsExceedingDuration(ctx, re.retentionTime)
	if err != nil {
		re.logger.Error("failed to delete expired analysis runs", slog.Any("error", err))
		return
	}
	if n > 0 {
		re.logger.Info("deleted expired analysis runs", slog.Int64("count", n))
	}
}

func setLogLvl(logLvl string) slog.HandlerOptions {
	var lvl slog.Level
	switch logLvl {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.HandlerOptions{Level: lvl}
}
