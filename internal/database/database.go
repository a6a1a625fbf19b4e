// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package database

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/open-edge-platform/pascal-lint/internal/config"
	"github.com/open-edge-platform/pascal-lint/internal/database/models"
)

// RunManager stores analysis runs and their findings.
type RunManager interface {
	// CreateRun persists a run with its findings. The run ID and creation date are assigned by the store
	// and written back to the given run.
	CreateRun(ctx context.Context, run *models.DBRun) error

	// GetRun gets a single run, including its findings, given its UUID.
	GetRun(ctx context.Context, id uuid.UUID) (*models.DBRun, error)

	// GetRunList gets all runs ordered from newest to oldest, including their findings.
	GetRunList(ctx context.Context) ([]*models.DBRun, error)
}

// RunCleaner removes expired runs.
type RunCleaner interface {
	// DeleteRunsExceedingDuration deletes the runs, and their findings, created longer than the given
	// duration ago. It returns the number of deleted runs.
	DeleteRunsExceedingDuration(ctx context.Context, dur time.Duration) (int64, error)
}

func ConnectDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	host := os.Getenv("PGHOST")
	port := os.Getenv("PGPORT")
	user := os.Getenv("PGUSER")
	password := os.Getenv("PGPASSWORD")
	dbname := os.Getenv("PGDATABASE")

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s", host, user, password, dbname, port, sslMode)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to establish database connection: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the tables backing runs and findings.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Run{}, &models.Finding{}); err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}
	return nil
}
