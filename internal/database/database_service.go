// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/open-edge-platform/pascal-lint/internal/clock"
	"github.com/open-edge-platform/pascal-lint/internal/database/models"
)

type DBService struct {
	DB *gorm.DB
}

func (d *DBService) CreateRun(ctx context.Context, run *models.DBRun) error {
	run.ID = uuid.New()
	run.CreationDate = clock.TimeNowFn()
	if run.Status == "" {
		run.Status = models.StatusFor(run.Findings)
	}

	if err := d.DB.WithContext(ctx).Create(run.ToRun()).Error; err != nil {
		return fmt.Errorf("failed to create run %q: %w", run.Name, err)
	}
	return nil
}

func (d *DBService) GetRun(ctx context.Context, id uuid.UUID) (*models.DBRun, error) {
	var run models.Run
	if err := d.DB.WithContext(ctx).
		Preload("Findings", orderByID).
		Where("uuid = ?", id).
		Take(&run).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve run %q: %w", id, err)
	}
	return run.ToDBRun(), nil
}

func (d *DBService) GetRunList(ctx context.Context) ([]*models.DBRun, error) {
	var runs []models.Run
	if err := d.DB.WithContext(ctx).
		Preload("Findings", orderByID).
		Order("creation_date desc").
		Order("id desc").
		Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve runs: %w", err)
	}

	res := make([]*models.DBRun, len(runs))
	for i := range runs {
		res[i] = runs[i].ToDBRun()
	}
	return res, nil
}

func (d *DBService) DeleteRunsExceedingDuration(ctx context.Context, dur time.Duration) (int64, error) {
	cutoff := clock.Cutoff(dur)

	var deleted int64
	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired := tx.Model(&models.Run{}).Select("id").Where("creation_date < ?", cutoff)
		if err := tx.Where("run_id IN (?)", expired).Delete(&models.Finding{}).Error; err != nil {
			return fmt.Errorf("failed to delete findings of expired runs: %w", err)
		}

		res := tx.Where("creation_date < ?", cutoff).Delete(&models.Run{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete expired runs: %w", res.Error)
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id")
}
