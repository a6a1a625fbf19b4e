// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/open-edge-platform/pascal-lint/internal/rules"
)

type RunStatus string

const (
	// RunPassed means the analysis found no error severity findings.
	RunPassed RunStatus = "Passed"
	RunFailed RunStatus = "Failed"
)

func (s RunStatus) Validate() error {
	switch s {
	case RunPassed:
	case RunFailed:
	default:
		return fmt.Errorf("unknown run status: %q", s)
	}
	return nil
}

// StatusFor derives the status of a run from its findings.
func StatusFor(findings []rules.Finding) RunStatus {
	for _, f := range findings {
		if f.Severity == rules.SeverityError {
			return RunFailed
		}
	}
	return RunPassed
}

type Run struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	UUID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	Name         string    `gorm:"not null"`
	UnitName     string
	Uses         []string `gorm:"serializer:json"`
	Encoding     string
	Status       RunStatus `gorm:"not null"`
	TokenCount   int64
	CreationDate time.Time `gorm:"not null;index"`
	Findings     []Finding
}

func (r *Run) BeforeCreate(*gorm.DB) error {
	return r.Status.Validate()
}

type Finding struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	RunID    int64  `gorm:"not null;index"`
	Rule     string `gorm:"not null"`
	Severity string `gorm:"not null"`
	Message  string
	Row      int
	Col      int
}

func (f *Finding) BeforeCreate(*gorm.DB) error {
	return rules.Severity(f.Severity).Validate()
}

// DBRun represents an analysis run together with its findings.
type DBRun struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	UnitName     string          `json:"unitName,omitempty"`
	Uses         []string        `json:"uses,omitempty"`
	Encoding     string          `json:"encoding,omitempty"`
	Status       RunStatus       `json:"status"`
	TokenCount   int64           `json:"tokenCount"`
	CreationDate time.Time       `json:"creationDate"`
	Findings     []rules.Finding `json:"findings"`
}

// ToRun converts the run into its table representation.
func (r *DBRun) ToRun() *Run {
	run := &Run{
		UUID:         r.ID,
		Name:         r.Name,
		UnitName:     r.UnitName,
		Uses:         r.Uses,
		Encoding:     r.Encoding,
		Status:       r.Status,
		TokenCount:   r.TokenCount,
		CreationDate: r.CreationDate,
		Findings:     make([]Finding, len(r.Findings)),
	}
	for i, f := range r.Findings {
		run.Findings[i] = Finding{
			Rule:     f.Rule,
			Severity: string(f.Severity),
			Message:  f.Message,
			Row:      f.Row,
			Col:      f.Col,
		}
	}
	return run
}

// ToDBRun converts a stored run, including its preloaded findings.
func (r *Run) ToDBRun() *DBRun {
	res := &DBRun{
		ID:           r.UUID,
		Name:         r.Name,
		UnitName:     r.UnitName,
		Uses:         r.Uses,
		Encoding:     r.Encoding,
		Status:       r.Status,
		TokenCount:   r.TokenCount,
		CreationDate: r.CreationDate,
		Findings:     make([]rules.Finding, len(r.Findings)),
	}
	for i, f := range r.Findings {
		res.Findings[i] = rules.Finding{
			Rule:     f.Rule,
			Severity: rules.Severity(f.Severity),
			Message:  f.Message,
			Row:      f.Row,
			Col:      f.Col,
		}
	}
	return res
}
