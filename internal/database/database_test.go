// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

package database_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gstruct"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/open-edge-platform/pascal-lint/internal/clock"
	"github.com/open-edge-platform/pascal-lint/internal/database"
	"github.com/open-edge-platform/pascal-lint/internal/database/models"
	"github.com/open-edge-platform/pascal-lint/internal/rules"
)

const (
	dbQueryTimeout = 5 * time.Second
)

var db *database.DBService

var _ = Describe("Database", func() {
	BeforeEach(func() {
		dbConn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"))
		Expect(err).ToNot(HaveOccurred())
		db = &database.DBService{DB: dbConn}
		Expect(database.Migrate(dbConn)).To(Succeed())

		clock.SetFakeClock()
		clock.FakeClock.Set(time.Now())
	})

	AfterEach(func() {
		clock.UnsetFakeClock()

		if db == nil {
			return
		}
		db.DB.Exec("DELETE FROM findings")
		db.DB.Exec("DELETE FROM runs")

		dbConn, err := db.DB.DB()
		Expect(err).ToNot(HaveOccurred())
		Expect(dbConn.Close()).To(Succeed())
	})

	Context("With no runs", func() {
		It("Get empty list of runs", func() {
			ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
			defer cancel()

			runs, err := db.GetRunList(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(runs).To(BeEmpty())
		})

		It("Fail to get a run that does not exist", func() {
			ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
			defer cancel()

			run, err := db.GetRun(ctx, uuid.New())
			Expect(err).To(MatchError(gorm.ErrRecordNotFound))
			Expect(run).To(BeNil())
		})

		It("Delete nothing when cleaning up", func() {
			ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
			defer cancel()

			n, err := db.DeleteRunsExceedingDuration(ctx, time.Hour)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(n).To(BeZero())
		})
	})

	Context("With runs stored", func() {
		var (
			first  *models.DBRun
			second *models.DBRun
		)

		BeforeEach(func() {
			ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
			defer cancel()

			By("creating a run with an error finding")
			first = &models.DBRun{
				Name:       "Broken.pas",
				Encoding:   "utf-8",
				TokenCount: 3,
				Findings: []rules.Finding{
					{Rule: rules.Syntax, Severity: rules.SeverityError, Message: `1:12: expected Operator ";", found EndOfInput`, Row: 1, Col: 12},
					{Rule: rules.NoTabs, Severity: rules.SeverityInfo, Message: "tab character used for whitespace", Row: 1, Col: 5},
				},
			}
			Expect(db.CreateRun(ctx, first)).To(Succeed())

			clock.FakeClock.Add(2 * time.Hour)

			By("creating a clean run two hours later")
			second = &models.DBRun{
				Name:       "Clean.pas",
				UnitName:   "Clean",
				Uses:       []string{"SysUtils", "System.Classes"},
				Encoding:   "utf-8",
				TokenCount: 9,
			}
			Expect(db.CreateRun(ctx, second)).To(Succeed())
		})

		It("Assign identity and status on creation", func() {
			Expect(first.ID).ToNot(Equal(uuid.Nil))
			Expect(first.Status).To(Equal(models.RunFailed))
			Expect(second.Status).To(Equal(models.RunPassed))
			Expect(second.CreationDate.Sub(first.CreationDate)).To(Equal(2 * time.Hour))
		})

		It("Get a run with its findings in order", func() {
			ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
			defer cancel()

			run, err := db.GetRun(ctx, first.ID)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(run).To(PointTo(MatchFields(IgnoreExtras, Fields{
				"ID":         Equal(first.ID),
				"Name":       Equal("Broken.pas"),
				"Status":     Equal(models.RunFailed),
				"TokenCount": Equal(int64(3)),
				"Findings":   Equal(first.Findings),
			})))
		})

		It("List runs from newest to oldest", func() {
			ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
			defer cancel()

			runs, err := db.GetRunList(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(runs).To(HaveLen(2))
			Expect(runs[0].ID).To(Equal(second.ID))
			Expect(runs[0].Findings).To(BeEmpty())
			Expect(runs[0].Uses).To(Equal([]string{"SysUtils", "System.Classes"}))
			Expect(runs[1].Uses).To(BeEmpty())
			Expect(runs[1].ID).To(Equal(first.ID))
			Expect(runs[1].Findings).To(HaveLen(2))
		})

		It("Delete runs older than the retention time with their findings", func() {
			ctx, cancel := context.WithTimeout(context.Background(), dbQueryTimeout)
			defer cancel()

			n, err := db.DeleteRunsExceedingDuration(ctx, time.Hour)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(n).To(Equal(int64(1)))

			_, err = db.GetRun(ctx, first.ID)
			Expect(err).To(MatchError(gorm.ErrRecordNotFound))

			var findings int64
			Expect(db.DB.Model(&models.Finding{}).Count(&findings).Error).ToNot(HaveOccurred())
			Expect(findings).To(BeZero())

			runs, err := db.GetRunList(ctx)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(runs).To(HaveLen(1))
		})
	})
})
