// SPDX-FileCopyrightText: (C) 2025 Intel Corporation
// SPDX-License-Identifier: Apache-2.0

// Package clock is the time source for run timestamps, analysis durations and
// retention cutoffs. Tests swap it for a fake clock.
package clock

import (
	"time"

	"github.com/jmhodges/clock"
)

var (
	TimeNowFn func() time.Time

	FakeClock clock.FakeClock
)

// SetFakeClock makes TimeNowFn read from FakeClock.
func SetFakeClock() {
	TimeNowFn = FakeClock.Now
}

// UnsetFakeClock restores the host clock.
func UnsetFakeClock() {
	TimeNowFn = time.Now
}

// Since returns the time elapsed since t according to TimeNowFn.
func Since(t time.Time) time.Duration {
	return TimeNowFn().Sub(t)
}

// Cutoff returns the instant that lies age before now. Records created before
// it are expired.
func Cutoff(age time.Duration) time.Time {
	return TimeNowFn().Add(-age)
}

func init() {
	TimeNowFn = time.Now
	FakeClock = clock.NewFake()
}
