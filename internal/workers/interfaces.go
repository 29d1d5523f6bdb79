// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package workers runs the broker's background jobs on a cron schedule.
//
// The jobs are housekeeping only: dropping expired vault blobs, expired or
// revoked in-memory keys and idle rate-limiter buckets. Expiry is enforced on
// every read regardless, so a missed run only costs memory.
package workers

//go:generate mockgen -source=interfaces.go -destination=../mock/workers_mock.go -package=mock

// Sweeper drops expired entries and reports how many it removed.
type Sweeper interface {
	Sweep() int
}

// Worker is a single background job. It satisfies cron.Job.
type Worker interface {
	Run()
}
