// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/MKhiriev/go-vault-broker/internal/config"
	"github.com/MKhiriev/go-vault-broker/internal/logger"
	"github.com/robfig/cron/v3"
)

// SweepFunc adapts a plain cleanup function, such as cache.Cache.Purge, to
// Sweeper.
type SweepFunc func() int

func (f SweepFunc) Sweep() int {
	return f()
}

type sweepWorker struct {
	name    string
	sweeper Sweeper
	logger  *logger.Logger
}

func (w *sweepWorker) Run() {
	if removed := w.sweeper.Sweep(); removed > 0 {
		w.logger.Debug().Str("worker", w.name).Int("removed", removed).Msg("sweep finished")
	}
}

type Workers struct {
	cron    *cron.Cron
	workers []Worker
	logger  *logger.Logger
}

// NewWorkers schedules one sweep job per entry of sweepers, all on
// cfg.SweepSchedule. Nothing runs until Start.
func NewWorkers(cfg config.Workers, sweepers map[string]Sweeper, logger *logger.Logger) (*Workers, error) {
	cl := cronLogger{logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	w := &Workers{cron: c, logger: logger}
	for _, name := range slices.Sorted(maps.Keys(sweepers)) {
		worker := &sweepWorker{name: name, sweeper: sweepers[name], logger: logger}
		if _, err := c.AddJob(cfg.SweepSchedule, worker); err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidSchedule, cfg.SweepSchedule, err)
		}
		w.workers = append(w.workers, worker)
	}

	logger.Info().Int("jobs", len(w.workers)).Str("schedule", cfg.SweepSchedule).Msg("workers created")
	return w, nil
}

// Run runs every worker once, synchronously.
func (w *Workers) Run() {
	for _, worker := range w.workers {
		worker.Run()
	}
}

// Start begins the schedule in the background.
func (w *Workers) Start() {
	w.cron.Start()
}

// Stop halts the schedule and waits for running jobs, or for ctx.
func (w *Workers) Stop(ctx context.Context) error {
	select {
	case <-w.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger routes robfig/cron's logging into zerolog.
type cronLogger struct {
	logger *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Err(err).Fields(keysAndValues).Msg(msg)
}
