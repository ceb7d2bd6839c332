package usecase

import (
	"context"
	"log/slog"
	"time"

	"ArxivDigest/internal/ports"
)

// Scheduler wires the cron driver with the pipeline use case for daemon mode.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring digest runs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, logger: logger}
}

// Start registers the pipeline with the provided scheduler driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		report, err := s.pipeline.Run(ctx, trigger)
		if err != nil {
			if s.logger != nil {
				s.logger.Error("scheduled run failed", "error", err)
			}
			return
		}
		if s.logger != nil {
			s.logger.Info("scheduled run finished",
				"fetched", report.Fetched,
				"matched", report.Matched,
				"delivered", report.Delivered())
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
