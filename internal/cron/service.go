package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/netbill/isp-billing/pkg/logger"
	"github.com/netbill/isp-billing/pkg/metrics"
)

const defaultInterval = 24 * time.Hour

// Lock coordinates exclusive cron runs across worker replicas.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
	Clock    func() time.Time
}

// Service runs the registered jobs on a fixed cadence, one replica at a time.
type Service struct {
	logg     *logger.Logger
	registry *Registry
	lock     Lock
	metrics  *metrics.CronJobMetrics
	interval time.Duration
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = &Registry{}
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	return &Service{
		logg:     params.Logger,
		registry: registry,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
		now:      now,
	}, nil
}

// Run executes a cycle immediately and then on every tick until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	if _, err := s.runCycle(ctx, s.registry.Jobs()); err != nil {
		s.logg.Error(ctx, "scheduled run failed", err)
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron service context canceled")
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.runCycle(ctx, s.registry.Jobs()); err != nil {
				s.logg.Error(ctx, "scheduled run failed", err)
			}
		}
	}
}

// RunOnce executes the named jobs (all when none are named) in a single locked cycle
// and returns how many of them failed.
func (s *Service) RunOnce(ctx context.Context, names ...string) (int, error) {
	jobs, err := s.registry.Select(names...)
	if err != nil {
		return 0, err
	}
	return s.runCycle(ctx, jobs)
}

func (s *Service) runCycle(ctx context.Context, jobs []Job) (int, error) {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.metrics.IncSkipped()
		s.logg.Info(ctx, "another cron instance is running; skipping this cycle")
		return 0, nil
	}
	defer func() {
		if relErr := s.lock.Release(context.WithoutCancel(ctx)); relErr != nil {
			s.logg.Error(ctx, "failed to release cron lock", relErr)
		}
	}()

	failed := 0
	for _, job := range jobs {
		if ctx.Err() != nil {
			return failed, ctx.Err()
		}
		if s.runJob(ctx, job) != metrics.OutcomeSuccess {
			failed++
		}
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"jobs": len(jobs), "failed": failed}), "scheduled run complete")
	return failed, nil
}

func (s *Service) runJob(ctx context.Context, job Job) (outcome string) {
	jobCtx := s.logg.WithFields(ctx, map[string]any{"job": job.Name(), "event": "cron.job"})
	start := s.now()

	defer func() {
		if rec := recover(); rec != nil {
			outcome = metrics.OutcomePanic
			s.logg.Error(jobCtx, "job panicked", fmt.Errorf("panic: %v", rec))
		}
		finished := s.now()
		s.metrics.ObserveRun(job.Name(), outcome, finished.Sub(start), finished)
	}()

	if err := job.Run(jobCtx); err != nil {
		s.logg.Error(jobCtx, "job failed", err)
		return metrics.OutcomeFailure
	}
	s.logg.Info(s.logg.WithField(jobCtx, "duration_ms", s.now().Sub(start).Milliseconds()), "job completed")
	return metrics.OutcomeSuccess
}
