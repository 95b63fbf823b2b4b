package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/calderwoods/shopkit-backend/pkg/logger"
	"github.com/calderwoods/shopkit-backend/pkg/metrics"
)

// Job is one unit of scheduled maintenance work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type locker interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(name string) string
}

// Runner executes registered jobs on a fixed interval. A redis lock per job
// keeps concurrent worker replicas from running the same job twice.
type Runner struct {
	jobs     []Job
	locks    locker
	interval time.Duration
	lockTTL  time.Duration
	metrics  *metrics.JobMetrics
	logg     *logger.Logger
}

// NewRunner builds a cron runner. Metrics may be nil.
func NewRunner(locks locker, interval time.Duration, jm *metrics.JobMetrics, logg *logger.Logger, jobs ...Job) (*Runner, error) {
	if locks == nil {
		return nil, fmt.Errorf("lock client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive")
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("at least one job required")
	}
	return &Runner{
		jobs:     jobs,
		locks:    locks,
		interval: interval,
		lockTTL:  interval,
		metrics:  jm,
		logg:     logg,
	}, nil
}

// Run executes a pass immediately and then on every tick until ctx is
// cancelled.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.pass(ctx); err != nil {
		r.logg.Error(ctx, "cron pass failed", err)
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logg.Info(ctx, "cron runner stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := r.pass(ctx); err != nil {
				r.logg.Error(ctx, "cron pass failed", err)
			}
		}
	}
}

// RunOnce executes a single pass over all jobs.
func (r *Runner) RunOnce(ctx context.Context) error {
	return r.pass(ctx)
}

func (r *Runner) pass(ctx context.Context) error {
	var errs error
	for _, job := range r.jobs {
		if ctx.Err() != nil {
			return multierr.Append(errs, ctx.Err())
		}
		if err := r.runLocked(ctx, job); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", job.Name(), err))
		}
	}
	return errs
}

func (r *Runner) runLocked(ctx context.Context, job Job) error {
	jobCtx := r.logg.WithField(ctx, "cron_job", job.Name())

	key := r.locks.LockKey("cron:" + job.Name())
	acquired, err := r.locks.SetNX(jobCtx, key, time.Now().UTC().Format(time.RFC3339), r.lockTTL)
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !acquired {
		r.logg.Info(jobCtx, "cron job locked by another worker")
		return nil
	}
	defer func() {
		if delErr := r.locks.Del(jobCtx, key); delErr != nil {
			r.logg.Warn(jobCtx, "release cron lock failed")
		}
	}()

	start := time.Now()
	runErr := job.Run(jobCtx)
	r.metrics.ObserveDuration(job.Name(), time.Since(start))
	if runErr != nil {
		r.metrics.IncFailure(job.Name())
		return runErr
	}
	r.metrics.IncSuccess(job.Name())
	return nil
}
