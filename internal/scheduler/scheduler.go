package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/robfig/cron/v3"
	"github.com/smallbiznis/jobboard/internal/clock"
	jobpostingdomain "github.com/smallbiznis/jobboard/internal/jobposting/domain"
	obsmetrics "github.com/smallbiznis/jobboard/internal/observability/metrics"
	"github.com/smallbiznis/jobboard/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const JobExpirySweep = "expiry_sweep"

var ErrInvalidConfig = errors.New("scheduler: missing dependencies")

type locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, name, token string) error
}

type Params struct {
	fx.In

	Log     *zap.Logger
	Jobs    jobpostingdomain.Service
	GenID   *snowflake.Node
	Clock   clock.Clock
	Locker  *ratelimit.Locker            `optional:"true"`
	Metrics *obsmetrics.SchedulerMetrics `optional:"true"`
	Config  Config                       `optional:"true"`
}

type Scheduler struct {
	log     *zap.Logger
	cfg     Config
	jobs    jobpostingdomain.Service
	genID   *snowflake.Node
	clock   clock.Clock
	lock    locker
	metrics *obsmetrics.SchedulerMetrics
	cron    *cron.Cron
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Jobs == nil || p.GenID == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	log := p.Log.Named("scheduler").With(zap.String("component", "scheduler"))
	s := &Scheduler{
		log:     log,
		cfg:     p.Config.withDefaults(),
		jobs:    p.Jobs,
		genID:   p.GenID,
		clock:   p.Clock,
		metrics: p.Metrics,
	}
	if p.Locker != nil {
		s.lock = p.Locker
	}
	s.cron = cron.New(cron.WithLogger(cronLogger{log: log.Sugar()}))
	return s, nil
}

// Start registers the sweep on the configured schedule.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Error("expiry sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", s.cfg.Schedule, err)
	}
	s.cron.Start()
	s.log.Info("scheduler started", zap.String("schedule", s.cfg.Schedule))
	return nil
}

// Stop waits for a running sweep to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce expires due postings, holding the cluster lock when one is configured.
func (s *Scheduler) RunOnce(parent context.Context) error {
	return s.runJob(parent, JobExpirySweep, s.cfg.BatchSize, s.cfg.JobTimeout, s.expirySweep)
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	batchSize int,
	timeout time.Duration,
	fn func(ctx context.Context, run *jobRun) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	if s.lock != nil {
		token, ok, err := s.lock.TryLock(ctx, name, s.cfg.LockTTL)
		if err != nil {
			s.metrics.IncJobError(name, err)
			return fmt.Errorf("%s: acquire lock: %w", name, err)
		}
		if !ok {
			s.metrics.IncLockSkipped(name)
			s.log.Debug("job skipped, lock held elsewhere", zap.String("job", name))
			return nil
		}
		defer func() {
			if err := s.lock.Release(context.Background(), name, token); err != nil {
				s.log.Warn("release lock failed", zap.String("job", name), zap.Error(err))
			}
		}()
	}

	ctx, run := s.newJobRun(ctx, name, batchSize)
	s.logJobStart(ctx, run)
	s.metrics.IncJobRun(name)

	err := fn(ctx, run)
	s.metrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if err != nil {
		run.IncError()
	}
	s.logJobFinish(ctx, run)
	if err == nil {
		return nil
	}

	s.metrics.IncJobError(name, err)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger(ctx).Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) expirySweep(ctx context.Context, run *jobRun) error {
	for i := 0; i < s.cfg.MaxBatches; i++ {
		expired, err := s.jobs.ExpireDue(ctx, run.batchSize)
		if err != nil {
			return err
		}
		run.AddProcessed(expired)
		s.metrics.AddExpired(expired)
		if expired < run.batchSize {
			return nil
		}
	}
	return nil
}
