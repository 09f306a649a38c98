package retention

import (
	"context"
	"errors"
	"log/slog"
	"time"

	platformredis "custodian/internal/platform/redis"
)

// Sweeper is satisfied by *Service.
type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (SweepResult, error)
}

// Lease is satisfied by *redis.Lease.
type Lease interface {
	Acquire(ctx context.Context) (func(context.Context) error, error)
}

// ErrSweepInProgress is returned by RunOnce when another replica holds the lease.
var ErrSweepInProgress = errors.New("retention sweep already running")

// Runner triggers the sweep on a fixed interval. With a lease configured only
// the replica holding it sweeps on a given tick.
type Runner struct {
	sweeper  Sweeper
	lease    Lease
	interval time.Duration
	clock    func() time.Time
	logger   *slog.Logger
	metrics  *JobMetrics
}

type RunnerOption func(*Runner)

func WithLease(l Lease) RunnerOption {
	return func(r *Runner) { r.lease = l }
}

func WithClock(clock func() time.Time) RunnerOption {
	return func(r *Runner) { r.clock = clock }
}

func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = logger }
}

func WithJobMetrics(m *JobMetrics) RunnerOption {
	return func(r *Runner) { r.metrics = m }
}

func NewRunner(sweeper Sweeper, interval time.Duration, opts ...RunnerOption) *Runner {
	r := &Runner{
		sweeper:  sweeper,
		interval: interval,
		clock:    time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start sweeps once immediately and then on every tick until ctx is done.
func (r *Runner) Start(ctx context.Context) {
	r.logger.InfoContext(ctx, "retention sweep runner started", "interval", r.interval.String())
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("retention sweep runner stopped")
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	if _, err := r.RunOnce(ctx); err != nil && !errors.Is(err, ErrSweepInProgress) {
		r.logger.ErrorContext(ctx, "retention sweep failed", "error", err)
	}
}

// RunOnce performs a single sweep at the runner's current time.
func (r *Runner) RunOnce(ctx context.Context) (SweepResult, error) {
	if r.lease != nil {
		release, err := r.lease.Acquire(ctx)
		if err != nil {
			if errors.Is(err, platformredis.ErrLeaseHeld) {
				r.metrics.incLeaseSkip()
				r.logger.DebugContext(ctx, "retention sweep lease held elsewhere")
				return SweepResult{}, ErrSweepInProgress
			}
			r.metrics.observeRun(StatusFailure, 0)
			return SweepResult{}, err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				r.logger.WarnContext(ctx, "release retention sweep lease", "error", err)
			}
		}()
	}

	start := time.Now()
	result, err := r.sweeper.Sweep(ctx, r.clock())
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	r.metrics.observeRun(status, time.Since(start).Seconds())
	r.metrics.observeResult(result)
	return result, err
}
