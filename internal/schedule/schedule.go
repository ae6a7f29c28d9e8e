// Package schedule runs a job on a cron schedule, one run at a time.
package schedule

import (
	"context"
	"time"

	"github.com/adhocore/gronx"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/agentstation/assessmentsync/pkg/constants"
	"github.com/agentstation/assessmentsync/pkg/errors"
	"github.com/agentstation/assessmentsync/pkg/logging"
)

// Job is one scheduled unit of work. Its error is logged; the schedule continues.
type Job func(ctx context.Context) error

// Scheduler runs a Job at every tick of a cron expression. Jobs run on the
// scheduler's goroutine, so a run that overruns the next tick delays it rather
// than overlapping it.
type Scheduler struct {
	cron       string
	job        Job
	runOnStart bool
	logger     *zerolog.Logger
	now        func() time.Time
	after      func(time.Duration) <-chan time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRunOnStart runs the job once before waiting for the first tick.
func WithRunOnStart(enabled bool) Option {
	return func(s *Scheduler) { s.runOnStart = enabled }
}

// WithLogger sets the scheduler logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time, after func(time.Duration) <-chan time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
		s.after = after
	}
}

// New validates the cron expression and creates a Scheduler.
func New(cron string, job Job, opts ...Option) (*Scheduler, error) {
	if cron == "" {
		cron = constants.DefaultCron
	}
	if !gronx.IsValid(cron) {
		return nil, errors.NewValidationError("schedule.cron", cron, "invalid cron expression")
	}
	s := &Scheduler{
		cron:   cron,
		job:    job,
		logger: logging.Default(),
		now:    time.Now,
		after:  time.After,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Cron returns the cron expression.
func (s *Scheduler) Cron() string { return s.cron }

// Next returns the first tick strictly after t, in UTC.
func (s *Scheduler) Next(t time.Time) (time.Time, error) {
	return gronx.NextTickAfter(s.cron, t.UTC(), false)
}

// Run loops until ctx is canceled and then returns nil.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info().Str("cron", s.cron).Msg("Scheduler started")
	defer s.logger.Info().Msg("Scheduler stopped")

	if s.runOnStart {
		s.run(ctx)
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		now := s.now()
		next, err := s.Next(now)
		if err != nil {
			s.logger.Error().Err(err).Str("cron", s.cron).Msg("Could not compute next run")
			if !s.wait(ctx, constants.SchedulerRetryDelay) {
				return nil
			}
			continue
		}

		s.logger.Info().
			Time("next_run", next).
			Msgf("Next run %s", humanize.RelTime(next, now, "ago", "from now"))

		if !s.wait(ctx, next.Sub(now)) {
			return nil
		}
		s.run(ctx)
	}
}

func (s *Scheduler) wait(ctx context.Context, d time.Duration) bool {
	if d < 0 {
		d = 0
	}
	select {
	case <-ctx.Done():
		return false
	case <-s.after(d):
		return true
	}
}

func (s *Scheduler) run(ctx context.Context) {
	start := s.now()
	if err := s.job(ctx); err != nil {
		s.logger.Error().Err(err).Int("status", errors.ExitCode(err)).Msg("Scheduled run failed")
		return
	}
	s.logger.Debug().Dur("took", s.now().Sub(start)).Msg("Scheduled run finished")
}
