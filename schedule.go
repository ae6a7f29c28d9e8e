package assessmentsync

import (
	"context"

	"github.com/agentstation/assessmentsync/internal/schedule"
	pkgsync "github.com/agentstation/assessmentsync/pkg/sync"
)

// Schedule runs Sync at every tick of cron until ctx is canceled. A run that
// overruns the next tick delays it. Failed runs are logged and the schedule
// continues; a run stopped by missing configuration is not a failure.
func (s *syncer) Schedule(ctx context.Context, cron string, opts ...pkgsync.Option) error {
	job := func(ctx context.Context) error {
		result, err := s.Sync(ctx, opts...)
		if result != nil && result.Skipped != "" {
			return nil
		}
		return err
	}

	sched, err := schedule.New(cron, job,
		schedule.WithLogger(s.logger()),
		schedule.WithRunOnStart(s.config.runOnStart),
	)
	if err != nil {
		return err
	}
	return sched.Run(ctx)
}
