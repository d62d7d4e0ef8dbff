package litestream

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"litestream-sidecar/internal/apperrors"
)

// ScheduledReplicate runs TimedReplicate on the given cron schedule until
// ctx is cancelled. It blocks for its whole duration and is intended to be
// the long-lived foreground process of a container. Overlapping runs are
// skipped rather than queued; failures are logged and the schedule keeps
// going, per the no-internal-retry policy (the next tick is not a retry,
// just the next scheduled run).
func (s *Service) ScheduledReplicate(ctx context.Context, spec string, window time.Duration) error {
	scheduler := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))

	_, err := scheduler.AddFunc(spec, func() {
		written, err := s.TimedReplicate(ctx, window)
		if err != nil {
			s.log.Errorf("scheduled replication failed: %v", err)
			return
		}
		if !written {
			s.log.Warnf("scheduled replication wrote no snapshot within %s", window)
		}
	})
	if err != nil {
		return apperrors.NewConfigurationError(
			fmt.Sprintf("invalid cron schedule %q", spec), err)
	}

	s.log.Infof("replication scheduled: %q, window %s", spec, window)
	scheduler.Start()

	<-ctx.Done()
	<-scheduler.Stop().Done()
	return nil
}
