package scheduler

import (
	"context"
	"time"

	"rcm_backend/platform/logger"
)

// SweepDispatcher periodically enqueues the claim housekeeping tasks: the
// open-claim rescore and the stuck-claim sweep. It only enqueues; the
// worker does the actual work so a single sweep runs even with multiple
// dispatcher replicas racing on the queue.
type SweepDispatcher struct {
	client          *Client
	log             *logger.Logger
	rescoreInterval time.Duration
	sweepInterval   time.Duration
}

func NewSweepDispatcher(client *Client, log *logger.Logger, rescoreInterval, sweepInterval time.Duration) *SweepDispatcher {
	if rescoreInterval <= 0 {
		rescoreInterval = time.Hour
	}
	if sweepInterval <= 0 {
		sweepInterval = 24 * time.Hour
	}
	return &SweepDispatcher{
		client:          client,
		log:             log,
		rescoreInterval: rescoreInterval,
		sweepInterval:   sweepInterval,
	}
}

func (d *SweepDispatcher) Run(ctx context.Context) {
	if d == nil || d.client == nil {
		return
	}

	rescore := time.NewTicker(d.rescoreInterval)
	defer rescore.Stop()
	sweep := time.NewTicker(d.sweepInterval)
	defer sweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-rescore.C:
			if err := d.client.ScheduleRescoreClaims(ctx); err != nil {
				d.log.Warn("rescore enqueue failed", "error", err)
			}
		case <-sweep.C:
			if err := d.client.ScheduleStuckClaimSweep(ctx); err != nil {
				d.log.Warn("stuck sweep enqueue failed", "error", err)
			}
		}
	}
}
