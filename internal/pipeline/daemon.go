package pipeline

import (
	"context"
	"time"

	"proctor/internal/logging"
)

// Run polls the session store for completed sessions awaiting analysis and
// submits them, until ctx is canceled. Store errors back off for the
// configured retry interval instead of terminating the loop.
func (c *Coordinator) Run(ctx context.Context) error {
	poll := time.Duration(c.cfg.Workflow.PollInterval) * time.Second
	retry := time.Duration(c.cfg.Workflow.ErrorRetryInterval) * time.Second

	c.logger.Info("pipeline started",
		logging.Int("workers", cap(c.slots)),
		logging.Duration("poll_interval", poll))

	for {
		wait := poll
		rec, err := c.store.NextUnprocessed(ctx)
		switch {
		case err != nil:
			c.logger.Error("poll session backlog", logging.Error(err))
			wait = retry
		case rec != nil:
			c.Submit(ctx, rec)
		}

		select {
		case <-ctx.Done():
			c.logger.Info("pipeline stopping")
			c.Wait()
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
