// Package scheduler runs the agent on a cron expression for local and
// container deployments. Lambda deployments schedule through EventBridge
// and never touch this package.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/frodopackets/DeathStrandsing/internal/ports"
)

// CronScheduler adapts robfig/cron to ports.Scheduler.
type CronScheduler struct {
	spec string
	cron *cron.Cron
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler for the given cron expression,
// evaluated in loc. A nil loc means local time.
func NewCronScheduler(spec string, loc *time.Location) *CronScheduler {
	if loc == nil {
		loc = time.Local
	}
	return &CronScheduler{
		spec: spec,
		cron: cron.New(cron.WithLocation(loc)),
	}
}

// Start registers the job and begins the schedule. The job receives the
// scheduled firing time.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return fmt.Errorf("scheduler: nil job")
	}

	if _, err := c.cron.AddFunc(c.spec, func() {
		if ctx.Err() != nil {
			return
		}
		job(time.Now())
	}); err != nil {
		return fmt.Errorf("scheduler: invalid cron spec %q: %w", c.spec, err)
	}

	c.cron.Start()
	return nil
}

// Stop halts the schedule and waits for an in-flight job to return,
// bounded by ctx.
func (c *CronScheduler) Stop(ctx context.Context) error {
	done := c.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler: shutdown wait: %w", ctx.Err())
	}
}
