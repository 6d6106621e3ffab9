package scheduler

import (
	"context"
	"fmt"
	"time"

	"claims_portal_backend/platform/config"
	"claims_portal_backend/platform/logger"
	"claims_portal_backend/platform/redisx"

	"github.com/hibiken/asynq"
)

// Periodic enqueues the capacity reset on CAPACITY_RESET_CRON, evaluated in
// the capacity time zone.
type Periodic struct {
	scheduler *asynq.Scheduler
	entryID   string
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, loc *time.Location, log *logger.Logger) (*Periodic, error) {
	opt, err := redisx.AsynqOpt(cfg)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: loc})

	task, err := NewCapacityResetTask(CapacityResetPayload{Source: SourceCron})
	if err != nil {
		return nil, err
	}

	cronSpec := cfg.GetCapacityResetCron()
	entryID, err := scheduler.Register(cronSpec, task, asynq.Queue(queueName(cfg)), asynq.MaxRetry(3))
	if err != nil {
		return nil, fmt.Errorf("register capacity reset %q: %w", cronSpec, err)
	}

	return &Periodic{scheduler: scheduler, entryID: entryID, log: log}, nil
}

// Run starts the scheduler and blocks until ctx is done.
func (p *Periodic) Run(ctx context.Context) {
	if p == nil || p.scheduler == nil {
		return
	}

	if err := p.scheduler.Start(); err != nil {
		p.log.Error("periodic scheduler failed to start", "error", err)
		return
	}
	p.log.Info("periodic scheduler started", "task", TaskCapacityReset, "entry", p.entryID)

	<-ctx.Done()
	p.scheduler.Shutdown()
}
