package scheduler

import (
	"context"
	"errors"
	"time"

	"claims_portal_backend/platform/config"
	"claims_portal_backend/platform/redisx"

	"github.com/hibiken/asynq"
)

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	opt, err := redisx.AsynqOpt(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// EnqueueCapacityReset asks a worker to roll capacity over now. Duplicate
// requests within a minute collapse into one task.
func (c *Client) EnqueueCapacityReset(ctx context.Context, source string) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewCapacityResetTask(CapacityResetPayload{Source: source})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue), asynq.Unique(time.Minute), asynq.MaxRetry(3))
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

func queueName(cfg config.SchedulerConfig) string {
	if queue := cfg.GetAsynqQueueName(); queue != "" {
		return queue
	}
	return "default"
}
