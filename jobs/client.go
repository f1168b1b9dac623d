package jobs

import (
	"context"

	"github.com/hibiken/asynq"
)

// Client enqueues ledger tasks from the API process.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	return &Client{client: asynq.NewClient(redisOpts)}, nil
}

// Publisher exposes the client as a journal event publisher.
func (c *Client) Publisher() *EventPublisher {
	return NewEventPublisher(c.client)
}

// EnqueueIntegrityCheck runs the ledger integrity check out of schedule.
func (c *Client) EnqueueIntegrityCheck(ctx context.Context) (*asynq.TaskInfo, error) {
	return c.client.EnqueueContext(ctx, NewGLIntegrityTask(), asynq.Queue(QueueDefault), asynq.MaxRetry(0))
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
