package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postflow/internal/service"
)

var retryDelays = []time.Duration{10 * time.Second, 30 * time.Second, 60 * time.Second}

// RetryDelay is the asynq backoff for publish tasks: 10s, 30s, then 60s.
func RetryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	if n < 0 {
		n = 0
	}
	if n >= len(retryDelays) {
		return retryDelays[len(retryDelays)-1]
	}
	return retryDelays[n]
}

func publishOptions(timeout time.Duration) []asynq.Option {
	return []asynq.Option{
		asynq.Queue(QueuePublishing),
		asynq.MaxRetry(MaxRetry),
		asynq.Unique(UniqueTTL),
		asynq.Timeout(timeout),
	}
}

// NewPublishTask builds the task for postID. The payload holds only the ID,
// so asynq's uniqueness key is effectively the post ID.
func NewPublishTask(postID string, timeout time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(PublishPostPayload{PostID: postID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePublishPost, payload, publishOptions(timeout)...), nil
}

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Client enqueues publish tasks; it satisfies service.Enqueuer.
type Client struct {
	client  enqueuer
	timeout time.Duration
}

func NewClient(client *asynq.Client, publishTimeout time.Duration) *Client {
	return &Client{client: client, timeout: publishTimeout}
}

func (c *Client) EnqueuePublish(ctx context.Context, postID string) error {
	task, err := NewPublishTask(postID, c.timeout)
	if err != nil {
		return err
	}

	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) || errors.Is(err, asynq.ErrTaskIDConflict) {
			return service.ErrAlreadyQueued
		}
		slog.Info(err.Error())
		return err
	}

	slog.Info("publish task enqueued", "post_id", postID, "task_id", info.ID, "queue", info.Queue)
	return nil
}
