package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/maheshrc27/postflow/internal/platform"
	"github.com/maheshrc27/postflow/internal/service"
)

func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode publish payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.PostID == "" {
		return fmt.Errorf("publish payload has no post id: %w", asynq.SkipRetry)
	}

	retried, _ := asynq.GetRetryCount(ctx)
	slog.Info("publishing post", "post_id", payload.PostID, "attempt", retried+1)

	_, err := q.ps.Publish(ctx, payload.PostID)
	if err == nil {
		q.m.ObserveTask("success")
		slog.Info("post published from queue", "post_id", payload.PostID, "attempt", retried+1)
		return nil
	}

	if permanent(err) {
		q.m.ObserveTask("skipped")
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	// retried so a deploy that registers the publisher can still deliver it
	var unsupported *platform.UnsupportedPlatformError
	if errors.As(err, &unsupported) {
		slog.Warn("publish task targets unregistered platform",
			"post_id", payload.PostID,
			"platform", unsupported.Platform,
			"attempt", retried+1)
	}

	q.m.ObserveTask("retry")
	return err
}

// permanent reports errors a retry cannot fix.
func permanent(err error) bool {
	return errors.Is(err, service.ErrPostNotFound) ||
		errors.Is(err, service.ErrNoPlatforms)
}

// HandleError logs failed executions and marks tasks that exhausted their retries.
func HandleError(ctx context.Context, task *asynq.Task, err error) {
	var payload PublishPostPayload
	_ = json.Unmarshal(task.Payload(), &payload)

	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)

	if retried >= maxRetry || errors.Is(err, asynq.SkipRetry) {
		slog.Error("publish task dead-lettered",
			"post_id", payload.PostID,
			"attempts", retried+1,
			"error", err)
		return
	}

	slog.Warn("publish task failed, will retry",
		"post_id", payload.PostID,
		"attempt", retried+1,
		"max_retry", maxRetry,
		"next_in", RetryDelay(retried, err, task).String(),
		"error", err)
}

func NewServer(redisOpt asynq.RedisConnOpt, concurrency int) *asynq.Server {
	return asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:    concurrency,
		Queues:         map[string]int{QueuePublishing: 1},
		RetryDelayFunc: RetryDelay,
		ErrorHandler:   asynq.ErrorHandlerFunc(HandleError),
		IsFailure: func(err error) bool {
			return !errors.Is(err, service.ErrPublishInProgress)
		},
	})
}

func (q *Queue) NewServeMux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypePublishPost, q.HandlePublishPostTask)
	return mux
}
