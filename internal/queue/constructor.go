package queue

import (
	"time"

	"github.com/maheshrc27/postflow/internal/metrics"
	"github.com/maheshrc27/postflow/internal/service"
)

const (
	TaskTypePublishPost = "publish:post"
	QueuePublishing     = "publishing"

	MaxRetry = 3
	// UniqueTTL keeps a second task for the same post out of the queue while
	// one is waiting, running or backing off.
	UniqueTTL = 30 * time.Minute
)

type PublishPostPayload struct {
	PostID string `json:"post_id"`
}

type Queue struct {
	ps service.PublishService
	m  *metrics.Metrics
}

func NewQueue(ps service.PublishService, m *metrics.Metrics) *Queue {
	return &Queue{
		ps: ps,
		m:  m,
	}
}
