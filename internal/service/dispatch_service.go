package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/postflow/internal/metrics"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/repository"
)

// Enqueuer hands a post to the task queue. Implementations return
// ErrAlreadyQueued when a task for the post is already waiting or running.
type Enqueuer interface {
	EnqueuePublish(ctx context.Context, postID string) error
}

type DispatchError struct {
	PostID string
	Err    error
}

type DispatchReport struct {
	Found        int
	Dispatched   int
	Deduplicated int
	// Skipped counts posts another dispatcher claimed first.
	Skipped int
	Errors  []DispatchError
}

func (r *DispatchReport) addError(postID string, err error) {
	r.Errors = append(r.Errors, DispatchError{PostID: postID, Err: err})
}

type DispatchService interface {
	RunDispatchCycle(ctx context.Context) (*DispatchReport, error)
	ReconcileStuckPending(ctx context.Context) (*DispatchReport, error)
}

type dispatchService struct {
	posts   repository.PostRepository
	queue   Enqueuer
	metrics *metrics.Metrics
	grace   time.Duration
	now     func() time.Time
}

func NewDispatchService(posts repository.PostRepository, queue Enqueuer, m *metrics.Metrics, reconcileGrace time.Duration) DispatchService {
	return &dispatchService{
		posts:   posts,
		queue:   queue,
		metrics: m,
		grace:   reconcileGrace,
		now:     time.Now,
	}
}

// RunDispatchCycle claims every scheduled post that is due and enqueues a
// publish task for it. One post failing does not stop the cycle.
func (s *dispatchService) RunDispatchCycle(ctx context.Context) (*DispatchReport, error) {
	posts, err := s.posts.FindReadyToPublish(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("find posts ready to publish: %w", err)
	}

	report := &DispatchReport{Found: len(posts)}
	if len(posts) == 0 {
		return report, nil
	}

	slog.Info("dispatching scheduled posts", "count", len(posts))

	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		claimed, err := s.posts.TransitionStatus(ctx, post.ID, models.PostStatusScheduled, models.PostStatusPending)
		if err != nil {
			slog.Error("failed to claim post", "post_id", post.ID, "error", err)
			report.addError(post.ID, err)
			s.metrics.ObserveDispatch("error")
			continue
		}
		if !claimed {
			report.Skipped++
			s.metrics.ObserveDispatch("skipped")
			continue
		}

		s.enqueue(ctx, post.ID, report)
	}

	s.metrics.ObserveDispatchCycle()
	slog.Info("dispatch cycle finished",
		"found", report.Found,
		"dispatched", report.Dispatched,
		"deduplicated", report.Deduplicated,
		"skipped", report.Skipped,
		"errors", len(report.Errors))
	return report, nil
}

// ReconcileStuckPending re-enqueues posts left in pending longer than the
// grace period, e.g. after an enqueue failed or a worker crashed.
func (s *dispatchService) ReconcileStuckPending(ctx context.Context) (*DispatchReport, error) {
	posts, err := s.posts.FindStuckPending(ctx, s.now().Add(-s.grace))
	if err != nil {
		return nil, fmt.Errorf("find stuck pending posts: %w", err)
	}

	report := &DispatchReport{Found: len(posts)}
	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		s.enqueue(ctx, post.ID, report)
	}

	if report.Found > 0 {
		slog.Info("reconciled stuck posts",
			"found", report.Found,
			"requeued", report.Dispatched,
			"deduplicated", report.Deduplicated,
			"errors", len(report.Errors))
	}
	return report, nil
}

func (s *dispatchService) enqueue(ctx context.Context, postID string, report *DispatchReport) {
	err := s.queue.EnqueuePublish(ctx, postID)
	switch {
	case err == nil:
		report.Dispatched++
		s.metrics.ObserveDispatch("dispatched")
	case errors.Is(err, ErrAlreadyQueued):
		report.Deduplicated++
		s.metrics.ObserveDispatch("deduplicated")
	default:
		slog.Error("failed to enqueue post", "post_id", postID, "error", err)
		report.addError(postID, err)
		s.metrics.ObserveDispatch("error")
	}
}
