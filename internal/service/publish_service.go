package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/postflow/internal/lock"
	"github.com/maheshrc27/postflow/internal/metrics"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/platform"
	"github.com/maheshrc27/postflow/internal/repository"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type PublishService interface {
	// Publish pushes a post to each of its platforms and records the outcome.
	Publish(ctx context.Context, postID string) (*models.Post, error)
	UnpublishPlatform(ctx context.Context, workspaceID, postID, platform string) (*models.Post, error)
	GetPost(ctx context.Context, workspaceID, postID string) (*models.Post, error)
}

const persistTimeout = 10 * time.Second

type PublishServiceConfig struct {
	// LockTTL bounds how long a crashed attempt can block the post.
	LockTTL            time.Duration
	DefaultWorkspaceID string
}

type publishService struct {
	posts    repository.PostRepository
	attempts repository.PublishAttemptRepository
	accounts AccountService
	registry *platform.Registry
	locker   lock.Locker
	metrics  *metrics.Metrics
	cfg      PublishServiceConfig
	now      func() time.Time
}

func NewPublishService(
	posts repository.PostRepository,
	attempts repository.PublishAttemptRepository,
	accounts AccountService,
	registry *platform.Registry,
	locker lock.Locker,
	m *metrics.Metrics,
	cfg PublishServiceConfig) PublishService {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	return &publishService{
		posts:    posts,
		attempts: attempts,
		accounts: accounts,
		registry: registry,
		locker:   locker,
		metrics:  m,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (s *publishService) Publish(ctx context.Context, postID string) (*models.Post, error) {
	release, err := s.acquire(ctx, postID)
	if err != nil {
		return nil, err
	}
	defer release()

	started := time.Now()

	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("load post %s: %w", postID, err)
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	// redelivery of a task whose post already went out
	if post.Status == models.PostStatusPublished {
		slog.Info("post already published", "post_id", postID)
		return post, nil
	}

	if post.Status != models.PostStatusPending {
		pending := models.PostStatusPending
		post, err = s.posts.Update(ctx, postID, repository.PostUpdate{Status: &pending})
		if err != nil {
			return nil, fmt.Errorf("mark post %s pending: %w", postID, err)
		}
	}

	ids := post.PlatformPostIDs.Clone()

	platforms := normalizePlatforms(post.Platforms)
	if len(platforms) == 0 {
		return nil, s.fail(ctx, post, "", ids, ErrNoPlatforms, started)
	}

	attemptID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	for _, p := range platforms {
		if ids[p] != "" {
			slog.Info("skipping platform already published", "post_id", postID, "platform", p, "platform_post_id", ids[p])
			continue
		}

		platformPostID, err := s.publishTo(ctx, post, p, attemptID)
		if err != nil {
			return nil, s.fail(ctx, post, p, ids, err, started)
		}
		ids[p] = platformPostID
	}

	if !ids.HasAll(platforms) {
		return nil, s.fail(ctx, post, "", ids, errors.New("platform post ids incomplete"), started)
	}

	writeCtx, cancel := persistContext(ctx)
	defer cancel()

	published := models.PostStatusPublished
	post, err = s.posts.Update(writeCtx, postID, repository.PostUpdate{
		Status:          &published,
		PlatformPostIDs: ids,
		ClearError:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("mark post %s published: %w", postID, err)
	}

	s.metrics.ObservePublish(string(models.PostStatusPublished), started)
	slog.Info("post published", "post_id", postID, "platforms", len(platforms))
	return post, nil
}

func (s *publishService) publishTo(ctx context.Context, post *models.Post, p models.Platform, attemptID string) (string, error) {
	acc, err := s.resolveAccount(ctx, post.WorkspaceID, p)
	if err != nil {
		return "", err
	}

	pub, err := s.registry.Get(p)
	if err != nil {
		slog.Warn("post targets unsupported platform", "post_id", post.ID, "platform", p)
		return "", err
	}

	platformPostID, err := pub.Publish(ctx, post, acc)
	s.metrics.ObservePlatformPublish(string(p), err)
	s.recordAttempt(ctx, post.ID, p, attemptID, platformPostID, err)
	if err != nil {
		return "", err
	}

	slog.Info("published to platform", "post_id", post.ID, "platform", p, "platform_post_id", platformPostID)
	return platformPostID, nil
}

// persistContext detaches the terminal status write from ctx, which asynq
// cancels on task timeout and on shutdown.
func persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
}

// fail records the failed attempt on the post, keeping any IDs the platforms
// already returned so a retry does not publish them twice.
func (s *publishService) fail(ctx context.Context, post *models.Post, p models.Platform, ids models.PlatformPostIDs, cause error, started time.Time) error {
	msg := cause.Error()
	failed := models.PostStatusFailed

	writeCtx, cancel := persistContext(ctx)
	defer cancel()

	_, err := s.posts.Update(writeCtx, post.ID, repository.PostUpdate{
		Status:          &failed,
		PlatformPostIDs: ids,
		ErrorMessage:    &msg,
	})
	if err != nil {
		slog.Error("failed to record publish failure", "post_id", post.ID, "error", err)
	}

	s.metrics.ObservePublish(string(models.PostStatusFailed), started)
	slog.Warn("post publish failed", "post_id", post.ID, "platform", p, "error", msg)
	return &PublishError{PostID: post.ID, Platform: p, Err: cause}
}

func (s *publishService) recordAttempt(ctx context.Context, postID string, p models.Platform, attemptID, platformPostID string, cause error) {
	if s.attempts == nil {
		return
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Error(err.Error())
		return
	}

	attempt := &models.PublishAttempt{
		ID:             id,
		AttemptID:      attemptID,
		PostID:         postID,
		Platform:       p,
		PlatformPostID: platformPostID,
	}
	if cause != nil {
		attempt.ErrorMessage = cause.Error()
	}

	if err := s.attempts.Create(ctx, attempt); err != nil {
		slog.Warn("failed to record publish attempt", "post_id", postID, "platform", p, "error", err)
	}
}

func (s *publishService) resolveAccount(ctx context.Context, workspaceID string, p models.Platform) (*models.SocialAccount, error) {
	if workspaceID == "" {
		workspaceID = s.cfg.DefaultWorkspaceID
	}

	acc, err := s.accounts.FindByWorkspaceAndPlatform(ctx, workspaceID, p)
	if err != nil {
		return nil, fmt.Errorf("resolve %s account: %w", p, err)
	}
	if acc == nil {
		return nil, &AccountMissingError{WorkspaceID: workspaceID, Platform: p}
	}
	if acc.NeedsReconnect(s.now()) {
		return nil, &AccountReconnectError{AccountID: acc.ID, Platform: p}
	}
	return acc, nil
}

func (s *publishService) UnpublishPlatform(ctx context.Context, workspaceID, postID, rawPlatform string) (*models.Post, error) {
	p, err := models.ParsePlatform(rawPlatform)
	if err != nil {
		return nil, &platform.UnsupportedPlatformError{Platform: rawPlatform}
	}

	release, err := s.acquire(ctx, postID)
	if err != nil {
		return nil, err
	}
	defer release()

	post, err := s.posts.FindByWorkspace(ctx, workspaceID, postID)
	if err != nil {
		return nil, fmt.Errorf("load post %s: %w", postID, err)
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	platformPostID := post.PlatformPostIDs[p]
	if platformPostID == "" {
		return nil, ErrNotPublishedOnPlatform
	}

	acc, err := s.resolveAccount(ctx, post.WorkspaceID, p)
	if err != nil {
		return nil, err
	}
	pub, err := s.registry.Get(p)
	if err != nil {
		return nil, err
	}
	if err := pub.Delete(ctx, platformPostID, acc); err != nil {
		return nil, err
	}

	// drop the platform from the target list too, so a published post still
	// has an ID for every platform it targets
	ids := post.PlatformPostIDs.Clone()
	delete(ids, p)
	remaining := make([]string, 0, len(post.Platforms))
	for _, raw := range post.Platforms {
		if parsed, err := models.ParsePlatform(raw); err == nil && parsed == p {
			continue
		}
		remaining = append(remaining, raw)
	}

	post, err = s.posts.Update(ctx, postID, repository.PostUpdate{
		Platforms:       remaining,
		PlatformPostIDs: ids,
	})
	if err != nil {
		return nil, fmt.Errorf("update post %s: %w", postID, err)
	}

	slog.Info("post removed from platform", "post_id", postID, "platform", p, "platform_post_id", platformPostID)
	return post, nil
}

func (s *publishService) GetPost(ctx context.Context, workspaceID, postID string) (*models.Post, error) {
	post, err := s.posts.FindByWorkspace(ctx, workspaceID, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *publishService) acquire(ctx context.Context, postID string) (func(), error) {
	release, err := s.locker.Acquire(ctx, postID, s.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			return nil, ErrPublishInProgress
		}
		return nil, fmt.Errorf("lock post %s: %w", postID, err)
	}
	return release, nil
}

// normalizePlatforms case-normalizes the stored platform names, keeping
// their order and dropping blanks and duplicates. Unknown names are kept so
// they fail in order, after account resolution.
func normalizePlatforms(raw []string) []models.Platform {
	out := make([]models.Platform, 0, len(raw))
	seen := make(map[models.Platform]bool, len(raw))
	for _, r := range raw {
		p := models.NormalizePlatform(r)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
