package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/repository"
)

const testSecretKey = "0123456789abcdef0123456789abcdef"

type fakePostRepo struct {
	mu      sync.Mutex
	posts   map[string]*models.Post
	history map[string][]models.PostStatus
	findErr error
	// honorCtx makes Update fail once ctx is done, like a real driver.
	honorCtx bool
}

func newFakePostRepo(posts ...*models.Post) *fakePostRepo {
	r := &fakePostRepo{
		posts:   make(map[string]*models.Post),
		history: make(map[string][]models.PostStatus),
	}
	for _, p := range posts {
		if p.PlatformPostIDs == nil {
			p.PlatformPostIDs = models.PlatformPostIDs{}
		}
		r.posts[p.ID] = p
	}
	return r
}

func (r *fakePostRepo) get(id string) *models.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := *r.posts[id]
	p.PlatformPostIDs = p.PlatformPostIDs.Clone()
	return &p
}

func (r *fakePostRepo) FindByID(_ context.Context, id string) (*models.Post, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	_, ok := r.posts[id]
	r.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return r.get(id), nil
}

func (r *fakePostRepo) FindByWorkspace(ctx context.Context, workspaceID, id string) (*models.Post, error) {
	p, err := r.FindByID(ctx, id)
	if err != nil || p == nil || p.WorkspaceID != workspaceID {
		return nil, err
	}
	return p, nil
}

func (r *fakePostRepo) Update(ctx context.Context, id string, fields repository.PostUpdate) (*models.Post, error) {
	if r.honorCtx && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	r.mu.Lock()
	p, ok := r.posts[id]
	if !ok {
		r.mu.Unlock()
		return nil, repository.ErrPostNotUpdated
	}
	if fields.Status != nil {
		p.Status = *fields.Status
		r.history[id] = append(r.history[id], *fields.Status)
	}
	if fields.Platforms != nil {
		p.Platforms = append([]string(nil), fields.Platforms...)
	}
	if fields.PlatformPostIDs != nil {
		p.PlatformPostIDs = fields.PlatformPostIDs.Clone()
	}
	switch {
	case fields.ClearError:
		p.ErrorMessage = nil
	case fields.ErrorMessage != nil:
		msg := *fields.ErrorMessage
		p.ErrorMessage = &msg
	}
	p.UpdatedAt = time.Now()
	r.mu.Unlock()
	return r.get(id), nil
}

func (r *fakePostRepo) TransitionStatus(_ context.Context, id string, from, to models.PostStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	r.history[id] = append(r.history[id], to)
	return true, nil
}

func (r *fakePostRepo) FindReadyToPublish(_ context.Context, now time.Time) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Post
	for _, p := range r.posts {
		if p.Status == models.PostStatusScheduled && p.ScheduledAt != nil && !p.ScheduledAt.After(now) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledAt.Equal(*out[j].ScheduledAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].ScheduledAt.Before(*out[j].ScheduledAt)
	})
	return out, nil
}

func (r *fakePostRepo) FindStuckPending(_ context.Context, olderThan time.Time) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Post
	for _, p := range r.posts {
		if p.Status == models.PostStatusPending && p.UpdatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeAccounts struct {
	accounts map[models.Platform]*models.SocialAccount
	err      error
}

func (f *fakeAccounts) FindByWorkspaceAndPlatform(_ context.Context, _ string, p models.Platform) (*models.SocialAccount, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.accounts[p], nil
}

type fakeAttempts struct {
	mu       sync.Mutex
	attempts []*models.PublishAttempt
	err      error
}

func (f *fakeAttempts) Create(_ context.Context, pa *models.PublishAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.attempts = append(f.attempts, pa)
	return nil
}

func (f *fakeAttempts) ListByPostID(_ context.Context, postID string) ([]*models.PublishAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.PublishAttempt
	for _, a := range f.attempts {
		if a.PostID == postID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakePublisher struct {
	name    models.Platform
	mu      sync.Mutex
	calls   int
	deleted []string
	publish func(post *models.Post) (string, error)
}

func (p *fakePublisher) Platform() models.Platform { return p.name }

func (p *fakePublisher) Publish(_ context.Context, post *models.Post, _ *models.SocialAccount) (string, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return p.publish(post)
}

func (p *fakePublisher) Delete(_ context.Context, id string, _ *models.SocialAccount) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, id)
	return nil
}

func (p *fakePublisher) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func okPublisher(name models.Platform, id string) *fakePublisher {
	return &fakePublisher{name: name, publish: func(*models.Post) (string, error) { return id, nil }}
}

type fakeEnqueuer struct {
	mu     sync.Mutex
	queued []string
	errFor map[string]error
}

func (f *fakeEnqueuer) EnqueuePublish(_ context.Context, postID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errFor[postID]; err != nil {
		return err
	}
	f.queued = append(f.queued, postID)
	return nil
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	setCalls []setTokenCall
	revoked  []string
	setErr   error
}

type setTokenCall struct {
	accountID      string
	oldAccessToken string
	update         *models.SocialAccount
}

func (f *fakeAccountRepo) FindByWorkspaceAndPlatform(context.Context, string, models.Platform) (*models.SocialAccount, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAccountRepo) ListExpiringBefore(context.Context, time.Time) ([]*models.SocialAccount, error) {
	return nil, nil
}

func (f *fakeAccountRepo) SetToken(_ context.Context, accountID, oldAccessToken string, sa *models.SocialAccount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls = append(f.setCalls, setTokenCall{accountID: accountID, oldAccessToken: oldAccessToken, update: sa})
	return f.setErr
}

func (f *fakeAccountRepo) MarkRevoked(_ context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, accountID)
	return nil
}
