package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/maheshrc27/postflow/internal/models"
)

// PostUpdate carries the fields to change on a post. Nil fields are left as is.
type PostUpdate struct {
	Status          *models.PostStatus
	Platforms       []string
	PlatformPostIDs models.PlatformPostIDs
	ErrorMessage    *string
	ClearError      bool
}

type PostRepository interface {
	FindByID(ctx context.Context, id string) (*models.Post, error)
	FindByWorkspace(ctx context.Context, workspaceID, id string) (*models.Post, error)
	Update(ctx context.Context, id string, fields PostUpdate) (*models.Post, error)
	TransitionStatus(ctx context.Context, id string, from, to models.PostStatus) (bool, error)
	FindReadyToPublish(ctx context.Context, now time.Time) ([]*models.Post, error)
	FindStuckPending(ctx context.Context, olderThan time.Time) ([]*models.Post, error)
}

var ErrPostNotUpdated = errors.New("post not updated")

const postColumns = `id, workspace_id, content, platforms, status, scheduled_at, platform_post_ids, error_message, hashtags, mentions, created_at, updated_at`

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var (
		post   models.Post
		status string
	)
	err := row.Scan(
		&post.ID,
		&post.WorkspaceID,
		&post.Content,
		pq.Array(&post.Platforms),
		&status,
		&post.ScheduledAt,
		&post.PlatformPostIDs,
		&post.ErrorMessage,
		pq.Array(&post.Hashtags),
		pq.Array(&post.Mentions),
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	post.Status, err = models.ParsePostStatus(status)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", post.ID, err)
	}
	return &post, nil
}

func (r *postRepository) FindByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) FindByWorkspace(ctx context.Context, workspaceID, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1 AND workspace_id = $2`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id, workspaceID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

func (r *postRepository) Update(ctx context.Context, id string, fields PostUpdate) (*models.Post, error) {
	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if fields.Status != nil {
		add("status", *fields.Status)
	}
	if fields.Platforms != nil {
		add("platforms", pq.Array(fields.Platforms))
	}
	if fields.PlatformPostIDs != nil {
		add("platform_post_ids", fields.PlatformPostIDs)
	}
	switch {
	case fields.ClearError:
		sets = append(sets, "error_message = NULL")
	case fields.ErrorMessage != nil:
		add("error_message", *fields.ErrorMessage)
	}
	add("updated_at", time.Now())

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE posts SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), postColumns,
	)

	post, err := scanPost(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrPostNotUpdated, id)
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

// TransitionStatus moves a post from one status to another only if it is
// still in the expected status. It reports whether the row changed.
func (r *postRepository) TransitionStatus(ctx context.Context, id string, from, to models.PostStatus) (bool, error) {
	if !from.CanTransitionTo(to) {
		return false, fmt.Errorf("illegal status transition %s -> %s", from, to)
	}

	query := `
		UPDATE posts
		SET status = $1,
			updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, to, time.Now(), id, from)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *postRepository) FindReadyToPublish(ctx context.Context, now time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE status = $1 AND scheduled_at IS NOT NULL AND scheduled_at <= $2
		ORDER BY scheduled_at ASC, id ASC`

	return r.list(ctx, query, models.PostStatusScheduled, now)
}

func (r *postRepository) FindStuckPending(ctx context.Context, olderThan time.Time) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE status = $1 AND updated_at < $2
		ORDER BY updated_at ASC, id ASC`

	return r.list(ctx, query, models.PostStatusPending, olderThan)
}

func (r *postRepository) list(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}
