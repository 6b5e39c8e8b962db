package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/postflow/internal/models"
)

type PublishAttemptRepository interface {
	Create(ctx context.Context, pa *models.PublishAttempt) error
	ListByPostID(ctx context.Context, postID string) ([]*models.PublishAttempt, error)
}

type publishAttemptRepository struct {
	db *sql.DB
}

func NewPublishAttemptRepository(db *sql.DB) PublishAttemptRepository {
	return &publishAttemptRepository{db: db}
}

func (r *publishAttemptRepository) Create(ctx context.Context, pa *models.PublishAttempt) error {
	query := `
		INSERT INTO publish_attempts (id, attempt_id, post_id, platform, platform_post_id, error_message)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query, pa.ID, pa.AttemptID, pa.PostID, pa.Platform, pa.PlatformPostID, pa.ErrorMessage)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *publishAttemptRepository) ListByPostID(ctx context.Context, postID string) ([]*models.PublishAttempt, error) {
	query := `SELECT id, attempt_id, post_id, platform, platform_post_id, error_message, created_at
		FROM publish_attempts WHERE post_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, postID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var attempts []*models.PublishAttempt
	for rows.Next() {
		var pa models.PublishAttempt
		err := rows.Scan(&pa.ID, &pa.AttemptID, &pa.PostID, &pa.Platform, &pa.PlatformPostID, &pa.ErrorMessage, &pa.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		attempts = append(attempts, &pa)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return attempts, nil
}
