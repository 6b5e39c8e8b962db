package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var postRowColumns = []string{
	"id", "workspace_id", "content", "platforms", "status", "scheduled_at",
	"platform_post_ids", "error_message", "hashtags", "mentions", "created_at", "updated_at",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestFindByIDMapsRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	scheduled := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	created := scheduled.Add(-24 * time.Hour)

	mock.ExpectQuery("FROM posts WHERE id = \\$1").
		WithArgs("post-1").
		WillReturnRows(sqlmock.NewRows(postRowColumns).AddRow(
			"post-1", "ws-1", "Hello", "{threads,twitter}", "scheduled", scheduled,
			[]byte(`{"threads":"t-1"}`), nil, "{launch}", "{friend}", created, created,
		))

	post, err := repo.FindByID(context.Background(), "post-1")
	require.NoError(t, err)
	require.NotNil(t, post)

	assert.Equal(t, "ws-1", post.WorkspaceID)
	assert.Equal(t, []string{"threads", "twitter"}, post.Platforms)
	assert.Equal(t, models.PostStatusScheduled, post.Status)
	require.NotNil(t, post.ScheduledAt)
	assert.True(t, post.ScheduledAt.Equal(scheduled))
	assert.Equal(t, "t-1", post.PlatformPostIDs[models.PlatformThreads])
	assert.Nil(t, post.ErrorMessage)
	assert.Equal(t, []string{"launch"}, post.Hashtags)
	assert.Equal(t, []string{"friend"}, post.Mentions)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDMissingReturnsNil(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery("FROM posts WHERE id = \\$1").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	post, err := repo.FindByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, post)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDRejectsUnknownStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM posts WHERE id = \\$1").
		WithArgs("post-1").
		WillReturnRows(sqlmock.NewRows(postRowColumns).AddRow(
			"post-1", "ws-1", "Hello", "{threads}", "archived", nil,
			[]byte(`{}`), nil, "{}", "{}", now, now,
		))

	_, err := repo.FindByID(context.Background(), "post-1")
	require.ErrorIs(t, err, models.ErrInvalidPostStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBuildsPartialSet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	now := time.Now()
	status := models.PostStatusFailed
	msg := "threads API error (publish): boom"

	mock.ExpectQuery("UPDATE posts SET status = \\$1, platform_post_ids = \\$2, error_message = \\$3, updated_at = \\$4 WHERE id = \\$5 RETURNING").
		WithArgs("failed", sqlmock.AnyArg(), msg, sqlmock.AnyArg(), "post-1").
		WillReturnRows(sqlmock.NewRows(postRowColumns).AddRow(
			"post-1", "ws-1", "Hello", "{threads,twitter}", "failed", now,
			[]byte(`{"threads":"t-1"}`), msg, "{}", "{}", now, now,
		))

	post, err := repo.Update(context.Background(), "post-1", PostUpdate{
		Status:          &status,
		PlatformPostIDs: models.PlatformPostIDs{models.PlatformThreads: "t-1"},
		ErrorMessage:    &msg,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusFailed, post.Status)
	require.NotNil(t, post.ErrorMessage)
	assert.Equal(t, msg, *post.ErrorMessage)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateClearsError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	now := time.Now()
	status := models.PostStatusPublished

	mock.ExpectQuery("UPDATE posts SET status = \\$1, error_message = NULL, updated_at = \\$2 WHERE id = \\$3 RETURNING").
		WithArgs("published", sqlmock.AnyArg(), "post-1").
		WillReturnRows(sqlmock.NewRows(postRowColumns).AddRow(
			"post-1", "ws-1", "Hello", "{threads}", "published", now,
			[]byte(`{"threads":"t-1"}`), nil, "{}", "{}", now, now,
		))

	post, err := repo.Update(context.Background(), "post-1", PostUpdate{Status: &status, ClearError: true})
	require.NoError(t, err)
	assert.Nil(t, post.ErrorMessage)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMissingRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	status := models.PostStatusPending
	mock.ExpectQuery("UPDATE posts SET").WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), "gone", PostUpdate{Status: &status})
	require.ErrorIs(t, err, ErrPostNotUpdated)
}

func TestTransitionStatusCompareAndSet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectExec("UPDATE posts").
		WithArgs("pending", sqlmock.AnyArg(), "post-1", "scheduled").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE posts").
		WithArgs("pending", sqlmock.AnyArg(), "post-2", "scheduled").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.TransitionStatus(context.Background(), "post-1", models.PostStatusScheduled, models.PostStatusPending)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TransitionStatus(context.Background(), "post-2", models.PostStatusScheduled, models.PostStatusPending)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatusRejectsIllegalMove(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewPostRepository(db)

	_, err := repo.TransitionStatus(context.Background(), "post-1", models.PostStatusDraft, models.PostStatusPublished)
	require.Error(t, err)
}

func TestFindReadyToPublishOrdersBySchedule(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	now := time.Now()
	first := now.Add(-10 * time.Minute)
	second := now.Add(-time.Minute)

	mock.ExpectQuery("WHERE status = \\$1 AND scheduled_at IS NOT NULL AND scheduled_at <= \\$2\\s+ORDER BY scheduled_at ASC").
		WithArgs("scheduled", now).
		WillReturnRows(sqlmock.NewRows(postRowColumns).
			AddRow("a", "ws", "A", "{threads}", "scheduled", first, nil, nil, "{}", "{}", now, now).
			AddRow("b", "ws", "B", "{threads}", "scheduled", second, nil, nil, "{}", "{}", now, now))

	posts, err := repo.FindReadyToPublish(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "a", posts[0].ID)
	assert.Equal(t, "b", posts[1].ID)
	assert.NotNil(t, posts[0].PlatformPostIDs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindStuckPending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostRepository(db)

	cutoff := time.Now().Add(-15 * time.Minute)
	mock.ExpectQuery("WHERE status = \\$1 AND updated_at < \\$2").
		WithArgs("pending", cutoff).
		WillReturnRows(sqlmock.NewRows(postRowColumns))

	posts, err := repo.FindStuckPending(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Empty(t, posts)
	require.NoError(t, mock.ExpectationsWereMet())
}
