package models

import "time"

// PublishAttempt records the outcome of one platform call made during an
// orchestration attempt.
type PublishAttempt struct {
	ID             string    `db:"id" json:"id"`
	AttemptID      string    `db:"attempt_id" json:"attempt_id"`
	PostID         string    `db:"post_id" json:"post_id"`
	Platform       Platform  `db:"platform" json:"platform"`
	PlatformPostID string    `db:"platform_post_id" json:"platform_post_id"`
	ErrorMessage   string    `db:"error_message" json:"error_message"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

func (a *PublishAttempt) Succeeded() bool {
	return a.ErrorMessage == "" && a.PlatformPostID != ""
}
