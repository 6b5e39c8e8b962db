package service

import (
	"errors"
	"fmt"

	"github.com/maheshrc27/postflow/internal/models"
)

var (
	ErrPostNotFound           = errors.New("post not found")
	ErrPublishInProgress      = errors.New("post is already being published")
	ErrNoPlatforms            = errors.New("post has no target platforms")
	ErrNotPublishedOnPlatform = errors.New("post is not published on this platform")
	ErrAlreadyQueued          = errors.New("publish task already queued")
)

type AccountMissingError struct {
	WorkspaceID string
	Platform    models.Platform
}

func (e *AccountMissingError) Error() string {
	return fmt.Sprintf("no connected %s account found", e.Platform)
}

type AccountReconnectError struct {
	AccountID string
	Platform  models.Platform
}

func (e *AccountReconnectError) Error() string {
	return fmt.Sprintf("%s account needs to be reconnected", e.Platform)
}

// PublishError reports the platform an orchestration attempt stopped on.
// Platform is empty when the post failed before any platform was tried.
type PublishError struct {
	PostID   string
	Platform models.Platform
	Err      error
}

func (e *PublishError) Error() string {
	if e.Platform == "" {
		return fmt.Sprintf("publish post %s: %v", e.PostID, e.Err)
	}
	return fmt.Sprintf("publish post %s to %s: %v", e.PostID, e.Platform, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}
