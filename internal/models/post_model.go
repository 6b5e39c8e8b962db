package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type Post struct {
	ID              string          `db:"id" json:"id"`
	WorkspaceID     string          `db:"workspace_id" json:"workspace_id"`
	Content         string          `db:"content" json:"content"`
	Platforms       []string        `db:"platforms" json:"platforms"`
	Status          PostStatus      `db:"status" json:"status"`
	ScheduledAt     *time.Time      `db:"scheduled_at" json:"scheduled_at"`
	PlatformPostIDs PlatformPostIDs `db:"platform_post_ids" json:"platform_post_ids"`
	ErrorMessage    *string         `db:"error_message" json:"error_message"`
	Hashtags        []string        `db:"hashtags" json:"hashtags"`
	Mentions        []string        `db:"mentions" json:"mentions"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// PostStatus is the lifecycle state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPending   PostStatus = "pending"
	PostStatusPublished PostStatus = "published"
	PostStatusFailed    PostStatus = "failed"
)

var ErrInvalidPostStatus = errors.New("invalid post status")

func ParsePostStatus(s string) (PostStatus, error) {
	status := PostStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPostStatus, s)
	}
	return status, nil
}

func (s PostStatus) IsValid() bool {
	switch s {
	case PostStatusDraft, PostStatusScheduled, PostStatusPending, PostStatusPublished, PostStatusFailed:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine allows s -> next.
func (s PostStatus) CanTransitionTo(next PostStatus) bool {
	switch next {
	case PostStatusPending:
		// scheduled via the dispatcher; draft, failed and scheduled via publish-now;
		// pending again when a queued attempt is retried.
		switch s {
		case PostStatusScheduled, PostStatusDraft, PostStatusFailed, PostStatusPending:
			return true
		}
	case PostStatusPublished, PostStatusFailed:
		return s == PostStatusPending
	}
	return false
}

// PlatformPostIDs maps a platform to the ID the platform assigned to the
// published content. Stored as JSONB.
type PlatformPostIDs map[Platform]string

func (p PlatformPostIDs) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[Platform]string(p))
}

func (p *PlatformPostIDs) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = PlatformPostIDs{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported platform_post_ids type %T", src)
	}

	ids := map[Platform]string{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &ids); err != nil {
			return fmt.Errorf("decode platform_post_ids: %w", err)
		}
	}
	*p = ids
	return nil
}

// Clone returns a copy that is safe to mutate.
func (p PlatformPostIDs) Clone() PlatformPostIDs {
	out := make(PlatformPostIDs, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// HasAll reports whether every platform in platforms has an entry.
func (p PlatformPostIDs) HasAll(platforms []Platform) bool {
	for _, pl := range platforms {
		if p[pl] == "" {
			return false
		}
	}
	return true
}
