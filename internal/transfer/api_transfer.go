package transfer

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type CustomClaims struct {
	WorkspaceID string `json:"workspace_id"`
	jwt.RegisteredClaims
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type DispatchErrorResponse struct {
	PostID string `json:"post_id"`
	Error  string `json:"error"`
}

type DispatchReportResponse struct {
	Found        int                     `json:"found"`
	Dispatched   int                     `json:"dispatched"`
	Deduplicated int                     `json:"deduplicated"`
	Skipped      int                     `json:"skipped"`
	Errors       []DispatchErrorResponse `json:"errors"`
}

type PostResponse struct {
	ID              string            `json:"id"`
	WorkspaceID     string            `json:"workspace_id"`
	Content         string            `json:"content"`
	Platforms       []string          `json:"platforms"`
	Status          string            `json:"status"`
	ScheduledAt     *time.Time        `json:"scheduled_at"`
	PlatformPostIDs map[string]string `json:"platform_post_ids"`
	ErrorMessage    *string           `json:"error_message"`
	Hashtags        []string          `json:"hashtags"`
	Mentions        []string          `json:"mentions"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

type EngagementResponse struct {
	Platform         string    `json:"platform"`
	Available        bool      `json:"available"`
	Since            time.Time `json:"since"`
	Until            time.Time `json:"until"`
	Views            int64     `json:"views"`
	Likes            int64     `json:"likes"`
	Replies          int64     `json:"replies"`
	Reposts          int64     `json:"reposts"`
	Quotes           int64     `json:"quotes"`
	TotalEngagements int64     `json:"total_engagements"`
	EngagementRate   float64   `json:"engagement_rate"`
}
