package platform

import (
	"context"
	"time"

	"github.com/maheshrc27/postflow/internal/models"
)

// Publisher pushes a post to one platform on behalf of a connected account.
type Publisher interface {
	Platform() models.Platform
	// Publish returns the ID the platform assigned to the new content.
	Publish(ctx context.Context, post *models.Post, acc *models.SocialAccount) (string, error)
	Delete(ctx context.Context, platformPostID string, acc *models.SocialAccount) error
}

// EngagementFetcher is implemented by publishers whose platform exposes
// account level insights.
type EngagementFetcher interface {
	FetchEngagement(ctx context.Context, acc *models.SocialAccount, since, until time.Time) (*models.EngagementMetrics, error)
}
