package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/transfer"
)

const linkedInPersonURN = "urn:li:person:"

type LinkedInPublisher struct {
	client  *Client
	baseURL string
	version string
}

func NewLinkedInPublisher(cfg config.LinkedIn, timeout time.Duration) *LinkedInPublisher {
	return &LinkedInPublisher{
		client:  NewClient(models.PlatformLinkedIn, timeout, linkedInErrorMessage),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		version: cfg.APIVersion,
	}
}

func (p *LinkedInPublisher) Platform() models.Platform {
	return models.PlatformLinkedIn
}

// Publish creates a public member post. LinkedIn returns the post URN in the
// x-restli-id header, not in the body.
func (p *LinkedInPublisher) Publish(ctx context.Context, post *models.Post, acc *models.SocialAccount) (string, error) {
	author := acc.PlatformUserID
	if !strings.HasPrefix(author, "urn:li:") {
		author = linkedInPersonURN + author
	}

	header, err := p.client.do(ctx, request{
		op:      "publish",
		method:  http.MethodPost,
		url:     p.baseURL + "/rest/posts",
		headers: p.headers(acc),
		body: transfer.LinkedInPostRequest{
			Author:     author,
			Commentary: ComposeText(post),
			Visibility: "PUBLIC",
			Distribution: transfer.LinkedInDistribution{
				FeedDistribution:               "MAIN_FEED",
				TargetEntities:                 []string{},
				ThirdPartyDistributionChannels: []string{},
			},
			LifecycleState: "PUBLISHED",
		},
	}, nil)
	if err != nil {
		return "", err
	}

	id := header.Get("x-restli-id")
	if id == "" {
		return "", p.client.fail("publish", http.StatusCreated, "no post URN returned", nil)
	}
	return id, nil
}

func (p *LinkedInPublisher) Delete(ctx context.Context, platformPostID string, acc *models.SocialAccount) error {
	_, err := p.client.do(ctx, request{
		op:      "delete",
		method:  http.MethodDelete,
		url:     p.baseURL + "/rest/posts/" + url.PathEscape(platformPostID),
		headers: p.headers(acc),
	}, nil)
	return err
}

func (p *LinkedInPublisher) headers(acc *models.SocialAccount) map[string]string {
	h := bearer(acc.AccessToken)
	h["LinkedIn-Version"] = p.version
	h["X-Restli-Protocol-Version"] = "2.0.0"
	return h
}

func linkedInErrorMessage(body []byte) string {
	var resp transfer.LinkedInErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	return resp.Message
}
