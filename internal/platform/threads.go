package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/transfer"
)

var threadsInsightMetrics = []string{"views", "likes", "replies", "reposts", "quotes"}

type ThreadsPublisher struct {
	client *Client
	// refresh has its own breaker so a failing token endpoint cannot open
	// the publish circuit.
	refresh *Client
	baseURL string
	version string
}

func NewThreadsPublisher(cfg config.Threads, timeout time.Duration) *ThreadsPublisher {
	return &ThreadsPublisher{
		client:  NewClient(models.PlatformThreads, timeout, graphErrorMessage),
		refresh: NewClient(models.PlatformThreads, timeout, graphErrorMessage),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		version: cfg.APIVersion,
	}
}

func (p *ThreadsPublisher) Platform() models.Platform {
	return models.PlatformThreads
}

// Publish creates a text media container and then publishes it.
func (p *ThreadsPublisher) Publish(ctx context.Context, post *models.Post, acc *models.SocialAccount) (string, error) {
	userURL := fmt.Sprintf("%s/%s/%s", p.baseURL, p.version, url.PathEscape(acc.PlatformUserID))

	var container transfer.ThreadsIDResponse
	_, err := p.client.do(ctx, request{
		op:     "create",
		method: http.MethodPost,
		url:    userURL + "/threads",
		body: transfer.ThreadsCreateRequest{
			MediaType:   "TEXT",
			Text:        ComposeText(post),
			AccessToken: acc.AccessToken,
		},
	}, &container)
	if err != nil {
		return "", err
	}
	if container.ID == "" {
		return "", p.client.fail("create", http.StatusOK, "no creation ID returned", nil)
	}

	var published transfer.ThreadsIDResponse
	_, err = p.client.do(ctx, request{
		op:     "publish",
		method: http.MethodPost,
		url:    userURL + "/threads_publish",
		body: transfer.ThreadsPublishRequest{
			CreationID:  container.ID,
			AccessToken: acc.AccessToken,
		},
	}, &published)
	if err != nil {
		return "", err
	}
	if published.ID == "" {
		return "", p.client.fail("publish", http.StatusOK, "no post ID returned", nil)
	}

	return published.ID, nil
}

func (p *ThreadsPublisher) Delete(ctx context.Context, platformPostID string, acc *models.SocialAccount) error {
	_, err := p.client.do(ctx, request{
		op:     "delete",
		method: http.MethodDelete,
		url:    fmt.Sprintf("%s/%s/%s", p.baseURL, p.version, url.PathEscape(platformPostID)),
		body:   transfer.ThreadsDeleteRequest{AccessToken: acc.AccessToken},
	}, nil)
	return err
}

func (p *ThreadsPublisher) FetchEngagement(ctx context.Context, acc *models.SocialAccount, since, until time.Time) (*models.EngagementMetrics, error) {
	q := url.Values{}
	q.Set("metric", strings.Join(threadsInsightMetrics, ","))
	q.Set("since", strconv.FormatInt(since.Unix(), 10))
	q.Set("until", strconv.FormatInt(until.Unix(), 10))
	q.Set("access_token", acc.AccessToken)

	var insights transfer.ThreadsInsightsResponse
	_, err := p.client.do(ctx, request{
		op:     "insights",
		method: http.MethodGet,
		url:    fmt.Sprintf("%s/%s/%s/threads_insights?%s", p.baseURL, p.version, url.PathEscape(acc.PlatformUserID), q.Encode()),
	}, &insights)
	if err != nil {
		return nil, err
	}

	metrics := &models.EngagementMetrics{}
	for _, m := range insights.Data {
		switch m.Name {
		case "views":
			metrics.Views = m.Sum()
		case "likes":
			metrics.Likes = m.Sum()
		case "replies":
			metrics.Replies = m.Sum()
		case "reposts":
			metrics.Reposts = m.Sum()
		case "quotes":
			metrics.Quotes = m.Sum()
		}
	}
	return metrics, nil
}

// RefreshToken exchanges a long-lived Threads token for a fresh one. Threads
// has no separate refresh token; the access token refreshes itself.
func (p *ThreadsPublisher) RefreshToken(ctx context.Context, accessToken string) (*transfer.ThreadsRefreshResponse, error) {
	q := url.Values{}
	q.Set("grant_type", "th_refresh_token")
	q.Set("access_token", accessToken)

	var token transfer.ThreadsRefreshResponse
	_, err := p.refresh.do(ctx, request{
		op:     "refresh",
		method: http.MethodGet,
		url:    fmt.Sprintf("%s/refresh_access_token?%s", p.baseURL, q.Encode()),
	}, &token)
	if err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, p.refresh.fail("refresh", http.StatusOK, "no access token returned", nil)
	}
	return &token, nil
}

func graphErrorMessage(body []byte) string {
	var resp transfer.GraphErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	return resp.Error.Message
}
