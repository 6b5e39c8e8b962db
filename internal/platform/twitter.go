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

type TwitterPublisher struct {
	client  *Client
	baseURL string
}

func NewTwitterPublisher(cfg config.Twitter, timeout time.Duration) *TwitterPublisher {
	return &TwitterPublisher{
		client:  NewClient(models.PlatformTwitter, timeout, twitterErrorMessage),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

func (p *TwitterPublisher) Platform() models.Platform {
	return models.PlatformTwitter
}

func (p *TwitterPublisher) Publish(ctx context.Context, post *models.Post, acc *models.SocialAccount) (string, error) {
	var tweet transfer.TweetResponse
	_, err := p.client.do(ctx, request{
		op:      "publish",
		method:  http.MethodPost,
		url:     p.baseURL + "/2/tweets",
		headers: bearer(acc.AccessToken),
		body:    transfer.TweetRequest{Text: ComposeText(post)},
	}, &tweet)
	if err != nil {
		return "", err
	}
	if tweet.Data.ID == "" {
		return "", p.client.fail("publish", http.StatusCreated, "no tweet ID returned", nil)
	}
	return tweet.Data.ID, nil
}

func (p *TwitterPublisher) Delete(ctx context.Context, platformPostID string, acc *models.SocialAccount) error {
	_, err := p.client.do(ctx, request{
		op:      "delete",
		method:  http.MethodDelete,
		url:     p.baseURL + "/2/tweets/" + url.PathEscape(platformPostID),
		headers: bearer(acc.AccessToken),
	}, nil)
	return err
}

func twitterErrorMessage(body []byte) string {
	var resp transfer.TwitterErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return ""
	}
	return resp.Message()
}
