package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/maheshrc27/postflow/internal/models"
)

// APIError is any failure talking to a platform: a non-2xx response, a
// transport error, a timeout, or an open circuit.
type APIError struct {
	Platform   models.Platform
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (%s): %s", e.Platform, e.Op, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Client is the HTTP client shared by a platform's publisher. Every call has
// a deadline and runs behind the platform's circuit breaker.
type Client struct {
	platform   models.Platform
	http       *http.Client
	executor   failsafe.Executor[*http.Response]
	errMessage func(body []byte) string
}

func NewClient(platform models.Platform, timeout time.Duration, errMessage func(body []byte) string) *Client {
	breaker := circuitbreaker.NewBuilder[*http.Response]().
		WithFailureThresholdRatio(5, 10).
		WithDelay(15 * time.Second).
		WithSuccessThreshold(1).
		HandleIf(func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp != nil && resp.StatusCode >= 500
		}).
		Build()

	return &Client{
		platform:   platform,
		http:       &http.Client{Timeout: timeout},
		executor:   failsafe.With[*http.Response](breaker),
		errMessage: errMessage,
	}
}

type request struct {
	op      string
	method  string
	url     string
	headers map[string]string
	body    any
}

// do sends req and decodes a JSON response into out when out is non-nil.
// The response headers are returned for APIs that put IDs there.
func (c *Client) do(ctx context.Context, req request, out any) (http.Header, error) {
	var body io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return nil, c.fail(req.op, 0, err.Error(), err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.url, body)
	if err != nil {
		return nil, c.fail(req.op, 0, err.Error(), err)
	}
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.executor.WithContext(ctx).Get(func() (*http.Response, error) {
		return c.http.Do(httpReq)
	})
	if err != nil {
		switch {
		case errors.Is(err, circuitbreaker.ErrOpen):
			return nil, c.fail(req.op, 0, "circuit open, platform temporarily unavailable", err)
		case errors.Is(err, context.DeadlineExceeded), isTimeout(err):
			return nil, c.fail(req.op, 0, "request timed out", err)
		default:
			return nil, c.fail(req.op, 0, err.Error(), err)
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(req.op, resp.StatusCode, err.Error(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := ""
		if c.errMessage != nil {
			msg = c.errMessage(raw)
		}
		if msg == "" {
			msg = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
		return nil, c.fail(req.op, resp.StatusCode, msg, nil)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, c.fail(req.op, resp.StatusCode, "decode response: "+err.Error(), err)
		}
	}
	return resp.Header, nil
}

func (c *Client) fail(op string, status int, msg string, cause error) *APIError {
	apiErr := &APIError{
		Platform:   c.platform,
		Op:         op,
		StatusCode: status,
		Message:    msg,
		Err:        cause,
	}
	slog.Warn("platform call failed", "platform", c.platform, "op", op, "status", status, "error", msg)
	return apiErr
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
