package platform

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threadsAccount() *models.SocialAccount {
	return &models.SocialAccount{
		Platform:       models.PlatformThreads,
		PlatformUserID: "1789",
		AccessToken:    "tok",
	}
}

func newThreadsPublisher(t *testing.T, h http.Handler) *ThreadsPublisher {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewThreadsPublisher(config.Threads{BaseURL: srv.URL, APIVersion: "v1.0"}, 2*time.Second)
}

func TestThreadsPublishTwoPhase(t *testing.T) {
	var calls []string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1.0/1789/threads", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "create")
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "TEXT", body["media_type"])
		assert.Equal(t, "Hello\n\n#launch\n\n@friend", body["text"])
		assert.Equal(t, "tok", body["access_token"])
		w.Write([]byte(`{"id":"container-1"}`))
	})
	mux.HandleFunc("POST /v1.0/1789/threads_publish", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "publish")
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "container-1", body["creation_id"])
		w.Write([]byte(`{"id":"thread-99"}`))
	})

	p := newThreadsPublisher(t, mux)
	id, err := p.Publish(context.Background(), &models.Post{
		Content:  "Hello",
		Hashtags: []string{"launch"},
		Mentions: []string{"friend"},
	}, threadsAccount())

	require.NoError(t, err)
	assert.Equal(t, "thread-99", id)
	assert.Equal(t, []string{"create", "publish"}, calls)
}

func TestThreadsPublishCreateFailure(t *testing.T) {
	var publishCalled bool
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1.0/1789/threads", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid OAuth access token","code":190}}`))
	})
	mux.HandleFunc("POST /v1.0/1789/threads_publish", func(w http.ResponseWriter, r *http.Request) {
		publishCalled = true
	})

	p := newThreadsPublisher(t, mux)
	_, err := p.Publish(context.Background(), &models.Post{Content: "Hi"}, threadsAccount())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "create", apiErr.Op)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "threads API error (create): Invalid OAuth access token", err.Error())
	assert.False(t, publishCalled)
}

func TestThreadsPublishMissingCreationID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1.0/1789/threads", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	p := newThreadsPublisher(t, mux)
	_, err := p.Publish(context.Background(), &models.Post{Content: "Hi"}, threadsAccount())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "create", apiErr.Op)
}

func TestThreadsPublishTimeout(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1.0/1789/threads", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	p := NewThreadsPublisher(config.Threads{BaseURL: srv.URL, APIVersion: "v1.0"}, 50*time.Millisecond)

	_, err := p.Publish(context.Background(), &models.Post{Content: "Hi"}, threadsAccount())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "request timed out", apiErr.Message)
}

func TestThreadsDelete(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /v1.0/thread-99", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "tok", body["access_token"])
		w.Write([]byte(`{"success":true}`))
	})

	p := newThreadsPublisher(t, mux)
	require.NoError(t, p.Delete(context.Background(), "thread-99", threadsAccount()))
}

func TestThreadsFetchEngagement(t *testing.T) {
	since := time.Unix(1700000000, 0)
	until := time.Unix(1702592000, 0)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1.0/1789/threads_insights", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "views,likes,replies,reposts,quotes", q.Get("metric"))
		assert.Equal(t, "1700000000", q.Get("since"))
		assert.Equal(t, "1702592000", q.Get("until"))
		w.Write([]byte(`{"data":[
			{"name":"views","period":"day","values":[{"value":120},{"value":80}]},
			{"name":"likes","period":"day","total_value":{"value":12}},
			{"name":"replies","period":"day","total_value":{"value":4}},
			{"name":"reposts","period":"day","total_value":{"value":3}},
			{"name":"quotes","period":"day","total_value":{"value":1}}
		]}`))
	})

	p := newThreadsPublisher(t, mux)
	m, err := p.FetchEngagement(context.Background(), threadsAccount(), since, until)
	require.NoError(t, err)
	assert.Equal(t, int64(200), m.Views)
	assert.Equal(t, int64(12), m.Likes)
	assert.Equal(t, int64(20), m.TotalEngagements())
	assert.Equal(t, 10.0, m.EngagementRate())
}

func TestCircuitOpensAfterRepeatedServerErrors(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1.0/1789/threads", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	p := newThreadsPublisher(t, mux)
	for i := 0; i < 10; i++ {
		_, err := p.Publish(context.Background(), &models.Post{Content: "Hi"}, threadsAccount())
		require.Error(t, err)
	}
	served := hits.Load()
	require.LessOrEqual(t, served, int32(10))

	_, err := p.Publish(context.Background(), &models.Post{Content: "Hi"}, threadsAccount())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, errors.Is(err, circuitbreaker.ErrOpen))
	assert.Equal(t, served, hits.Load())
}

func TestThreadsRefreshFailuresKeepPublishCircuitClosed(t *testing.T) {
	var published atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /refresh_access_token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("POST /v1.0/1789/threads", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"container-1"}`))
	})
	mux.HandleFunc("POST /v1.0/1789/threads_publish", func(w http.ResponseWriter, r *http.Request) {
		published.Add(1)
		w.Write([]byte(`{"id":"thread-1"}`))
	})

	p := newThreadsPublisher(t, mux)
	var err error
	for i := 0; i < 12; i++ {
		_, err = p.RefreshToken(context.Background(), "old-token")
		require.Error(t, err)
	}
	assert.True(t, errors.Is(err, circuitbreaker.ErrOpen))

	id, err := p.Publish(context.Background(), &models.Post{Content: "Hi"}, threadsAccount())
	require.NoError(t, err)
	assert.Equal(t, "thread-1", id)
	assert.Equal(t, int32(1), published.Load())
}

func TestThreadsRefreshToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /refresh_access_token", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "th_refresh_token", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "old-token", r.URL.Query().Get("access_token"))
		w.Write([]byte(`{"access_token":"new-token","token_type":"bearer","expires_in":5184000}`))
	})

	p := newThreadsPublisher(t, mux)
	token, err := p.RefreshToken(context.Background(), "old-token")
	require.NoError(t, err)
	assert.Equal(t, "new-token", token.AccessToken)
	assert.Equal(t, 5184000, token.ExpiresIn)
}
