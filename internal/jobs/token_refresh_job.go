package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/postflow/internal/metrics"
	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/maheshrc27/postflow/internal/service"
	"golang.org/x/sync/errgroup"
)

const (
	refreshWindow    = 30 * time.Minute
	refreshLimit     = 10
	refreshRunBudget = 5 * time.Minute
)

type TokenRefreshJob struct {
	sr repository.SocialAccountRepository
	ts service.TokenService
	m  *metrics.Metrics
}

func NewTokenRefreshJob(sr repository.SocialAccountRepository, ts service.TokenService, m *metrics.Metrics) *TokenRefreshJob {
	return &TokenRefreshJob{
		sr: sr,
		ts: ts,
		m:  m,
	}
}

func (j *TokenRefreshJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshRunBudget)
	defer cancel()

	j.RefreshTokens(ctx)
}

// RefreshTokens renews every active account whose token expires within the
// refresh window. A failed account is logged and left for the next run.
func (j *TokenRefreshJob) RefreshTokens(ctx context.Context) int {
	accounts, err := j.sr.ListExpiringBefore(ctx, time.Now().Add(refreshWindow))
	if err != nil {
		slog.Info(err.Error())
		return 0
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshLimit)

	refreshed := make(chan struct{}, len(accounts))
	for _, acc := range accounts {
		g.Go(func() error {
			err := j.ts.RefreshAccount(gctx, acc)
			j.m.ObserveTokenRefresh(string(acc.Platform), err)
			if err != nil {
				slog.Warn("unable to refresh account token", "account_id", acc.ID, "platform", acc.Platform, "error", err)
				return nil
			}
			refreshed <- struct{}{}
			return nil
		})
	}
	_ = g.Wait()
	close(refreshed)

	count := len(refreshed)
	if len(accounts) > 0 {
		slog.Info("token refresh finished", "due", len(accounts), "refreshed", count)
	}
	return count
}
