package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/platform"
)

const (
	defaultEngagementDays = 30
	maxEngagementDays     = 90
)

type EngagementService interface {
	// GetEngagement never fails; an unavailable report has Available false.
	GetEngagement(ctx context.Context, workspaceID string, p models.Platform, days int) *models.EngagementReport
}

type engagementService struct {
	accounts AccountService
	registry *platform.Registry
	now      func() time.Time
}

func NewEngagementService(accounts AccountService, registry *platform.Registry) EngagementService {
	return &engagementService{
		accounts: accounts,
		registry: registry,
		now:      time.Now,
	}
}

func (s *engagementService) GetEngagement(ctx context.Context, workspaceID string, p models.Platform, days int) *models.EngagementReport {
	if days <= 0 {
		days = defaultEngagementDays
	}
	if days > maxEngagementDays {
		days = maxEngagementDays
	}

	until := s.now().UTC()
	y, m, d := until.AddDate(0, 0, -days).Date()
	since := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	report := &models.EngagementReport{Platform: p, Since: since, Until: until}

	fetcher, ok := s.registry.Engagement(p)
	if !ok {
		return report
	}

	acc, err := s.accounts.FindByWorkspaceAndPlatform(ctx, workspaceID, p)
	if err != nil {
		slog.Warn("engagement account lookup failed", "platform", p, "error", err)
		return report
	}
	if acc == nil || acc.NeedsReconnect(until) {
		return report
	}

	metrics, err := fetcher.FetchEngagement(ctx, acc, since, until)
	if err != nil {
		slog.Warn("engagement fetch failed", "platform", p, "error", err)
		return report
	}

	report.Available = true
	report.EngagementMetrics = *metrics
	report.TotalEngagements = metrics.TotalEngagements()
	report.EngagementRate = metrics.EngagementRate()
	return report
}
