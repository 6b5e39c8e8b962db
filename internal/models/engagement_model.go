package models

import (
	"math"
	"time"
)

type EngagementMetrics struct {
	Views   int64 `json:"views"`
	Likes   int64 `json:"likes"`
	Replies int64 `json:"replies"`
	Reposts int64 `json:"reposts"`
	Quotes  int64 `json:"quotes"`
}

func (m EngagementMetrics) TotalEngagements() int64 {
	return m.Likes + m.Replies + m.Reposts + m.Quotes
}

// EngagementRate is the percentage of views that produced an interaction,
// rounded to two decimals. Zero views yields 0.
func (m EngagementMetrics) EngagementRate() float64 {
	if m.Views <= 0 {
		return 0
	}
	rate := float64(m.TotalEngagements()) / float64(m.Views) * 100
	return math.Round(rate*100) / 100
}

type EngagementReport struct {
	Platform  Platform  `json:"platform"`
	Available bool      `json:"available"`
	Since     time.Time `json:"since"`
	Until     time.Time `json:"until"`

	EngagementMetrics
	TotalEngagements int64   `json:"total_engagements"`
	EngagementRate   float64 `json:"engagement_rate"`
}
