package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	PublishAttempts  *prometheus.CounterVec
	PublishDuration  *prometheus.HistogramVec
	DispatchedPosts  *prometheus.CounterVec
	DispatchCycles   prometheus.Counter
	TokenRefreshes   *prometheus.CounterVec
	QueueTaskResults *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PublishAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postflow_publish_attempts_total",
				Help: "Platform publish calls by platform and result",
			},
			[]string{"platform", "result"},
		),
		PublishDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "postflow_publish_duration_seconds",
				Help:    "Duration of a full post publish attempt",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		DispatchedPosts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postflow_dispatched_posts_total",
				Help: "Posts handled by the dispatcher by outcome",
			},
			[]string{"outcome"},
		),
		DispatchCycles: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "postflow_dispatch_cycles_total",
				Help: "Completed dispatch cycles",
			},
		),
		TokenRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postflow_token_refreshes_total",
				Help: "Account token refreshes by platform and result",
			},
			[]string{"platform", "result"},
		),
		QueueTaskResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "postflow_queue_task_results_total",
				Help: "Publish task executions by result",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(
		m.PublishAttempts,
		m.PublishDuration,
		m.DispatchedPosts,
		m.DispatchCycles,
		m.TokenRefreshes,
		m.QueueTaskResults,
	)
	return m
}

func (m *Metrics) ObservePlatformPublish(platform string, err error) {
	if m == nil {
		return
	}
	m.PublishAttempts.WithLabelValues(platform, result(err)).Inc()
}

func (m *Metrics) ObservePublish(status string, started time.Time) {
	if m == nil {
		return
	}
	m.PublishDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
}

func (m *Metrics) ObserveDispatch(outcome string) {
	if m == nil {
		return
	}
	m.DispatchedPosts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveDispatchCycle() {
	if m == nil {
		return
	}
	m.DispatchCycles.Inc()
}

func (m *Metrics) ObserveTokenRefresh(platform string, err error) {
	if m == nil {
		return
	}
	m.TokenRefreshes.WithLabelValues(platform, result(err)).Inc()
}

func (m *Metrics) ObserveTask(res string) {
	if m == nil {
		return
	}
	m.QueueTaskResults.WithLabelValues(res).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
