package job

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

type Schedules struct {
	Dispatch     string
	Reconcile    string
	TokenRefresh string
}

type Manager struct {
	engine          *cron.Cron
	schedules       Schedules
	dispatchJob     *DispatchJob
	reconcileJob    *ReconcileJob
	tokenRefreshJob *TokenRefreshJob
}

func NewCronManager(schedules Schedules, dispatchJob *DispatchJob, reconcileJob *ReconcileJob, tokenRefreshJob *TokenRefreshJob) *Manager {
	return &Manager{
		// overlapping runs of the same job are skipped, not queued
		engine:          cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		schedules:       schedules,
		dispatchJob:     dispatchJob,
		reconcileJob:    reconcileJob,
		tokenRefreshJob: tokenRefreshJob,
	}
}

func (m *Manager) RegisterJobs() error {
	if _, err := m.engine.AddJob(m.schedules.Dispatch, m.dispatchJob); err != nil {
		return err
	}
	if _, err := m.engine.AddJob(m.schedules.Reconcile, m.reconcileJob); err != nil {
		return err
	}
	if _, err := m.engine.AddJob(m.schedules.TokenRefresh, m.tokenRefreshJob); err != nil {
		return err
	}
	return nil
}

func (m *Manager) Start() {
	slog.Info("cron engine started", "jobs", len(m.engine.Entries()))
	m.engine.Start()
}

// Stop halts scheduling and waits for running jobs to finish.
func (m *Manager) Stop() {
	<-m.engine.Stop().Done()
	slog.Info("cron engine stopped")
}
