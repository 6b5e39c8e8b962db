package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/postflow/internal/service"
)

type DispatchJob struct {
	ds      service.DispatchService
	timeout time.Duration
}

func NewDispatchJob(ds service.DispatchService, timeout time.Duration) *DispatchJob {
	return &DispatchJob{ds: ds, timeout: timeout}
}

func (j *DispatchJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.ds.RunDispatchCycle(ctx); err != nil {
		slog.Error("dispatch cycle failed", "error", err)
	}
}

type ReconcileJob struct {
	ds      service.DispatchService
	timeout time.Duration
}

func NewReconcileJob(ds service.DispatchService, timeout time.Duration) *ReconcileJob {
	return &ReconcileJob{ds: ds, timeout: timeout}
}

func (j *ReconcileJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	if _, err := j.ds.ReconcileStuckPending(ctx); err != nil {
		slog.Error("reconcile sweep failed", "error", err)
	}
}
