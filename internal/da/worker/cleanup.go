package worker

import (
	"context"
	"time"

	"github.com/zk-thunder/da-pipeline/internal/da/dal"
	"github.com/zk-thunder/da-pipeline/internal/errs"
	"github.com/zk-thunder/da-pipeline/internal/log"
)

// CleanupWorker periodically deletes terminal pending-operation rows past
// the configured retention window, per spec §4.4.
type CleanupWorker struct {
	store dal.Store
	metrics *Metrics
	log   log.Logger

	interval      time.Duration
	daysThreshold int
}

// CleanupWorkerConfig configures a CleanupWorker.
type CleanupWorkerConfig struct {
	Interval      time.Duration
	DaysThreshold int
}

// NewCleanupWorker builds a CleanupWorker.
func NewCleanupWorker(store dal.Store, m *Metrics, cfg CleanupWorkerConfig) *CleanupWorker {
	return &CleanupWorker{
		store:         store,
		metrics:       m,
		log:           log.New("worker", "cleanup"),
		interval:      cfg.Interval,
		daysThreshold: cfg.DaysThreshold,
	}
}

// Run runs a cleanup pass immediately, then once per interval, until ctx is
// cancelled.
func (w *CleanupWorker) Run(ctx context.Context) error {
	if err := w.runOnce(ctx); err != nil {
		w.log.Error("cleanup pass failed", "err", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.runOnce(ctx); err != nil {
				w.log.Error("cleanup pass failed", "err", err)
			}
		}
	}
}

func (w *CleanupWorker) runOnce(ctx context.Context) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -w.daysThreshold)
	ipfsDeleted, mlDeleted, err := w.store.CleanupOldOperations(ctx, cutoff)
	if err != nil {
		return errs.Database(err)
	}
	w.metrics.CleanupRuns.Inc()
	w.metrics.CleanupRowsDeleted.Add(ipfsDeleted + mlDeleted)
	w.log.Info("cleanup pass complete", "ipfs_deleted", ipfsDeleted, "mintlayer_deleted", mlDeleted, "cutoff", cutoff)
	return nil
}
