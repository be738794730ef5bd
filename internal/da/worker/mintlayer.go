package worker

import (
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/zk-thunder/da-pipeline/internal/da"
	"github.com/zk-thunder/da-pipeline/internal/da/circuitbreaker"
	"github.com/zk-thunder/da-pipeline/internal/da/dal"
	"github.com/zk-thunder/da-pipeline/internal/da/mintlayer"
	"github.com/zk-thunder/da-pipeline/internal/da/retry"
	"github.com/zk-thunder/da-pipeline/internal/errs"
	"github.com/zk-thunder/da-pipeline/internal/log"
)

// MintlayerWorker polls pending_mintlayer_batches and anchors each closed
// batch's IPFS hashes on-chain via address_deposit_data, per spec §4.3.
type MintlayerWorker struct {
	store   dal.Store
	client  *mintlayer.Client
	breaker *circuitbreaker.Breaker
	limiter *rate.Limiter
	metrics *Metrics
	log     log.Logger

	pollInterval   time.Duration
	batchSize      int
	batchFullSize  int
	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration
}

// MintlayerWorkerConfig configures a MintlayerWorker.
type MintlayerWorkerConfig struct {
	PollInterval time.Duration
	// BatchSize bounds how many batch rows a single poll cycle fetches.
	BatchSize int
	// BatchFullSize is the same threshold IPFSWorker uses to decide when a
	// batch stops accepting new hashes; a pending batch under this size is
	// still accumulating and is skipped rather than dispatched early.
	BatchFullSize      int
	RetryBaseDelay     time.Duration
	RetryMaxDelay      time.Duration
	RateLimitPerSecond float64
	FailureThreshold   uint32
	ResetTimeout       time.Duration
}

// NewMintlayerWorker builds a MintlayerWorker anchoring batches on-chain
// via client.
func NewMintlayerWorker(store dal.Store, client *mintlayer.Client, m *Metrics, cfg MintlayerWorkerConfig) *MintlayerWorker {
	limit := rate.Limit(cfg.RateLimitPerSecond)
	if cfg.RateLimitPerSecond <= 0 {
		limit = rate.Inf
	}
	return &MintlayerWorker{
		store:          store,
		client:         client,
		breaker:        circuitbreaker.New(cfg.FailureThreshold, cfg.ResetTimeout),
		limiter:        rate.NewLimiter(limit, 1),
		metrics:        m,
		log:            log.New("worker", "mintlayer"),
		pollInterval:   cfg.PollInterval,
		batchSize:      cfg.BatchSize,
		batchFullSize:  cfg.BatchFullSize,
		retryBaseDelay: cfg.RetryBaseDelay,
		retryMaxDelay:  cfg.RetryMaxDelay,
	}
}

// Run polls until ctx is cancelled.
func (w *MintlayerWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.pollOnce(ctx); err != nil {
				w.log.Error("poll cycle failed", "err", err)
			}
		}
	}
}

func (w *MintlayerWorker) pollOnce(ctx context.Context) error {
	batches, err := w.store.GetPendingMintlayerBatches(ctx, w.batchSize)
	if err != nil {
		return errs.Database(err)
	}
	w.metrics.MintlayerQueueSize.SetInt(len(batches))
	for _, b := range batches {
		w.process(ctx, b)
	}
	return nil
}

func (w *MintlayerWorker) process(ctx context.Context, batch da.PendingMintlayerBatch) {
	if len(batch.IPFSHashes) == 0 {
		return
	}
	if batch.Status == da.StatusPending && batch.IsOpen(w.batchFullSize) {
		return // still accumulating hashes, not ready to dispatch yet
	}
	if w.breaker.IsOpen() {
		w.log.Warn("circuit breaker open, skipping batch", "id", batch.ID)
		return
	}
	if err := w.limiter.Wait(ctx); err != nil {
		return
	}

	start := time.Now()
	txHash, err := w.depositWithBackoff(ctx, &batch)
	w.metrics.MintlayerOperationDuration.ObserveDuration(start)

	now := time.Now().UTC()
	batch.LastAttempt = &now

	if err != nil {
		w.metrics.MintlayerErrors.Inc()
		if w.breaker.RecordFailure() {
			w.metrics.CircuitBreakerTrips.Inc()
		}
		batch.FailureReason = err.Error()
		batch.Status = da.StatusFailed
		w.log.Error("batch exceeded retry ceiling", "id", batch.ID, "attempts", batch.Attempts, "err", err)
		if uerr := w.store.UpdateMintlayerBatch(ctx, batch); uerr != nil {
			w.log.Error("failed to persist batch failure", "id", batch.ID, "err", uerr)
		}
		return
	}

	w.metrics.MintlayerSuccess.Inc()
	batch.Status = da.StatusCompleted
	batch.TxHash = &txHash
	if uerr := w.store.UpdateMintlayerBatch(ctx, batch); uerr != nil {
		w.log.Error("failed to persist batch success", "id", batch.ID, "err", uerr)
	}
}

// depositWithBackoff retries AddressDepositData in place, sleeping the
// exponential backoff delay between attempts, until it succeeds or batch's
// attempt count reaches the retry ceiling. batch.Attempts is updated as
// attempts are spent.
func (w *MintlayerWorker) depositWithBackoff(ctx context.Context, batch *da.PendingMintlayerBatch) (string, error) {
	payload := encodeHashes(batch.IPFSHashes)
	for {
		txHash, err := w.client.AddressDepositData(ctx, payload)
		if err == nil {
			return txHash, nil
		}

		batch.Attempts++
		w.metrics.MintlayerRetryCount.Inc()
		if batch.Attempts >= da.MaxRetryAttempts {
			return "", err
		}

		delay := w.backoffDelay(batch.Attempts - 1)
		w.log.Warn("batch attempt failed", "id", batch.ID, "attempt", batch.Attempts,
			"next_retry_in", delay, "err", err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}
}

// backoffDelay reports the delay retry.ForAttempt would apply for attempt.
func (w *MintlayerWorker) backoffDelay(attempt uint32) time.Duration {
	return retry.ForAttempt(w.retryBaseDelay, w.retryMaxDelay, attempt)
}

// encodeHashes joins a batch's IPFS hashes with commas into the single data
// payload deposited on-chain, matching the original client's batching
// format.
func encodeHashes(hashes []string) []byte {
	return []byte(strings.Join(hashes, ","))
}
