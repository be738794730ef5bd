package worker

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"golang.org/x/time/rate"

	"github.com/zk-thunder/da-pipeline/internal/da"
	"github.com/zk-thunder/da-pipeline/internal/da/circuitbreaker"
	"github.com/zk-thunder/da-pipeline/internal/da/dal"
	"github.com/zk-thunder/da-pipeline/internal/da/objectstore"
	"github.com/zk-thunder/da-pipeline/internal/da/retry"
	"github.com/zk-thunder/da-pipeline/internal/errs"
	"github.com/zk-thunder/da-pipeline/internal/log"
)

// dedupeCacheBytes sizes the in-process content-hash cache that lets a
// worker skip re-uploading a payload it already published this process
// lifetime; it is not a replacement for the durable ipfs_hash column.
const dedupeCacheBytes = 32 * 1024 * 1024

// IPFSWorker polls pending_ipfs_operations and publishes each payload to the
// object store, per spec §4.2.
type IPFSWorker struct {
	store   dal.Store
	objects *objectstore.Client
	breaker *circuitbreaker.Breaker
	limiter *rate.Limiter
	dedupe  *fastcache.Cache
	metrics *Metrics
	log     log.Logger

	pollInterval       time.Duration
	batchSize          int
	retryBaseDelay     time.Duration
	retryMaxDelay      time.Duration
	mintlayerBatchSize int
}

// IPFSWorkerConfig configures an IPFSWorker.
type IPFSWorkerConfig struct {
	PollInterval       time.Duration
	BatchSize          int
	RetryBaseDelay     time.Duration
	RetryMaxDelay      time.Duration
	RateLimitPerSecond float64
	FailureThreshold   uint32
	ResetTimeout       time.Duration
	MintlayerBatchSize int
}

// NewIPFSWorker builds an IPFSWorker against store/objects, publishing
// metrics onto m.
func NewIPFSWorker(store dal.Store, objects *objectstore.Client, m *Metrics, cfg IPFSWorkerConfig) *IPFSWorker {
	limit := rate.Limit(cfg.RateLimitPerSecond)
	if cfg.RateLimitPerSecond <= 0 {
		limit = rate.Inf
	}
	return &IPFSWorker{
		store:              store,
		objects:            objects,
		breaker:            circuitbreaker.New(cfg.FailureThreshold, cfg.ResetTimeout),
		limiter:            rate.NewLimiter(limit, 1),
		dedupe:             fastcache.New(dedupeCacheBytes),
		metrics:            m,
		log:                log.New("worker", "ipfs"),
		pollInterval:       cfg.PollInterval,
		batchSize:          cfg.BatchSize,
		retryBaseDelay:     cfg.RetryBaseDelay,
		retryMaxDelay:      cfg.RetryMaxDelay,
		mintlayerBatchSize: cfg.MintlayerBatchSize,
	}
}

// Run polls until ctx is cancelled, publishing each eligible operation.
func (w *IPFSWorker) Run(ctx context.Context) error {
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

func (w *IPFSWorker) pollOnce(ctx context.Context) error {
	ops, err := w.store.GetPendingIPFSOperations(ctx, w.batchSize)
	if err != nil {
		return errs.Database(err)
	}
	w.metrics.IPFSQueueSize.SetInt(len(ops))
	for _, op := range ops {
		w.process(ctx, op)
	}
	return nil
}

func (w *IPFSWorker) process(ctx context.Context, op da.PendingIPFSOperation) {
	if w.breaker.IsOpen() {
		w.log.Warn("circuit breaker open, skipping operation", "id", op.ID)
		return
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return
	}

	start := time.Now()
	hash, err := w.uploadWithBackoff(ctx, &op)
	w.metrics.IPFSOperationDuration.ObserveDuration(start)

	now := time.Now().UTC()
	op.LastAttempt = &now

	if err != nil {
		w.metrics.IPFSErrors.Inc()
		if w.breaker.RecordFailure() {
			w.metrics.CircuitBreakerTrips.Inc()
		}
		op.FailureReason = err.Error()
		op.Status = da.StatusFailed
		w.log.Error("operation exceeded retry ceiling", "id", op.ID, "attempts", op.Attempts, "err", err)
		if uerr := w.store.UpdateIPFSOperation(ctx, op); uerr != nil {
			w.log.Error("failed to persist operation failure", "id", op.ID, "err", uerr)
		}
		return
	}

	w.metrics.IPFSSuccess.Inc()
	op.Status = da.StatusCompleted
	op.IPFSHash = &hash
	if uerr := w.store.UpdateIPFSOperation(ctx, op); uerr != nil {
		w.log.Error("failed to persist operation success", "id", op.ID, "err", uerr)
		return
	}

	if op.RequiresMintlayer {
		if err := w.enqueueMintlayer(ctx, hash); err != nil {
			w.log.Error("failed to enqueue mintlayer batch entry", "id", op.ID, "err", err)
		}
	}
}

// uploadWithBackoff retries upload in place, sleeping the exponential
// backoff delay between attempts, until it succeeds or op's attempt count
// reaches the retry ceiling. op.Attempts is updated as attempts are spent.
func (w *IPFSWorker) uploadWithBackoff(ctx context.Context, op *da.PendingIPFSOperation) (string, error) {
	for {
		hash, err := w.upload(ctx, *op)
		if err == nil {
			return hash, nil
		}

		op.Attempts++
		w.metrics.IPFSRetryCount.Inc()
		if op.Attempts >= da.MaxRetryAttempts {
			return "", err
		}

		delay := w.backoffDelay(op.Attempts - 1)
		w.log.Warn("operation attempt failed", "id", op.ID, "attempt", op.Attempts,
			"next_retry_in", delay, "err", err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}
}

// upload publishes op.Data, skipping the network call entirely when an
// identical payload was already published earlier in this process
// lifetime.
func (w *IPFSWorker) upload(ctx context.Context, op da.PendingIPFSOperation) (string, error) {
	digest := sha256.Sum256(op.Data)
	key := hex.EncodeToString(digest[:])
	if cached := w.dedupe.Get(nil, digest[:]); len(cached) > 0 {
		return string(cached), nil
	}
	hash, err := w.objects.Put(ctx, key, op.Data)
	if err != nil {
		return "", err
	}
	w.dedupe.Set(digest[:], []byte(hash))
	return hash, nil
}

// enqueueMintlayer appends hash to the oldest open batch (pending and under
// the configured size), opening a fresh one when no batch is open (spec §4.3).
func (w *IPFSWorker) enqueueMintlayer(ctx context.Context, hash string) error {
	batches, err := w.store.GetPendingMintlayerBatches(ctx, da.MaxPollBatchRows)
	if err != nil {
		return errs.Database(err)
	}

	var batch da.PendingMintlayerBatch
	found := false
	for _, b := range batches {
		if b.IsOpen(w.mintlayerBatchSize) {
			batch, found = b, true
			break
		}
	}
	if !found {
		batch = da.NewPendingMintlayerBatch()
	}
	batch.IPFSHashes = append(batch.IPFSHashes, hash)
	return w.store.UpdateMintlayerBatch(ctx, batch)
}

// backoffDelay reports the delay retry.ForAttempt would apply for attempt,
// exposed for tests and for operators inspecting expected retry timing.
func (w *IPFSWorker) backoffDelay(attempt uint32) time.Duration {
	return retry.ForAttempt(w.retryBaseDelay, w.retryMaxDelay, attempt)
}
