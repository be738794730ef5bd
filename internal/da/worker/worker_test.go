package worker

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zk-thunder/da-pipeline/internal/da"
	"github.com/zk-thunder/da-pipeline/internal/da/dal"
	"github.com/zk-thunder/da-pipeline/internal/da/mintlayer"
	"github.com/zk-thunder/da-pipeline/internal/da/objectstore"
	"github.com/zk-thunder/da-pipeline/internal/metrics"
)

func newTestObjectStore(t *testing.T, handler http.HandlerFunc) *objectstore.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := objectstore.New(context.Background(), objectstore.Options{
		Endpoint: srv.URL, Region: "us-east-1", APIKey: "k", SecretKey: "s", Bucket: "b",
	})
	require.NoError(t, err)
	return c
}

func TestIPFSWorkerPublishesPendingOperation(t *testing.T) {
	objects := newTestObjectStore(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			w.WriteHeader(http.StatusOK)
		case http.MethodHead:
			w.Header().Set("X-Amz-Meta-Ipfs-Hash", "bafy-1")
			w.WriteHeader(http.StatusOK)
		}
	})

	store := dal.NewFake()
	op := da.NewPendingIPFSOperation(uuid.New(), da.OperationCommit, []byte("payload"), true)
	require.NoError(t, store.SavePendingOperation(context.Background(), op))

	m := NewMetrics(metrics.NewRegistry())
	w := NewIPFSWorker(store, objects, m, IPFSWorkerConfig{
		PollInterval: time.Hour, BatchSize: 10, RetryBaseDelay: time.Millisecond,
		RetryMaxDelay: time.Second, FailureThreshold: 5, ResetTimeout: time.Minute,
		MintlayerBatchSize: 6,
	})

	require.NoError(t, w.pollOnce(context.Background()))

	got, err := store.GetPendingIPFSOperations(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 0) // completed rows are no longer eligible/pending

	batches, err := store.GetPendingMintlayerBatches(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	require.Contains(t, batches[0].IPFSHashes, "bafy-1")
}

func TestIPFSWorkerRetriesInPlaceUntilCeilingThenFails(t *testing.T) {
	objects := newTestObjectStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	store := dal.NewFake()
	op := da.NewPendingIPFSOperation(uuid.New(), da.OperationCommit, []byte("payload"), false)
	require.NoError(t, store.SavePendingOperation(context.Background(), op))

	m := NewMetrics(metrics.NewRegistry())
	w := NewIPFSWorker(store, objects, m, IPFSWorkerConfig{
		PollInterval: time.Hour, BatchSize: 10, RetryBaseDelay: time.Microsecond,
		RetryMaxDelay: time.Millisecond, FailureThreshold: 5, ResetTimeout: time.Minute,
	})

	// A single poll cycle exhausts every retry in place, per the exponential
	// backoff sequence, rather than attempting once per poll cycle.
	require.NoError(t, w.pollOnce(context.Background()))

	got, err := store.GetPendingIPFSOperations(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 0) // exhausted the ceiling, no longer eligible for retry
	require.Equal(t, int64(da.MaxRetryAttempts), m.IPFSRetryCount.Value())
}

func TestMintlayerWorkerDispatchesFullBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Params struct {
				Data    string         `json:"data"`
				Account int            `json:"account"`
				Options map[string]any `json:"options"`
			} `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, hex.EncodeToString([]byte("h1,h2")), req.Params.Data)
		require.Equal(t, 0, req.Params.Account)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0xabc"}`))
	}))
	defer srv.Close()

	store := dal.NewFake()
	batch := da.NewPendingMintlayerBatch()
	batch.IPFSHashes = []string{"h1", "h2"}
	require.NoError(t, store.UpdateMintlayerBatch(context.Background(), batch))

	m := NewMetrics(metrics.NewRegistry())
	client := mintlayer.New(srv.URL, "", "")
	w := NewMintlayerWorker(store, client, m, MintlayerWorkerConfig{
		PollInterval: time.Hour, BatchSize: 10, BatchFullSize: 2,
		RetryBaseDelay: time.Millisecond, RetryMaxDelay: time.Second,
		FailureThreshold: 5, ResetTimeout: time.Minute,
	})

	require.NoError(t, w.pollOnce(context.Background()))

	got, err := store.GetPendingMintlayerBatches(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 0)
}

func TestCleanupWorkerDeletesAgedTerminalRows(t *testing.T) {
	store := dal.NewFake()
	old := da.NewPendingIPFSOperation(uuid.New(), da.OperationCommit, []byte("a"), false)
	old.Status = da.StatusCompleted
	old.CreatedAt = time.Now().Add(-30 * 24 * time.Hour)
	require.NoError(t, store.SavePendingOperation(context.Background(), old))

	m := NewMetrics(metrics.NewRegistry())
	w := NewCleanupWorker(store, m, CleanupWorkerConfig{Interval: time.Hour, DaysThreshold: 7})

	require.NoError(t, w.runOnce(context.Background()))
	require.Equal(t, int64(1), m.CleanupRowsDeleted.Value())

	got, err := store.GetPendingIPFSOperations(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 0)
}

func TestSupervisorStopsAllLoopsWhenOneReturns(t *testing.T) {
	first := loopFunc(func(ctx context.Context) error {
		return context.Canceled
	})
	secondStopped := make(chan struct{})
	second := loopFunc(func(ctx context.Context) error {
		<-ctx.Done()
		close(secondStopped)
		return ctx.Err()
	})

	s := NewSupervisor(first, second)
	_ = s.Run(context.Background())

	select {
	case <-secondStopped:
	case <-time.After(time.Second):
		t.Fatal("second loop was not cancelled")
	}
}

type loopFunc func(ctx context.Context) error

func (f loopFunc) Run(ctx context.Context) error { return f(ctx) }
