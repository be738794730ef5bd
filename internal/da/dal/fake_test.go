package dal

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zk-thunder/da-pipeline/internal/da"
)

func TestInsertL1BatchDAIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := NewFake()
	require.NoError(t, f.InsertL1BatchDA(ctx, 1, "blob-a", time.Now()))
	require.NoError(t, f.InsertL1BatchDA(ctx, 1, "blob-a", time.Now()))

	err := f.InsertL1BatchDA(ctx, 1, "blob-b", time.Now())
	require.Error(t, err)
}

func TestSaveInclusionDataIsMonotone(t *testing.T) {
	ctx := context.Background()
	f := NewFake()
	require.NoError(t, f.InsertL1BatchDA(ctx, 1, "blob-a", time.Now()))

	require.NoError(t, f.SaveL1BatchInclusionData(ctx, 1, []byte("tx1")))
	require.NoError(t, f.SaveL1BatchInclusionData(ctx, 1, []byte("tx1")))

	err := f.SaveL1BatchInclusionData(ctx, 1, []byte("tx2"))
	require.Error(t, err)
}

func TestGetFirstDABlobAwaitingInclusionOrdersByBatchNumber(t *testing.T) {
	ctx := context.Background()
	f := NewFake()
	require.NoError(t, f.InsertL1BatchDA(ctx, 5, "blob-5", time.Now()))
	require.NoError(t, f.InsertL1BatchDA(ctx, 2, "blob-2", time.Now()))
	require.NoError(t, f.SaveL1BatchInclusionData(ctx, 5, []byte("tx5")))

	b, err := f.GetFirstDABlobAwaitingInclusion(ctx)
	require.NoError(t, err)
	require.NotNil(t, b)
	require.Equal(t, uint32(2), b.L1BatchNumber)
}

func TestGetReadyForDADispatchL1BatchesExcludesAlreadyPublished(t *testing.T) {
	ctx := context.Background()
	f := NewFake()
	f.SeedReadyBatches(
		da.L1BatchForDispatch{L1BatchNumber: 1},
		da.L1BatchForDispatch{L1BatchNumber: 2},
		da.L1BatchForDispatch{L1BatchNumber: 3},
	)
	require.NoError(t, f.InsertL1BatchDA(ctx, 2, "blob-2", time.Now()))

	got, err := f.GetReadyForDADispatchL1Batches(ctx, 100)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, uint32(1), got[0].L1BatchNumber)
	require.Equal(t, uint32(3), got[1].L1BatchNumber)
}

func TestPendingIPFSOperationsEligibility(t *testing.T) {
	ctx := context.Background()
	f := NewFake()

	pending := da.NewPendingIPFSOperation(uuid.New(), da.OperationCommit, []byte("a"), false)
	maxedOut := da.NewPendingIPFSOperation(uuid.New(), da.OperationCommit, []byte("b"), false)
	maxedOut.Status = da.StatusFailed
	maxedOut.Attempts = da.MaxRetryAttempts
	underCeiling := da.NewPendingIPFSOperation(uuid.New(), da.OperationCommit, []byte("c"), false)
	underCeiling.Status = da.StatusFailed
	underCeiling.Attempts = da.MaxRetryAttempts - 1
	completed := da.NewPendingIPFSOperation(uuid.New(), da.OperationCommit, []byte("d"), false)
	completed.Status = da.StatusCompleted

	for _, op := range []da.PendingIPFSOperation{pending, maxedOut, underCeiling, completed} {
		require.NoError(t, f.SavePendingOperation(ctx, op))
	}

	got, err := f.GetPendingIPFSOperations(ctx, 100)
	require.NoError(t, err)
	ids := map[uuid.UUID]bool{}
	for _, op := range got {
		ids[op.ID] = true
	}
	require.True(t, ids[pending.ID])
	require.True(t, ids[underCeiling.ID])
	require.False(t, ids[maxedOut.ID])
	require.False(t, ids[completed.ID])
}

func TestCleanupOldOperationsRemovesOnlyTerminalAgedRows(t *testing.T) {
	ctx := context.Background()
	f := NewFake()
	cutoff := time.Now()

	old := da.NewPendingIPFSOperation(uuid.New(), da.OperationCommit, []byte("a"), false)
	old.Status = da.StatusCompleted
	old.CreatedAt = cutoff.Add(-48 * time.Hour)

	recent := da.NewPendingIPFSOperation(uuid.New(), da.OperationCommit, []byte("b"), false)
	recent.Status = da.StatusCompleted
	recent.CreatedAt = cutoff.Add(time.Hour)

	oldButRetryable := da.NewPendingIPFSOperation(uuid.New(), da.OperationCommit, []byte("c"), false)
	oldButRetryable.Status = da.StatusFailed
	oldButRetryable.Attempts = 1
	oldButRetryable.CreatedAt = cutoff.Add(-48 * time.Hour)

	for _, op := range []da.PendingIPFSOperation{old, recent, oldButRetryable} {
		require.NoError(t, f.SavePendingOperation(ctx, op))
	}

	deletedIPFS, deletedML, err := f.CleanupOldOperations(ctx, cutoff)
	require.NoError(t, err)
	require.Equal(t, int64(1), deletedIPFS)
	require.Equal(t, int64(0), deletedML)

	remaining, err := f.GetPendingIPFSOperations(ctx, 100)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, oldButRetryable.ID, remaining[0].ID)
}

// TestInsertL1BatchDAPropertyIdempotent is a property test over P1/P2 style
// invariants: inserting the same (batch, blob) pair any number of times in
// any order never errors and never changes the stored blob_id.
func TestInsertL1BatchDAPropertyIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := context.Background()
		f := NewFake()
		batch := uint32(rapid.IntRange(0, 1000).Draw(t, "batch"))
		blobID := rapid.StringMatching(`[a-zA-Z0-9]{8,16}`).Draw(t, "blob")
		repeats := rapid.IntRange(1, 5).Draw(t, "repeats")

		for i := 0; i < repeats; i++ {
			require.NoError(t, f.InsertL1BatchDA(ctx, batch, blobID, time.Now()))
		}

		b, err := f.GetFirstDABlobAwaitingInclusion(ctx)
		require.NoError(t, err)
		require.NotNil(t, b)
		require.Equal(t, blobID, b.BlobID)
	})
}
