package dal

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zk-thunder/da-pipeline/internal/da"
	"github.com/zk-thunder/da-pipeline/internal/errs"
)

// Fake is an in-memory Store for unit tests, mirroring the Postgres
// semantics (idempotent inserts, monotone inclusion_data, the
// pending/failed-under-ceiling eligibility predicate) without a database.
type Fake struct {
	mu sync.Mutex

	blobs        map[uint32]da.DataAvailabilityBlob
	readyBatches []da.L1BatchForDispatch
	ipfsOps      map[uuid.UUID]da.PendingIPFSOperation
	mintlayerOps map[uuid.UUID]da.PendingMintlayerBatch
}

// NewFake builds an empty in-memory Store.
func NewFake() *Fake {
	return &Fake{
		blobs:        make(map[uint32]da.DataAvailabilityBlob),
		ipfsOps:      make(map[uuid.UUID]da.PendingIPFSOperation),
		mintlayerOps: make(map[uuid.UUID]da.PendingMintlayerBatch),
	}
}

// SeedReadyBatches lets a test pre-populate what
// GetReadyForDADispatchL1Batches returns, since Fake has no backing
// l1_batches table of its own.
func (f *Fake) SeedReadyBatches(batches ...da.L1BatchForDispatch) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readyBatches = append(f.readyBatches, batches...)
}

func (f *Fake) InsertL1BatchDA(_ context.Context, batchNumber uint32, blobID string, sentAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.blobs[batchNumber]; ok {
		if existing.BlobID != blobID {
			return errs.Constraintf("l1 batch %d already has blob_id %q, refusing to overwrite with %q",
				batchNumber, existing.BlobID, blobID)
		}
		return nil
	}
	now := sentAt
	f.blobs[batchNumber] = da.DataAvailabilityBlob{
		L1BatchNumber: batchNumber,
		BlobID:        blobID,
		SentAt:        sentAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return nil
}

func (f *Fake) SaveL1BatchInclusionData(_ context.Context, batchNumber uint32, inclusionData []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.blobs[batchNumber]
	if !ok {
		return errs.Constraintf("no data_availability row for l1 batch %d", batchNumber)
	}
	if b.InclusionData != nil {
		if string(b.InclusionData) != string(inclusionData) {
			return errs.Constraintf("l1 batch %d already has inclusion_data, refusing to overwrite", batchNumber)
		}
		return nil
	}
	b.InclusionData = inclusionData
	f.blobs[batchNumber] = b
	return nil
}

func (f *Fake) GetFirstDABlobAwaitingInclusion(_ context.Context) (*da.DataAvailabilityBlob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var nums []uint32
	for n, b := range f.blobs {
		if b.InclusionData == nil {
			nums = append(nums, n)
		}
	}
	if len(nums) == 0 {
		return nil, nil
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	b := f.blobs[nums[0]]
	return &b, nil
}

func (f *Fake) GetReadyForDADispatchL1Batches(_ context.Context, limit int) ([]da.L1BatchForDispatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	candidates := append([]da.L1BatchForDispatch(nil), f.readyBatches...)
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].L1BatchNumber < candidates[j].L1BatchNumber })
	var out []da.L1BatchForDispatch
	for _, b := range candidates {
		if _, exists := f.blobs[b.L1BatchNumber]; exists {
			continue
		}
		out = append(out, b)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func eligible(status da.OperationStatus, attempts uint32) bool {
	return status == da.StatusPending || (status == da.StatusFailed && attempts < da.MaxRetryAttempts)
}

func (f *Fake) GetPendingIPFSOperations(_ context.Context, limit int) ([]da.PendingIPFSOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []da.PendingIPFSOperation
	for _, op := range f.ipfsOps {
		if eligible(op.Status, op.Attempts) {
			out = append(out, op)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *Fake) GetPendingMintlayerBatches(_ context.Context, limit int) ([]da.PendingMintlayerBatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []da.PendingMintlayerBatch
	for _, b := range f.mintlayerOps {
		if eligible(b.Status, b.Attempts) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *Fake) UpdateIPFSOperation(_ context.Context, op da.PendingIPFSOperation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.ipfsOps[op.ID]; !ok {
		return errs.Constraintf("no pending_ipfs_operations row with id %s", op.ID)
	}
	f.ipfsOps[op.ID] = op
	return nil
}

func (f *Fake) UpdateMintlayerBatch(_ context.Context, batch da.PendingMintlayerBatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mintlayerOps[batch.ID] = batch
	return nil
}

func (f *Fake) SavePendingOperation(_ context.Context, op da.PendingIPFSOperation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ipfsOps[op.ID] = op
	return nil
}

func (f *Fake) CleanupOldOperations(_ context.Context, olderThan time.Time) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deletedIPFS, deletedMintlayer int64
	for id, op := range f.ipfsOps {
		if op.CreatedAt.Before(olderThan) && (op.Status == da.StatusCompleted ||
			(op.Status == da.StatusFailed && op.Attempts >= da.MaxRetryAttempts)) {
			delete(f.ipfsOps, id)
			deletedIPFS++
		}
	}
	for id, b := range f.mintlayerOps {
		if b.CreatedAt.Before(olderThan) && (b.Status == da.StatusCompleted ||
			(b.Status == da.StatusFailed && b.Attempts >= da.MaxRetryAttempts)) {
			delete(f.mintlayerOps, id)
			deletedMintlayer++
		}
	}
	return deletedIPFS, deletedMintlayer, nil
}

var _ Store = (*Fake)(nil)
var _ Store = (*Postgres)(nil)
