// Package dal is the data access layer for the DA pipeline's Postgres
// tables: the data_availability ledger and the two pending-operation queues.
// Store is implemented both by Postgres (postgres.go) and by an in-memory
// Fake (fake.go) so the worker loops can be unit tested without a live
// database, the same split the teacher draws between its actual state
// database and its in-memory test backends.
package dal

import (
	"context"
	"time"

	"github.com/zk-thunder/da-pipeline/internal/da"
)

// Store is the full set of operations the worker loops and the dispatch
// subsystem need against the three pipeline tables.
type Store interface {
	// InsertL1BatchDA records a newly-published blob for an L1 batch.
	// Idempotent: a second insert for the same batch number with a matching
	// blob_id is a silent no-op; a mismatched blob_id is a ConstraintError.
	InsertL1BatchDA(ctx context.Context, batchNumber uint32, blobID string, sentAt time.Time) error

	// SaveL1BatchInclusionData sets inclusion_data exactly once for a batch
	// number; a second call with a different payload is a ConstraintError,
	// a second call with the same payload is a no-op.
	SaveL1BatchInclusionData(ctx context.Context, batchNumber uint32, inclusionData []byte) error

	// GetFirstDABlobAwaitingInclusion returns the oldest blob with no
	// inclusion_data yet, or nil if none are outstanding.
	GetFirstDABlobAwaitingInclusion(ctx context.Context) (*da.DataAvailabilityBlob, error)

	// GetReadyForDADispatchL1Batches returns up to limit batches that have
	// been sealed (present in l1_batches) but have no data_availability row
	// yet, oldest first.
	GetReadyForDADispatchL1Batches(ctx context.Context, limit int) ([]da.L1BatchForDispatch, error)

	// GetPendingIPFSOperations returns up to limit rows eligible for
	// dispatch: status=pending, or status=failed with attempts below the
	// ceiling, oldest created_at first.
	GetPendingIPFSOperations(ctx context.Context, limit int) ([]da.PendingIPFSOperation, error)

	// GetPendingMintlayerBatches mirrors GetPendingIPFSOperations for the
	// Mintlayer queue.
	GetPendingMintlayerBatches(ctx context.Context, limit int) ([]da.PendingMintlayerBatch, error)

	// UpdateIPFSOperation persists status/attempts/last_attempt/ipfs_hash
	// for an existing row.
	UpdateIPFSOperation(ctx context.Context, op da.PendingIPFSOperation) error

	// UpdateMintlayerBatch upserts a batch row (INSERT ... ON CONFLICT DO
	// UPDATE): on conflict it updates ipfs_hashes, status, attempts,
	// last_attempt and tx_hash; id and created_at keep their inserted values.
	UpdateMintlayerBatch(ctx context.Context, batch da.PendingMintlayerBatch) error

	// SavePendingOperation inserts a brand-new pending_ipfs_operations row.
	SavePendingOperation(ctx context.Context, op da.PendingIPFSOperation) error

	// CleanupOldOperations deletes terminal (completed or failed-at-ceiling)
	// rows older than the retention cutoff from both pending tables in a
	// single transaction, returning the row counts removed from each.
	CleanupOldOperations(ctx context.Context, olderThan time.Time) (deletedIPFS, deletedMintlayer int64, err error)
}
