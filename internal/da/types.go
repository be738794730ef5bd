// Package da defines the domain types shared by the persistence layer, the
// worker loops, and the object-store/Mintlayer clients: the pending-queue
// schema and the L1-batch DA ledger described in spec.md §3.
package da

import (
	"time"

	"github.com/google/uuid"

	"github.com/zk-thunder/da-pipeline/internal/errs"
)

// MaxRetryAttempts is the hard ceiling on attempts for both pending-ipfs
// operations and pending-mintlayer batches (spec.md §3.4).
const MaxRetryAttempts = 10

// MaxPollBatchRows bounds how many rows a single poll cycle fetches from
// either pending table (spec.md §3.4, §4.1).
const MaxPollBatchRows = 100

// OperationType is the kind of L1-batch operation a pending IPFS upload
// carries (spec.md §3.2).
type OperationType int

const (
	OperationCommit OperationType = iota
	OperationProof
	OperationExecute
)

func (t OperationType) String() string {
	switch t {
	case OperationCommit:
		return "commit"
	case OperationProof:
		return "proof"
	case OperationExecute:
		return "execute"
	default:
		return "unknown"
	}
}

// ParseOperationType decodes a stored label. Per the REDESIGN FLAG in
// spec.md §9, an unrecognized label is a ConstraintError, never a panic.
func ParseOperationType(s string) (OperationType, error) {
	switch s {
	case "commit":
		return OperationCommit, nil
	case "proof":
		return OperationProof, nil
	case "execute":
		return OperationExecute, nil
	default:
		return 0, errs.Constraintf("unrecognized operation type: %q", s)
	}
}

// OperationStatus is the monotone state a pending row moves through
// (spec.md §3.2: Pending -> InProgress -> Completed|Failed).
type OperationStatus int

const (
	StatusPending OperationStatus = iota
	StatusInProgress
	StatusCompleted
	StatusFailed
)

func (s OperationStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusInProgress:
		return "in_progress"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ParseOperationStatus decodes a stored label, returning a ConstraintError
// on anything unrecognized instead of panicking.
func ParseOperationStatus(s string) (OperationStatus, error) {
	switch s {
	case "pending":
		return StatusPending, nil
	case "in_progress":
		return StatusInProgress, nil
	case "completed":
		return StatusCompleted, nil
	case "failed":
		return StatusFailed, nil
	default:
		return 0, errs.Constraintf("unrecognized operation status: %q", s)
	}
}

// PendingIPFSOperation is a row of pending_ipfs_operations (spec.md §3.2).
// FailureReason carries the in-memory-only failure detail the stored schema
// collapses to "failed" on persist (spec.md §9 open question); it is never
// read back from the DB.
type PendingIPFSOperation struct {
	ID                uuid.UUID
	OperationType     OperationType
	Data              []byte
	Attempts          uint32
	LastAttempt       *time.Time
	CreatedAt         time.Time
	Status            OperationStatus
	FailureReason     string
	IPFSHash          *string
	RequiresMintlayer bool
}

// NewPendingIPFSOperation constructs a fresh Pending row for
// save_pending_operation (spec.md §4.1), with a producer-supplied id.
func NewPendingIPFSOperation(id uuid.UUID, opType OperationType, data []byte, requiresMintlayer bool) PendingIPFSOperation {
	return PendingIPFSOperation{
		ID:                id,
		OperationType:     opType,
		Data:              data,
		Status:            StatusPending,
		RequiresMintlayer: requiresMintlayer,
		CreatedAt:         time.Now().UTC(),
	}
}

// PendingMintlayerBatch is a row of pending_mintlayer_batches (spec.md §3.3).
type PendingMintlayerBatch struct {
	ID            uuid.UUID
	IPFSHashes    []string
	Attempts      uint32
	LastAttempt   *time.Time
	CreatedAt     time.Time
	Status        OperationStatus
	FailureReason string
	TxHash        *string
}

// NewPendingMintlayerBatch constructs a fresh, empty open batch.
func NewPendingMintlayerBatch() PendingMintlayerBatch {
	return PendingMintlayerBatch{
		ID:        uuid.New(),
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// IsOpen reports whether b can still accept an append: Pending status and
// under the configured batch size (spec.md §3.3).
func (b *PendingMintlayerBatch) IsOpen(batchSize int) bool {
	return b.Status == StatusPending && len(b.IPFSHashes) < batchSize
}

// DataAvailabilityBlob is a row of the data_availability ledger (spec.md
// §3.1), populated by the out-of-scope dispatch subsystem and consumed here.
type DataAvailabilityBlob struct {
	L1BatchNumber uint32
	BlobID        string
	InclusionData []byte // nil until known
	SentAt        time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// L1BatchForDispatch is one row returned by
// get_ready_for_da_dispatch_l1_batches (spec.md §4.1).
type L1BatchForDispatch struct {
	L1BatchNumber uint32
	Pubdata       []byte
}
