package dal

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/zk-thunder/da-pipeline/internal/da"
	"github.com/zk-thunder/da-pipeline/internal/errs"
	"github.com/zk-thunder/da-pipeline/internal/log"
)

// Postgres is the production Store backed by database/sql over pgx/v5.
type Postgres struct {
	db  *sql.DB
	log log.Logger
}

// Open connects to dsn using the pgx stdlib driver and verifies
// connectivity with a ping.
func Open(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errs.Database(err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errs.Database(err)
	}
	return NewPostgres(db), nil
}

// NewPostgres wraps an already-opened *sql.DB, for callers that manage the
// pool lifecycle themselves (e.g. sharing it with a migrator).
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, log: log.New("component", "dal")}
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) InsertL1BatchDA(ctx context.Context, batchNumber uint32, blobID string, sentAt time.Time) error {
	const q = `
		INSERT INTO data_availability (l1_batch_number, blob_id, sent_at, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (l1_batch_number) DO NOTHING`
	res, err := p.db.ExecContext(ctx, q, batchNumber, blobID, sentAt)
	if err != nil {
		return errs.Database(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errs.Database(err)
	}
	if n == 1 {
		return nil
	}

	var existing string
	err = p.db.QueryRowContext(ctx,
		`SELECT blob_id FROM data_availability WHERE l1_batch_number = $1`, batchNumber).Scan(&existing)
	if err != nil {
		return errs.Database(err)
	}
	if existing != blobID {
		return errs.Constraintf("l1 batch %d already has blob_id %q, refusing to overwrite with %q",
			batchNumber, existing, blobID)
	}
	return nil
}

func (p *Postgres) SaveL1BatchInclusionData(ctx context.Context, batchNumber uint32, inclusionData []byte) error {
	const q = `
		UPDATE data_availability
		SET inclusion_data = $2, updated_at = now()
		WHERE l1_batch_number = $1 AND inclusion_data IS NULL`
	res, err := p.db.ExecContext(ctx, q, batchNumber, inclusionData)
	if err != nil {
		return errs.Database(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errs.Database(err)
	}
	if n == 1 {
		return nil
	}

	var existing []byte
	err = p.db.QueryRowContext(ctx,
		`SELECT inclusion_data FROM data_availability WHERE l1_batch_number = $1`, batchNumber).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return errs.Constraintf("no data_availability row for l1 batch %d", batchNumber)
	}
	if err != nil {
		return errs.Database(err)
	}
	if string(existing) != string(inclusionData) {
		return errs.Constraintf("l1 batch %d already has inclusion_data, refusing to overwrite", batchNumber)
	}
	return nil
}

func (p *Postgres) GetFirstDABlobAwaitingInclusion(ctx context.Context) (*da.DataAvailabilityBlob, error) {
	const q = `
		SELECT l1_batch_number, blob_id, sent_at, created_at, updated_at
		FROM data_availability
		WHERE inclusion_data IS NULL
		ORDER BY l1_batch_number ASC
		LIMIT 1`
	var b da.DataAvailabilityBlob
	err := p.db.QueryRowContext(ctx, q).Scan(&b.L1BatchNumber, &b.BlobID, &b.SentAt, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Database(err)
	}
	return &b, nil
}

func (p *Postgres) GetReadyForDADispatchL1Batches(ctx context.Context, limit int) ([]da.L1BatchForDispatch, error) {
	const q = `
		SELECT lb.number, lb.pubdata
		FROM l1_batches lb
		LEFT JOIN data_availability da ON da.l1_batch_number = lb.number
		WHERE da.l1_batch_number IS NULL AND lb.pubdata IS NOT NULL
		ORDER BY lb.number ASC
		LIMIT $1`
	rows, err := p.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, errs.Database(err)
	}
	defer rows.Close()

	var out []da.L1BatchForDispatch
	for rows.Next() {
		var b da.L1BatchForDispatch
		if err := rows.Scan(&b.L1BatchNumber, &b.Pubdata); err != nil {
			return nil, errs.Database(err)
		}
		out = append(out, b)
	}
	return out, errs.Database(rows.Err())
}

func (p *Postgres) GetPendingIPFSOperations(ctx context.Context, limit int) ([]da.PendingIPFSOperation, error) {
	const q = `
		SELECT id, operation_type, data, attempts, last_attempt, created_at, status, ipfs_hash, requires_mintlayer
		FROM pending_ipfs_operations
		WHERE status = 'pending' OR (status = 'failed' AND attempts < $1)
		ORDER BY created_at ASC
		LIMIT $2`
	rows, err := p.db.QueryContext(ctx, q, da.MaxRetryAttempts, limit)
	if err != nil {
		return nil, errs.Database(err)
	}
	defer rows.Close()

	var out []da.PendingIPFSOperation
	for rows.Next() {
		var op da.PendingIPFSOperation
		var opType, status string
		if err := rows.Scan(&op.ID, &opType, &op.Data, &op.Attempts, &op.LastAttempt,
			&op.CreatedAt, &status, &op.IPFSHash, &op.RequiresMintlayer); err != nil {
			return nil, errs.Database(err)
		}
		if op.OperationType, err = da.ParseOperationType(opType); err != nil {
			return nil, err
		}
		if op.Status, err = da.ParseOperationStatus(status); err != nil {
			return nil, err
		}
		out = append(out, op)
	}
	return out, errs.Database(rows.Err())
}

func (p *Postgres) GetPendingMintlayerBatches(ctx context.Context, limit int) ([]da.PendingMintlayerBatch, error) {
	const q = `
		SELECT id, ipfs_hashes, attempts, last_attempt, created_at, status, tx_hash
		FROM pending_mintlayer_batches
		WHERE status = 'pending' OR (status = 'failed' AND attempts < $1)
		ORDER BY created_at ASC
		LIMIT $2`
	rows, err := p.db.QueryContext(ctx, q, da.MaxRetryAttempts, limit)
	if err != nil {
		return nil, errs.Database(err)
	}
	defer rows.Close()

	var out []da.PendingMintlayerBatch
	for rows.Next() {
		var b da.PendingMintlayerBatch
		var status string
		if err := rows.Scan(&b.ID, &b.IPFSHashes, &b.Attempts, &b.LastAttempt, &b.CreatedAt, &status, &b.TxHash); err != nil {
			return nil, errs.Database(err)
		}
		if b.Status, err = da.ParseOperationStatus(status); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, errs.Database(rows.Err())
}

func (p *Postgres) UpdateIPFSOperation(ctx context.Context, op da.PendingIPFSOperation) error {
	const q = `
		UPDATE pending_ipfs_operations
		SET status = $2, attempts = $3, last_attempt = $4, ipfs_hash = $5
		WHERE id = $1`
	_, err := p.db.ExecContext(ctx, q, op.ID, op.Status.String(), op.Attempts, op.LastAttempt, op.IPFSHash)
	if err != nil {
		return errs.Database(err)
	}
	return nil
}

func (p *Postgres) UpdateMintlayerBatch(ctx context.Context, batch da.PendingMintlayerBatch) error {
	const q = `
		INSERT INTO pending_mintlayer_batches (id, ipfs_hashes, attempts, last_attempt, created_at, status, tx_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET ipfs_hashes = EXCLUDED.ipfs_hashes,
		    status = EXCLUDED.status,
		    attempts = EXCLUDED.attempts,
		    last_attempt = EXCLUDED.last_attempt,
		    tx_hash = EXCLUDED.tx_hash`
	_, err := p.db.ExecContext(ctx, q, batch.ID, batch.IPFSHashes, batch.Attempts, batch.LastAttempt,
		batch.CreatedAt, batch.Status.String(), batch.TxHash)
	if err != nil {
		return errs.Database(err)
	}
	return nil
}

func (p *Postgres) SavePendingOperation(ctx context.Context, op da.PendingIPFSOperation) error {
	const q = `
		INSERT INTO pending_ipfs_operations (id, operation_type, data, attempts, created_at, status, requires_mintlayer)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := p.db.ExecContext(ctx, q, op.ID, op.OperationType.String(), op.Data, op.Attempts,
		op.CreatedAt, op.Status.String(), op.RequiresMintlayer)
	if err != nil {
		return errs.Database(err)
	}
	return nil
}

func (p *Postgres) CleanupOldOperations(ctx context.Context, olderThan time.Time) (int64, int64, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, errs.Database(err)
	}
	defer tx.Rollback()

	ipfsRes, err := tx.ExecContext(ctx, `
		DELETE FROM pending_ipfs_operations
		WHERE created_at < $1 AND (status = 'completed' OR (status = 'failed' AND attempts >= $2))`,
		olderThan, da.MaxRetryAttempts)
	if err != nil {
		return 0, 0, errs.Database(err)
	}
	ipfsDeleted, err := ipfsRes.RowsAffected()
	if err != nil {
		return 0, 0, errs.Database(err)
	}

	mlRes, err := tx.ExecContext(ctx, `
		DELETE FROM pending_mintlayer_batches
		WHERE created_at < $1 AND (status = 'completed' OR (status = 'failed' AND attempts >= $2))`,
		olderThan, da.MaxRetryAttempts)
	if err != nil {
		return 0, 0, errs.Database(err)
	}
	mlDeleted, err := mlRes.RowsAffected()
	if err != nil {
		return 0, 0, errs.Database(err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, errs.Database(err)
	}
	p.log.Debug("cleanup complete", "ipfs_deleted", ipfsDeleted, "mintlayer_deleted", mlDeleted)
	return ipfsDeleted, mlDeleted, nil
}
