package da

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zk-thunder/da-pipeline/internal/errs"
)

func TestOperationTypeRoundTrips(t *testing.T) {
	for _, ot := range []OperationType{OperationCommit, OperationProof, OperationExecute} {
		parsed, err := ParseOperationType(ot.String())
		require.NoError(t, err)
		require.Equal(t, ot, parsed)
	}
}

func TestParseOperationTypeRejectsUnknownLabel(t *testing.T) {
	_, err := ParseOperationType("bogus")
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.KindConstraint))
}

func TestOperationStatusRoundTrips(t *testing.T) {
	for _, s := range []OperationStatus{StatusPending, StatusInProgress, StatusCompleted, StatusFailed} {
		parsed, err := ParseOperationStatus(s.String())
		require.NoError(t, err)
		require.Equal(t, s, parsed)
	}
}

func TestParseOperationStatusRejectsUnknownLabel(t *testing.T) {
	_, err := ParseOperationStatus("bogus")
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.KindConstraint))
}

func TestPendingMintlayerBatchIsOpen(t *testing.T) {
	b := NewPendingMintlayerBatch()
	require.True(t, b.IsOpen(2))
	b.IPFSHashes = append(b.IPFSHashes, "h1", "h2")
	require.False(t, b.IsOpen(2))
}
