package errs

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	err := IPFSf("upload failed with status: %d", 500)
	require.Contains(t, err.Error(), "IPFSError(IPFS)")
	require.Contains(t, err.Error(), "500")
}

func TestKindDispatch(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind Kind
	}{
		{"ipfs", IPFSf("boom"), KindIPFS},
		{"mintlayer", Mintlayerf("boom"), KindMintlayer},
		{"database", Database(errors.New("boom")), KindDatabase},
		{"max-retries", MaxRetriesExceeded("IPFS"), KindMaxRetriesExceeded},
		{"circuit-breaker", CircuitBreakerOpen("Mintlayer"), KindCircuitBreakerOpen},
		{"config", Configf("missing ML_RPC_URL"), KindConfig},
		{"constraint", Constraintf("blob_id mismatch"), KindConstraint},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.True(t, Is(tc.err, tc.kind))
			for _, other := range cases {
				if other.kind != tc.kind {
					require.False(t, Is(tc.err, other.kind), "unexpectedly matched %v", other.kind)
				}
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Database(cause)
	require.ErrorIs(t, err, cause)
}

func TestNotAPipelineError(t *testing.T) {
	require.False(t, Is(errors.New("plain"), KindIPFS))
}
