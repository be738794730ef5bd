// Package errs defines the typed error taxonomy shared by every component of
// the data-availability pipeline. It plays the same role as the upstream
// go-ethereum "errs" package (a single place that gives errors a name and a
// severity) but is rebuilt around github.com/cockroachdb/errors so that
// causes keep their stack trace across the IPFS/Mintlayer/DB boundaries
// instead of collapsing to a bare string.
package errs

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Kind is a closed enum of the failure categories a caller needs to branch
// on. New kinds are added here, never inferred from a message string.
type Kind int

const (
	_ Kind = iota
	KindIPFS
	KindMintlayer
	KindDatabase
	KindMaxRetriesExceeded
	KindCircuitBreakerOpen
	KindConfig
	KindConstraint
)

func (k Kind) String() string {
	switch k {
	case KindIPFS:
		return "IPFSError"
	case KindMintlayer:
		return "MintlayerError"
	case KindDatabase:
		return "DatabaseError"
	case KindMaxRetriesExceeded:
		return "MaxRetriesExceededError"
	case KindCircuitBreakerOpen:
		return "CircuitBreakerOpenError"
	case KindConfig:
		return "ConfigError"
	case KindConstraint:
		return "ConstraintError"
	default:
		return "UnknownError"
	}
}

// Error is the concrete type returned by every pipeline component. backend is
// populated for the kinds that are backend-scoped ("IPFS", "Mintlayer").
type Error struct {
	kind    Kind
	backend string
	cause   error
}

func (e *Error) Error() string {
	if e.backend != "" {
		return fmt.Sprintf("%s(%s): %v", e.kind, e.backend, e.cause)
	}
	return fmt.Sprintf("%s: %v", e.kind, e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

// Kind reports the error's taxonomy entry, for callers that branch on it
// (e.g. the worker loop deciding whether to log at warn or error).
func (e *Error) Kind() Kind { return e.kind }

// Backend reports which external backend ("IPFS", "Mintlayer") produced the
// error, empty for backend-agnostic kinds.
func (e *Error) Backend() string { return e.backend }

func newErr(kind Kind, backend string, cause error) *Error {
	return &Error{kind: kind, backend: backend, cause: errors.WithStack(cause)}
}

// IPFS wraps cause as an IPFSError: upload HTTP != 200, HEAD failure, or
// missing ipfs-hash metadata (spec §7).
func IPFS(cause error) error { return newErr(KindIPFS, "IPFS", cause) }

// IPFSf is the formatted-message convenience constructor.
func IPFSf(format string, args ...any) error { return IPFS(errors.Newf(format, args...)) }

// Mintlayer wraps cause as a MintlayerError: RPC transport failure, non-2xx,
// malformed JSON, or a missing "result" field (spec §7).
func Mintlayer(cause error) error { return newErr(KindMintlayer, "Mintlayer", cause) }

// Mintlayerf is the formatted-message convenience constructor.
func Mintlayerf(format string, args ...any) error { return Mintlayer(errors.Newf(format, args...)) }

// Database wraps any persistence failure.
func Database(cause error) error { return newErr(KindDatabase, "", cause) }

// MaxRetriesExceeded reports that backoff hit the attempt ceiling for the
// named backend ("IPFS" or "Mintlayer").
func MaxRetriesExceeded(backend string) error {
	return newErr(KindMaxRetriesExceeded, backend, errors.Newf("maximum retries exceeded for %s", backend))
}

// CircuitBreakerOpen reports that the named backend's breaker was open at
// entry; the operation was skipped this cycle, not attempted.
func CircuitBreakerOpen(backend string) error {
	return newErr(KindCircuitBreakerOpen, backend, errors.Newf("circuit breaker open for %s", backend))
}

// Config wraps a missing/invalid configuration value.
func Config(cause error) error { return newErr(KindConfig, "", cause) }

// Configf is the formatted-message convenience constructor.
func Configf(format string, args ...any) error { return Config(errors.Newf(format, args...)) }

// Constraint reports an attempt to rewrite an immutable field (blob_id,
// inclusion_data) with a conflicting value, or an unrecognized enum label
// encountered while decoding a stored row.
func Constraint(cause error) error { return newErr(KindConstraint, "", cause) }

// Constraintf is the formatted-message convenience constructor.
func Constraintf(format string, args ...any) error { return Constraint(errors.Newf(format, args...)) }

// Is reports whether err (or any error it wraps) is a pipeline *Error of the
// given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.kind == kind
	}
	return false
}
