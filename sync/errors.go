package sync

import "fmt"

// ErrorKind classifies the ways applying a block can fail.
type ErrorKind uint8

const (
	// ErrDatabaseOrCompute covers storage and hashing failures: nothing
	// about the peer's data was necessarily wrong.
	ErrDatabaseOrCompute ErrorKind = iota
	// ErrStateDiffCommitmentMismatch means the recomputed storage
	// commitment disagrees with the block header's advertised value.
	ErrStateDiffCommitmentMismatch
	// ErrSignatureVerification means the peer's data failed signature
	// verification.
	ErrSignatureVerification
	// ErrMissingHeader means no header is available yet for a block the
	// driver needs to apply.
	ErrMissingHeader
)

func (k ErrorKind) String() string {
	switch k {
	case ErrDatabaseOrCompute:
		return "database or compute error"
	case ErrStateDiffCommitmentMismatch:
		return "state diff commitment mismatch"
	case ErrSignatureVerification:
		return "signature verification failed"
	case ErrMissingHeader:
		return "missing header"
	default:
		return "unknown sync error"
	}
}

// Error is the typed error the driver and pipeline surface, carrying
// enough context (kind, block, offending peer) for the driver to decide
// whether to retry, requeue from another peer, or give up.
type Error struct {
	Kind  ErrorKind
	Block uint64
	Peer  PeerID
	Cause error
}

func (e *Error) Error() string {
	if e.Peer != "" {
		return fmt.Sprintf("sync: %s at block %d (peer %s)", e.Kind, e.Block, e.Peer)
	}
	return fmt.Sprintf("sync: %s at block %d", e.Kind, e.Block)
}

func (e *Error) Unwrap() error { return e.Cause }

// NewDatabaseOrComputeError wraps a storage/compute failure.
func NewDatabaseOrComputeError(block uint64, cause error) *Error {
	return &Error{Kind: ErrDatabaseOrCompute, Block: block, Cause: cause}
}

// NewCommitmentMismatchError reports that peer's state diff for block
// produced a commitment the header doesn't agree with.
func NewCommitmentMismatchError(block uint64, peer PeerID) *Error {
	return &Error{Kind: ErrStateDiffCommitmentMismatch, Block: block, Peer: peer}
}

// NewSignatureVerificationError reports that peer's data for block failed
// signature verification.
func NewSignatureVerificationError(block uint64, peer PeerID, cause error) *Error {
	return &Error{Kind: ErrSignatureVerification, Block: block, Peer: peer, Cause: cause}
}

// NewMissingHeaderError reports that no header is available for block yet.
func NewMissingHeaderError(block uint64, cause error) *Error {
	return &Error{Kind: ErrMissingHeader, Block: block, Cause: cause}
}
