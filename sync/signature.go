package sync

import "github.com/stateforge/junostate/core/felt"

// SignatureVerifier attests that a peer's advertised state-diff commitment
// was actually produced by the network, not merely self-consistent. Actual
// signature-scheme verification is out of scope for this module; it is
// injected so the driver can reject bad peer data without embedding
// cryptographic policy.
type SignatureVerifier interface {
	Verify(blockNumber uint64, commitment felt.Felt) error
}
