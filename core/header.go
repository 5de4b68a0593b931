package core

import "github.com/stateforge/junostate/core/felt"

// Header is a block header as advertised by the peer layer. Its fields are
// consumed, never computed: block-hash derivation and consensus validity
// belong to the header-sync/signature-verification layer this module sits
// downstream of, not to the commitment engine.
type Header struct {
	Hash             felt.Felt
	ParentHash       felt.Felt
	Number           uint64
	StorageCommitment felt.Felt
	ClassCommitment  felt.Felt
	SequencerAddress felt.Felt
	Timestamp        uint64
	ProtocolVersion  string
}
