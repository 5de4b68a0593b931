package core

import "github.com/stateforge/junostate/core/felt"

// ContractUpdate is everything that changed for a single contract instance
// in one block: zero or more storage slots, an optional nonce bump, and an
// optional class replacement (covers both "contract just got deployed" and
// "contract class was replaced").
type ContractUpdate struct {
	StorageDiff map[StorageKey]felt.Felt
	Nonce       *Nonce
	ClassHash   *ClassHash
}

// ContractUpdates partitions a block's contract-level changes into the
// regular contract set and the small, fixed set of system contracts (the
// ones carrying protocol bookkeeping, e.g. the block-hash registry). The
// two partitions are applied as two separate worker-pool passes because
// system contracts are few, hot and must not contend with the much larger
// regular-contract fan-out.
type ContractUpdates struct {
	Regular map[Address]*ContractUpdate
	System  map[Address]*ContractUpdate
}

// NewContractUpdates returns an empty ContractUpdates with both maps
// initialized.
func NewContractUpdates() ContractUpdates {
	return ContractUpdates{
		Regular: make(map[Address]*ContractUpdate),
		System:  make(map[Address]*ContractUpdate),
	}
}

// StateUpdate is one block's worth of state-diff input, as handed down by
// the peer/gossip layer. DeclaredClasses maps a newly declared class hash
// to its compiled-class hash (Sierra -> CASM), when the class-commitment
// tree is enabled.
type StateUpdate struct {
	BlockHash       felt.Felt
	BlockNumber     uint64
	OldRoot         felt.Felt
	NewRoot         felt.Felt
	Contracts       ContractUpdates
	DeclaredClasses map[ClassHash]felt.Felt
}
