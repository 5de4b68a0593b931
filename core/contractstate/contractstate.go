// Package contractstate computes the per-contract leaf value folded into
// the global storage-commitment tree: a single Felt summarizing a
// contract's class, storage root and nonce.
package contractstate

import (
	"github.com/stateforge/junostate/core/crypto"
	"github.com/stateforge/junostate/core/felt"
)

// Hash combines a contract's class hash, storage trie root and nonce into
// the leaf value the global storage-commitment tree stores at that
// contract's address:
//
//	h0   = Pedersen(classHash, storageRoot)
//	h1   = Pedersen(h0, nonce)
//	leaf = Pedersen(h1, 0)
//
// The trailing hash with the zero Felt reserves a field for future contract
// metadata without changing the leaf's arity.
func Hash(classHash, storageRoot, nonce *felt.Felt) *felt.Felt {
	h0 := crypto.Pedersen(classHash, storageRoot)
	h1 := crypto.Pedersen(h0, nonce)
	return crypto.Pedersen(h1, &felt.Zero)
}
