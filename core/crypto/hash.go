// Package crypto implements the StarkNet-domain hash primitives the
// commitment engine is built on: the Pedersen binary hash and the Poseidon
// permutation, both operating over core/felt's 252-bit prime field.
package crypto

import "github.com/stateforge/junostate/core/felt"

// HashFn is the capability the trie engine is parameterized over, so a
// binary Merkle tree can be instantiated with either hash. Each Trie holds
// one HashFn, fixed at construction and called through this func value.
type HashFn func(a, b *felt.Felt) *felt.Felt
