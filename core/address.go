package core

import "github.com/stateforge/junostate/core/felt"

// Address identifies a contract instance. It is a Felt under the hood --
// every trie key in this module is -- but defined as a distinct type so a
// StorageKey can never be passed where an Address is expected and vice
// versa without an explicit conversion.
type Address felt.Felt

// StorageKey identifies one storage slot within a contract's storage trie.
type StorageKey felt.Felt

// ClassHash identifies a compiled contract class.
type ClassHash felt.Felt

// Nonce is a contract's transaction nonce.
type Nonce felt.Felt

// Felt reinterprets a as a plain field element, for handing to the
// Felt-typed primitives (trie, hash functions) beneath the domain layer.
func (a Address) Felt() felt.Felt { return felt.Felt(a) }

// Felt reinterprets k as a plain field element.
func (k StorageKey) Felt() felt.Felt { return felt.Felt(k) }

// Felt reinterprets c as a plain field element.
func (c ClassHash) Felt() felt.Felt { return felt.Felt(c) }

// Felt reinterprets n as a plain field element.
func (n Nonce) Felt() felt.Felt { return felt.Felt(n) }
