// Package db wraps the badger key-value store the commitment engine
// persists trie nodes, root pointers and state-update rows into.
package db

import (
	"github.com/dgraph-io/badger/v3"
)

// Env is a single badger instance. All of this module's tables -- trie
// node tables, root-pointer tables, state-update rows -- live in the same
// Env under distinct key prefixes, following badger's single-namespace
// convention.
type Env struct {
	db *badger.DB
}

// Open opens (creating if absent) a badger store rooted at path.
func Open(path string) (*Env, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Env{db: bdb}, nil
}

// NewTestEnv opens an ephemeral, in-memory badger store for unit tests.
func NewTestEnv() (*Env, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Env{db: bdb}, nil
}

// Close releases the underlying badger handles.
func (e *Env) Close() error {
	return e.db.Close()
}

// Update runs fn inside a read-write transaction, committing on success and
// discarding on error or panic.
func (e *Env) Update(fn func(txn *badger.Txn) error) error {
	return e.db.Update(fn)
}

// View runs fn inside a read-only transaction.
func (e *Env) View(fn func(txn *badger.Txn) error) error {
	return e.db.View(fn)
}
