// Package trienode persists trie nodes into badger, keyed by a
// monotonically assigned index rather than by path: every node a block's
// worth of tries produces is inserted once, deduplicated by its canonical
// hash, so structural sharing across block versions costs nothing extra.
package trienode

import (
	"encoding/binary"
	"errors"

	"github.com/dgraph-io/badger/v3"

	"github.com/stateforge/junostate/core/felt"
	"github.com/stateforge/junostate/core/trie"
	"github.com/stateforge/junostate/db"
)

// Kind selects which logical node table a Store addresses. The three
// tables share a schema but are kept disjoint so a contract's storage
// trie, the class-commitment trie and the global storage-commitment tree
// never collide on index space.
type Kind byte

const (
	KindStorage  Kind = 0x01 // global storage-commitment tree over contract leaves
	KindClass    Kind = 0x02 // optional class-commitment trie
	KindContract Kind = 0x03 // per-contract storage tries
)

// ErrNotFound is returned by Node/Root when the requested row is absent.
var ErrNotFound = errors.New("trienode: not found")

const (
	subNode      byte = 0x00
	subHashIndex byte = 0xFF
	subRoot      byte = 0xFE
	subCounter   byte = 0xFD
)

// Store is a trie.Store backed by badger, scoped to one node Kind.
type Store struct {
	env  *db.Env
	kind Kind
}

// New returns a Store over env scoped to kind.
func New(env *db.Env, kind Kind) *Store {
	return &Store{env: env, kind: kind}
}

func (s *Store) nodeKey(index uint64) []byte {
	key := make([]byte, 2+8)
	key[0] = byte(s.kind)
	key[1] = subNode
	binary.BigEndian.PutUint64(key[2:], index)
	return key
}

func (s *Store) hashIndexKey(h felt.Felt) []byte {
	b := h.Bytes()
	key := make([]byte, 2+32)
	key[0] = byte(s.kind)
	key[1] = subHashIndex
	copy(key[2:], b[:])
	return key
}

// rootKey addresses a root-pointer row. scope distinguishes per-contract
// roots (the contract address) from the single global root (empty scope).
func (s *Store) rootKey(scope []byte, blockNumber uint64) []byte {
	key := make([]byte, 2+len(scope)+8)
	key[0] = byte(s.kind)
	key[1] = subRoot
	n := copy(key[2:], scope)
	binary.BigEndian.PutUint64(key[2+n:], blockNumber)
	return key[:2+n+8]
}

func (s *Store) counterKey() []byte {
	return []byte{byte(s.kind), subCounter}
}

// Node implements trie.Store: reads and decodes the node at index.
func (s *Store) Node(index uint64) (*trie.Node, error) {
	var n *trie.Node
	err := s.env.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.nodeKey(index))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			decoded, decErr := decodeNode(val)
			if decErr != nil {
				return decErr
			}
			n = decoded
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Store) lookupIndex(txn *badger.Txn, h felt.Felt) (uint64, bool, error) {
	item, err := txn.Get(s.hashIndexKey(h))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	var idx uint64
	err = item.Value(func(val []byte) error {
		idx = binary.BigEndian.Uint64(val)
		return nil
	})
	return idx, true, err
}

func (s *Store) nextIndex(txn *badger.Txn) (uint64, error) {
	var cur uint64
	item, err := txn.Get(s.counterKey())
	switch {
	case err == nil:
		if verr := item.Value(func(val []byte) error {
			cur = binary.BigEndian.Uint64(val)
			return nil
		}); verr != nil {
			return 0, verr
		}
	case errors.Is(err, badger.ErrKeyNotFound):
		cur = 0
	default:
		return 0, err
	}
	next := cur + 1
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], next)
	if err := txn.Set(s.counterKey(), buf[:]); err != nil {
		return 0, err
	}
	return next, nil
}

// resolvedChild returns the index and hash a finalized ChildRef should be
// written to disk under, assigning a fresh index via assign when the
// reference only carries a hash (a sibling materialized in this batch).
func resolvedChild(ref trie.ChildRef, assign func(felt.Felt) (uint64, error)) (uint64, felt.Felt, error) {
	switch ref.Kind {
	case trie.RefIndex:
		return ref.Index, ref.Hash, nil
	case trie.RefHash:
		idx, err := assign(ref.Hash)
		return idx, ref.Hash, err
	default:
		return 0, felt.Felt{}, errors.New("trienode: cannot persist an unfinalized child reference")
	}
}

// InsertNodes writes every node in nodes that isn't already present by
// hash, in topological (children-before-parents) order, deduplicating
// against existing rows by canonical hash, and returns the index assigned
// to rootHash. A zero rootHash (the empty trie) writes nothing and returns
// index 0.
func (s *Store) InsertNodes(rootHash felt.Felt, nodes map[felt.Felt]*trie.Node) (uint64, error) {
	if rootHash.IsZero() {
		return 0, nil
	}

	var rootIndex uint64
	err := s.env.Update(func(txn *badger.Txn) error {
		assigned := make(map[felt.Felt]uint64, len(nodes))

		var assign func(h felt.Felt) (uint64, error)
		assign = func(h felt.Felt) (uint64, error) {
			if idx, ok := assigned[h]; ok {
				return idx, nil
			}
			if idx, ok, err := s.lookupIndex(txn, h); err != nil {
				return 0, err
			} else if ok {
				assigned[h] = idx
				return idx, nil
			}

			n, ok := nodes[h]
			if !ok {
				return 0, errors.New("trienode: dangling child hash not present in this commit batch")
			}

			switch n.Kind {
			case trie.KindBinary:
				li, lh, err := resolvedChild(n.Left, assign)
				if err != nil {
					return 0, err
				}
				ri, rh, err := resolvedChild(n.Right, assign)
				if err != nil {
					return 0, err
				}
				n.Left, n.Right = trie.IndexRef(li, lh), trie.IndexRef(ri, rh)
			case trie.KindEdge:
				ci, ch, err := resolvedChild(n.Child, assign)
				if err != nil {
					return 0, err
				}
				n.Child = trie.IndexRef(ci, ch)
			}

			idx, err := s.nextIndex(txn)
			if err != nil {
				return 0, err
			}
			buf, err := encodeNode(n)
			if err != nil {
				return 0, err
			}
			if err := txn.Set(s.nodeKey(idx), buf); err != nil {
				return 0, err
			}
			var idxBuf [8]byte
			binary.BigEndian.PutUint64(idxBuf[:], idx)
			if err := txn.Set(s.hashIndexKey(h), idxBuf[:]); err != nil {
				return 0, err
			}
			assigned[h] = idx
			return idx, nil
		}

		idx, err := assign(rootHash)
		if err != nil {
			return err
		}
		rootIndex = idx
		return nil
	})
	return rootIndex, err
}

// SetRoot records the root of a trie committed for scope (nil for the
// single global trie, or a contract address for a per-contract trie) at
// blockNumber.
func (s *Store) SetRoot(scope []byte, blockNumber uint64, rootIndex uint64, rootHash felt.Felt) error {
	return s.env.Update(func(txn *badger.Txn) error {
		hb := rootHash.Bytes()
		buf := make([]byte, 8+32)
		binary.BigEndian.PutUint64(buf[:8], rootIndex)
		copy(buf[8:], hb[:])
		return txn.Set(s.rootKey(scope, blockNumber), buf)
	})
}

// Root returns the root index and hash recorded for scope at blockNumber.
func (s *Store) Root(scope []byte, blockNumber uint64) (uint64, felt.Felt, error) {
	var index uint64
	var hash felt.Felt
	err := s.env.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.rootKey(scope, blockNumber))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) < 8+32 {
				return errShortRecord
			}
			index = binary.BigEndian.Uint64(val[:8])
			var hb [32]byte
			copy(hb[:], val[8:40])
			decoded, err := felt.FromBytes(hb)
			if err != nil {
				return err
			}
			hash = *decoded
			return nil
		})
	})
	return index, hash, err
}

// LatestRootAtOrBefore returns the most recent root recorded for scope at
// or before blockNumber. A contract's trie root is only ever written on a
// block where that contract was actually touched, so resuming its trie at
// an arbitrary later block is a reverse range seek, not an exact match.
func (s *Store) LatestRootAtOrBefore(scope []byte, blockNumber uint64) (uint64, felt.Felt, bool, error) {
	var index uint64
	var hash felt.Felt
	found := false
	err := s.env.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := s.rootKey(scope, blockNumber)
		prefix := seek[:2+len(scope)]
		it.Seek(seek)
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		found = true
		return it.Item().Value(func(val []byte) error {
			if len(val) < 8+32 {
				return errShortRecord
			}
			index = binary.BigEndian.Uint64(val[:8])
			var hb [32]byte
			copy(hb[:], val[8:40])
			decoded, err := felt.FromBytes(hb)
			if err != nil {
				return err
			}
			hash = *decoded
			return nil
		})
	})
	return index, hash, found, err
}

// DeleteRoot removes the root pointer recorded for scope at blockNumber,
// without touching any node rows -- nodes are content-addressed and
// potentially shared with other block versions, so only the pointer that
// made this version reachable is ever removed.
func (s *Store) DeleteRoot(scope []byte, blockNumber uint64) error {
	return s.env.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.rootKey(scope, blockNumber))
	})
}
