// Package trie implements the index-addressed Merkle Patricia trie the
// commitment engine folds every per-contract and per-class state change
// into. A trie is a binary radix tree of fixed height over reduced Felt
// keys; runs of single-child depth are compressed into Edge nodes so an
// empty or sparse trie costs O(1) nodes rather than O(height).
package trie

import (
	"errors"

	"github.com/stateforge/junostate/core/crypto"
	"github.com/stateforge/junostate/core/felt"
)

// ErrPrunedSubtree is returned when a lookup would need to descend into a
// node reachable only by its hash (a subtree pruned from local storage,
// e.g. a historical root retained only as a commitment).
var ErrPrunedSubtree = errors.New("trie: cannot descend into a pruned (hash-only) subtree")

// Store is the read side of the persisted node table a Trie is loaded
// against. Index 0 is never a valid node index; root pointers and child
// references that are absent are represented structurally instead.
type Store interface {
	Node(index uint64) (*Node, error)
}

// Trie is a single version of a fixed-height Merkle Patricia trie. It is
// mutated in memory (Get/Put) and only touches the Store for read-through
// on branches not yet visited this version; Commit folds the accumulated
// mutations into freshly hashed, content-addressed node records without
// writing anything itself -- persistence is the caller's job (db/trienode).
type Trie struct {
	height       uint8
	hash         crypto.HashFn
	store        Store
	root         ChildRef
	verifyHashes bool
	committed    map[felt.Felt]*Node // nodes produced by this Trie's own Commit calls
}

// Empty builds a Trie with no entries.
func Empty(store Store, height uint8, hash crypto.HashFn) *Trie {
	return &Trie{height: height, hash: hash, store: store, root: NilRef()}
}

// Load resumes a Trie from a previously committed root. rootIndex/rootHash
// should both be the zero value when the trie committed to the empty root.
func Load(store Store, height uint8, hash crypto.HashFn, rootIndex uint64, rootHash felt.Felt) *Trie {
	root := NilRef()
	if rootIndex != 0 || !rootHash.IsZero() {
		root = IndexRef(rootIndex, rootHash)
	}
	return &Trie{height: height, hash: hash, store: store, root: root}
}

// WithVerifyHashes toggles eager recomputation-and-compare of every node
// hash as it is read from the store, trading lookup speed for corruption
// detection. Returns the receiver for chaining at construction time.
func (t *Trie) WithVerifyHashes(v bool) *Trie {
	t.verifyHashes = v
	return t
}

// RootHash returns the trie's current root commitment without mutating it.
// An empty trie's root is the zero Felt sentinel.
func (t *Trie) RootHash() felt.Felt {
	return t.root.resolveHash(t.hash)
}

func (t *Trie) resolve(ref ChildRef) (*Node, error) {
	switch ref.Kind {
	case RefNil:
		return nil, nil
	case RefTransient:
		return ref.Transient, nil
	case RefIndex:
		n, err := t.store.Node(ref.Index)
		if err != nil {
			return nil, err
		}
		if t.verifyHashes {
			fresh := *n
			fresh.hash = nil
			if got := *fresh.computeHash(t.hash); !got.Equal(&ref.Hash) {
				return nil, errors.New("trie: node hash mismatch on read")
			}
		}
		return n, nil
	case RefHash:
		if n, ok := t.committed[ref.Hash]; ok {
			return n, nil
		}
		return nil, ErrPrunedSubtree
	default:
		return nil, errors.New("trie: unknown child reference kind")
	}
}

// Get looks up key, returning nil if it is absent.
func (t *Trie) Get(key *felt.Felt) (*felt.Felt, error) {
	return t.get(t.root, 0, FeltToBits(t.height, key))
}

func (t *Trie) get(ref ChildRef, depth uint8, keyBits Bits) (*felt.Felt, error) {
	if ref.IsNil() {
		return nil, nil
	}
	node, err := t.resolve(ref)
	if err != nil {
		return nil, err
	}
	remaining := keyBits.From(depth)
	switch node.Kind {
	case KindLeaf:
		v := node.Value
		return &v, nil
	case KindBinary:
		if remaining.Bit(0) {
			return t.get(node.Right, depth+1, keyBits)
		}
		return t.get(node.Left, depth+1, keyBits)
	case KindEdge:
		if !node.Path.Equal(remaining.Prefix(node.Path.Len())) {
			return nil, nil
		}
		return t.get(node.Child, depth+node.Path.Len(), keyBits)
	default:
		return nil, errors.New("trie: unknown node kind")
	}
}

// Put inserts or updates key's value. Setting value to the zero Felt
// deletes the key, since a zero-valued leaf is indistinguishable from an
// absent one under Pedersen/Poseidon hashing.
func (t *Trie) Put(key, value *felt.Felt) error {
	keyBits := FeltToBits(t.height, key)
	if value.IsZero() {
		newRoot, err := t.delete(t.root, 0, keyBits)
		if err != nil {
			return err
		}
		t.root = newRoot
		return nil
	}
	newRoot, err := t.insert(t.root, 0, keyBits, value)
	if err != nil {
		return err
	}
	t.root = newRoot
	return nil
}

func (t *Trie) insert(ref ChildRef, depth uint8, keyBits Bits, value *felt.Felt) (ChildRef, error) {
	remaining := keyBits.From(depth)

	if ref.IsNil() {
		leaf := TransientRef(NewLeaf(*value))
		if remaining.Len() == 0 {
			return leaf, nil
		}
		return TransientRef(NewEdge(remaining, leaf)), nil
	}

	node, err := t.resolve(ref)
	if err != nil {
		return ChildRef{}, err
	}

	switch node.Kind {
	case KindLeaf:
		return TransientRef(NewLeaf(*value)), nil

	case KindBinary:
		if remaining.Bit(0) {
			newRight, err := t.insert(node.Right, depth+1, keyBits, value)
			if err != nil {
				return ChildRef{}, err
			}
			return TransientRef(NewBinary(node.Left, newRight)), nil
		}
		newLeft, err := t.insert(node.Left, depth+1, keyBits, value)
		if err != nil {
			return ChildRef{}, err
		}
		return TransientRef(NewBinary(newLeft, node.Right)), nil

	case KindEdge:
		common := CommonPrefixLen(node.Path, remaining)
		if common == node.Path.Len() {
			newChild, err := t.insert(node.Child, depth+node.Path.Len(), keyBits, value)
			if err != nil {
				return ChildRef{}, err
			}
			return TransientRef(NewEdge(node.Path, newChild)), nil
		}
		return t.splitEdge(node, common, remaining, value), nil

	default:
		return ChildRef{}, errors.New("trie: unknown node kind")
	}
}

// splitEdge replaces an edge whose path diverges from the incoming key at
// bit `common` with: an optional upper edge of length common, a binary
// fork at the divergence point, and up to two lower edges carrying what
// remains of each branch.
func (t *Trie) splitEdge(node *Node, common uint8, remaining Bits, value *felt.Felt) ChildRef {
	existingLower := node.Path.From(common + 1)
	newLower := remaining.From(common + 1)

	existingBranch := node.Child
	if existingLower.Len() > 0 {
		existingBranch = TransientRef(NewEdge(existingLower, node.Child))
	}

	newBranch := TransientRef(NewLeaf(*value))
	if newLower.Len() > 0 {
		newBranch = TransientRef(NewEdge(newLower, newBranch))
	}

	var left, right ChildRef
	if node.Path.Bit(common) {
		left, right = newBranch, existingBranch
	} else {
		left, right = existingBranch, newBranch
	}
	fork := TransientRef(NewBinary(left, right))

	if common == 0 {
		return fork
	}
	return TransientRef(NewEdge(node.Path.Prefix(common), fork))
}

func (t *Trie) delete(ref ChildRef, depth uint8, keyBits Bits) (ChildRef, error) {
	if ref.IsNil() {
		return NilRef(), nil
	}
	node, err := t.resolve(ref)
	if err != nil {
		return ChildRef{}, err
	}
	remaining := keyBits.From(depth)

	switch node.Kind {
	case KindLeaf:
		return NilRef(), nil

	case KindEdge:
		if !node.Path.Equal(remaining.Prefix(node.Path.Len())) {
			return ref, nil // key not present, nothing changes
		}
		newChild, err := t.delete(node.Child, depth+node.Path.Len(), keyBits)
		if err != nil {
			return ChildRef{}, err
		}
		if newChild.IsNil() {
			return NilRef(), nil
		}
		return t.mergeEdge(node.Path, newChild)

	case KindBinary:
		if remaining.Bit(0) {
			newRight, err := t.delete(node.Right, depth+1, keyBits)
			if err != nil {
				return ChildRef{}, err
			}
			if newRight.IsNil() {
				return t.prependBit(node.Left, false)
			}
			return TransientRef(NewBinary(node.Left, newRight)), nil
		}
		newLeft, err := t.delete(node.Left, depth+1, keyBits)
		if err != nil {
			return ChildRef{}, err
		}
		if newLeft.IsNil() {
			return t.prependBit(node.Right, true)
		}
		return TransientRef(NewBinary(newLeft, node.Right)), nil

	default:
		return ChildRef{}, errors.New("trie: unknown node kind")
	}
}

// mergeEdge wraps child in an edge of the given path, fusing it into
// child's own path if child is itself an edge so two edges never sit
// directly atop one another.
func (t *Trie) mergeEdge(path Bits, child ChildRef) (ChildRef, error) {
	childNode, err := t.resolve(child)
	if err != nil {
		return ChildRef{}, err
	}
	if childNode != nil && childNode.Kind == KindEdge {
		merged := path.Append(childNode.Path)
		return TransientRef(NewEdge(merged, childNode.Child)), nil
	}
	return TransientRef(NewEdge(path, child)), nil
}

// prependBit wraps ref -- the sole surviving child of a binary node whose
// other branch was just deleted -- with a one-bit edge recording which
// side it used to sit on, so it remains reachable from the parent's slot.
func (t *Trie) prependBit(ref ChildRef, bit bool) (ChildRef, error) {
	return t.mergeEdge(SingleBit(bit), ref)
}

// Commit folds every transient mutation made since Load/Empty into freshly
// hashed, immutable node records. It returns the trie's new root hash and
// every node created this round, keyed by its own canonical hash; nodes
// untouched this round are not included, since they already exist in the
// backing store under their own index. Commit does not write anything --
// it is the caller's job to hand newNodes to a trienode.Store.
func (t *Trie) Commit() (felt.Felt, map[felt.Felt]*Node, error) {
	newNodes := make(map[felt.Felt]*Node)
	finalRoot, err := t.materialize(t.root, newNodes)
	if err != nil {
		return felt.Felt{}, nil, err
	}
	t.root = finalRoot
	if t.committed == nil {
		t.committed = make(map[felt.Felt]*Node, len(newNodes))
	}
	for h, n := range newNodes {
		t.committed[h] = n
	}
	return finalRoot.resolveHash(t.hash), newNodes, nil
}

func (t *Trie) materialize(ref ChildRef, out map[felt.Felt]*Node) (ChildRef, error) {
	if ref.Kind != RefTransient {
		return ref, nil
	}
	n := ref.Transient
	switch n.Kind {
	case KindBinary:
		left, err := t.materialize(n.Left, out)
		if err != nil {
			return ChildRef{}, err
		}
		right, err := t.materialize(n.Right, out)
		if err != nil {
			return ChildRef{}, err
		}
		n.Left, n.Right = left, right
	case KindEdge:
		child, err := t.materialize(n.Child, out)
		if err != nil {
			return ChildRef{}, err
		}
		n.Child = child
	case KindLeaf:
	default:
		return ChildRef{}, errors.New("trie: unknown node kind")
	}
	h := *n.computeHash(t.hash)
	out[h] = n
	return HashRef(h), nil
}
