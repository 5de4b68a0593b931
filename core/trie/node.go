package trie

import (
	"github.com/stateforge/junostate/core/crypto"
	"github.com/stateforge/junostate/core/felt"
)

// Kind identifies which of the three node variants a Node holds.
type Kind uint8

const (
	KindLeaf Kind = iota
	KindBinary
	KindEdge
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindBinary:
		return "binary"
	case KindEdge:
		return "edge"
	default:
		return "unknown"
	}
}

// RefKind distinguishes the three shapes a child reference can take while a
// trie is being mutated and committed.
type RefKind uint8

const (
	// RefNil marks an absent child (only ever the whole-trie root).
	RefNil RefKind = iota
	// RefTransient points at an in-memory Node that has not been hashed or
	// assigned a place in the persisted node table yet.
	RefTransient
	// RefHash identifies a node by its canonical hash alone: either a
	// freshly materialized sibling present in the same Commit batch, or a
	// pruned historical subtree reachable only through its root commitment.
	RefHash
	// RefIndex identifies a node already present in the backing store,
	// reused unchanged from an earlier block (structural sharing).
	RefIndex
)

// ChildRef is the tagged union a Node's children are expressed through. At
// most one of Transient/Index is meaningful for a given Kind; Hash is kept
// alongside Index once known so a clean sibling's hash never needs a store
// round trip during recomputation.
type ChildRef struct {
	Kind      RefKind
	Transient *Node
	Index     uint64
	Hash      felt.Felt
}

// NilRef is the absent child / empty trie root.
func NilRef() ChildRef { return ChildRef{Kind: RefNil} }

// TransientRef wraps an in-memory node not yet committed.
func TransientRef(n *Node) ChildRef { return ChildRef{Kind: RefTransient, Transient: n} }

// HashRef identifies a node by hash alone, with no accessible structure.
func HashRef(h felt.Felt) ChildRef { return ChildRef{Kind: RefHash, Hash: h} }

// IndexRef identifies a persisted, unchanged node by its store index. The
// hash is carried alongside since the caller always has it on hand (either
// from the node record just read, or from the root pointer table).
func IndexRef(index uint64, h felt.Felt) ChildRef { return ChildRef{Kind: RefIndex, Index: index, Hash: h} }

// IsNil reports whether the reference points at nothing.
func (r ChildRef) IsNil() bool { return r.Kind == RefNil }

// Node is one persisted or in-flight position in the trie. Only the fields
// relevant to Kind are meaningful.
type Node struct {
	Kind Kind

	// KindLeaf
	Value felt.Felt

	// KindBinary
	Left, Right ChildRef

	// KindEdge
	Path  Bits
	Child ChildRef

	hash *felt.Felt // memoized once computed
}

// NewLeaf builds a leaf node carrying value.
func NewLeaf(value felt.Felt) *Node {
	return &Node{Kind: KindLeaf, Value: value}
}

// NewBinary builds a binary node from two children.
func NewBinary(left, right ChildRef) *Node {
	return &Node{Kind: KindBinary, Left: left, Right: right}
}

// NewEdge builds an edge node. path must be non-empty; a zero-length edge
// would be indistinguishable from its child and is never constructed.
func NewEdge(path Bits, child ChildRef) *Node {
	return &Node{Kind: KindEdge, Path: path, Child: child}
}

// WithHash attaches a precomputed hash to n and returns n, used when
// reconstructing a node from a persisted record that already carries its
// own canonical hash -- avoids recomputing it by re-descending into
// children that may themselves only be known by index.
func (n *Node) WithHash(h felt.Felt) *Node {
	n.hash = &h
	return n
}

// ComputedHash returns n's memoized hash. Only meaningful after a call to
// Commit (or WithHash) has populated it; callers that need the hash ahead
// of that should go through Trie.Commit, which guarantees ordering.
func (n *Node) ComputedHash() felt.Felt {
	if n.hash == nil {
		return felt.Zero
	}
	return *n.hash
}

// resolveHash returns the reference's canonical hash, computing and
// memoizing a transient subtree's hash on first use.
func (r ChildRef) resolveHash(hash crypto.HashFn) felt.Felt {
	switch r.Kind {
	case RefNil:
		return felt.Zero
	case RefTransient:
		return *r.Transient.computeHash(hash)
	case RefHash, RefIndex:
		return r.Hash
	default:
		return felt.Zero
	}
}

// computeHash evaluates and memoizes n's canonical hash, following the
// tree's three hashing rules:
//
//	leaf:   hash = value
//	binary: hash = H(left.hash, right.hash)
//	edge:   hash = H(child.hash, path_as_felt) + path.Len()
func (n *Node) computeHash(hash crypto.HashFn) *felt.Felt {
	if n.hash != nil {
		return n.hash
	}

	var result felt.Felt
	switch n.Kind {
	case KindLeaf:
		result = n.Value
	case KindBinary:
		lh := n.Left.resolveHash(hash)
		rh := n.Right.resolveHash(hash)
		result = *hash(&lh, &rh)
	case KindEdge:
		ch := n.Child.resolveHash(hash)
		pathFelt := n.Path.Felt()
		combined := hash(&ch, pathFelt)
		length := felt.New(uint64(n.Path.Len()))
		result.Add(combined, length)
	}
	n.hash = &result
	return &result
}
