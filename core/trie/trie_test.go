package trie

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateforge/junostate/core/crypto"
	"github.com/stateforge/junostate/core/felt"
)

// memStore is a trivial in-memory Store backing committed nodes by index,
// used the same way the teacher's RunOnTempTrie helper stands in for a
// real badger-backed store in unit tests.
type memStore struct {
	nodes  map[uint64]*Node
	nextID uint64
}

func newMemStore() *memStore {
	return &memStore{nodes: make(map[uint64]*Node), nextID: 1}
}

func (s *memStore) Node(index uint64) (*Node, error) {
	n, ok := s.nodes[index]
	if !ok {
		return nil, assert.AnError
	}
	return n, nil
}

// commitAndPersist commits t and copies every new node into store,
// returning the root's store index (0 for the empty trie).
func commitAndPersist(t *testing.T, tr *Trie, store *memStore) (uint64, felt.Felt) {
	t.Helper()
	root, newNodes, err := tr.Commit()
	require.NoError(t, err)
	if len(newNodes) == 0 {
		return 0, root
	}
	byHash := make(map[felt.Felt]uint64, len(newNodes))
	var assign func(n *Node) uint64
	assign = func(n *Node) uint64 {
		h := *n.computeHash(crypto.Pedersen)
		if idx, ok := byHash[h]; ok {
			return idx
		}
		resolveChild := func(r ChildRef) ChildRef {
			if r.Kind == RefHash {
				if child, ok := newNodes[r.Hash]; ok {
					return IndexRef(assign(child), r.Hash)
				}
			}
			return r
		}
		switch n.Kind {
		case KindBinary:
			n.Left = resolveChild(n.Left)
			n.Right = resolveChild(n.Right)
		case KindEdge:
			n.Child = resolveChild(n.Child)
		}
		idx := store.nextID
		store.nextID++
		store.nodes[idx] = n
		byHash[h] = idx
		return idx
	}
	rootNode := newNodes[root]
	return assign(rootNode), root
}

func TestEmptyTrieRootIsZero(t *testing.T) {
	tr := Empty(newMemStore(), 251, crypto.Pedersen)
	assert.True(t, tr.RootHash().IsZero())
}

func TestSingleLeafProducesFullHeightEdge(t *testing.T) {
	store := newMemStore()
	tr := Empty(store, 251, crypto.Pedersen)
	key, val := felt.New(7), felt.New(42)
	require.NoError(t, tr.Put(key, val))

	root, newNodes, err := tr.Commit()
	require.NoError(t, err)
	require.Len(t, newNodes, 2) // one edge wrapping one leaf

	node := newNodes[root]
	require.Equal(t, KindEdge, node.Kind)
	assert.EqualValues(t, 251, node.Path.Len())

	got, err := tr.Get(key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal(val))
}

func TestTwoLeavesDifferingInLowestBitSplitNearLeaf(t *testing.T) {
	store := newMemStore()
	tr := Empty(store, 4, crypto.Pedersen)

	// 0b0000 and 0b0001 share a 3-bit prefix, diverging only in the last bit.
	a, b := felt.New(0), felt.New(1)
	require.NoError(t, tr.Put(a, felt.New(100)))
	require.NoError(t, tr.Put(b, felt.New(200)))

	root, newNodes, err := tr.Commit()
	require.NoError(t, err)

	top := newNodes[root]
	require.Equal(t, KindEdge, top.Kind)
	assert.EqualValues(t, 3, top.Path.Len())

	got, err := tr.Get(a)
	require.NoError(t, err)
	assert.True(t, got.Equal(felt.New(100)))

	got, err = tr.Get(b)
	require.NoError(t, err)
	assert.True(t, got.Equal(felt.New(200)))
}

func TestPutIsIdempotent(t *testing.T) {
	tr := Empty(newMemStore(), 16, crypto.Pedersen)
	key, val := felt.New(123), felt.New(456)
	require.NoError(t, tr.Put(key, val))
	root1, _, err := tr.Commit()
	require.NoError(t, err)

	require.NoError(t, tr.Put(key, val))
	root2, _, err := tr.Commit()
	require.NoError(t, err)

	assert.True(t, root1.Equal(&root2))
}

func TestDeleteRestoresPriorRoot(t *testing.T) {
	store := newMemStore()
	tr := Empty(store, 16, crypto.Pedersen)

	rootBefore := tr.RootHash()

	key, val := felt.New(9), felt.New(99)
	require.NoError(t, tr.Put(key, val))
	_, _, err := tr.Commit()
	require.NoError(t, err)

	require.NoError(t, tr.Put(key, &felt.Zero))
	rootAfter := tr.RootHash()

	assert.True(t, rootBefore.Equal(&rootAfter))

	got, err := tr.Get(key)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCommitIsDeterministicAcrossInsertOrder(t *testing.T) {
	keys := []*felt.Felt{felt.New(1), felt.New(2), felt.New(3), felt.New(4)}
	vals := []*felt.Felt{felt.New(11), felt.New(22), felt.New(33), felt.New(44)}

	tr1 := Empty(newMemStore(), 8, crypto.Pedersen)
	for i := range keys {
		require.NoError(t, tr1.Put(keys[i], vals[i]))
	}
	root1, _, err := tr1.Commit()
	require.NoError(t, err)

	tr2 := Empty(newMemStore(), 8, crypto.Pedersen)
	for i := len(keys) - 1; i >= 0; i-- {
		require.NoError(t, tr2.Put(keys[i], vals[i]))
	}
	root2, _, err := tr2.Commit()
	require.NoError(t, err)

	assert.True(t, root1.Equal(&root2))
}

func TestLoadAndMutateSharesUntouchedSubtree(t *testing.T) {
	store := newMemStore()
	tr := Empty(store, 16, crypto.Pedersen)
	require.NoError(t, tr.Put(felt.New(1), felt.New(10)))
	require.NoError(t, tr.Put(felt.New(2), felt.New(20)))
	rootIdx, rootHash := commitAndPersist(t, tr, store)

	loaded := Load(store, 16, crypto.Pedersen, rootIdx, rootHash)
	require.NoError(t, loaded.Put(felt.New(3), felt.New(30)))
	_, newNodes, err := loaded.Commit()
	require.NoError(t, err)
	assert.NotEmpty(t, newNodes)

	v, err := loaded.Get(felt.New(1))
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.True(t, v.Equal(felt.New(10)))
}
