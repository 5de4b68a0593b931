package state

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stateforge/junostate/core"
	"github.com/stateforge/junostate/core/contractstate"
	"github.com/stateforge/junostate/core/crypto"
	"github.com/stateforge/junostate/core/felt"
	"github.com/stateforge/junostate/core/trie"
	"github.com/stateforge/junostate/db"
	"github.com/stateforge/junostate/internal/log"
	syncpkg "github.com/stateforge/junostate/sync"
)

func newTestPipeline(t *testing.T) (*Pipeline, *db.Env) {
	t.Helper()
	env, err := db.NewTestEnv()
	require.NoError(t, err)
	t.Cleanup(func() { _ = env.Close() })
	return NewPipeline(env, log.Nop(), 4), env
}

// expectedGlobalRoot independently builds the trie the pipeline should
// produce, so the test doesn't just assert the pipeline agrees with
// itself.
func expectedGlobalRoot(t *testing.T, addr core.Address, classHash, nonce *felt.Felt, storageDiff map[felt.Felt]felt.Felt) felt.Felt {
	t.Helper()
	storage := trie.Empty(failingStore{}, storageTrieHeight, crypto.Pedersen)
	for k, v := range storageDiff {
		k, v := k, v
		require.NoError(t, storage.Put(&k, &v))
	}
	storageRoot, _, err := storage.Commit()
	require.NoError(t, err)

	leaf := contractstate.Hash(classHash, &storageRoot, nonce)

	global := trie.Empty(failingStore{}, globalTrieHeight, crypto.Pedersen)
	addrFelt := addr.Felt()
	require.NoError(t, global.Put(&addrFelt, leaf))
	globalRoot, _, err := global.Commit()
	require.NoError(t, err)
	return globalRoot
}

// failingStore is a trie.Store that should never be consulted: every trie
// built against it in these tests starts empty and only ever descends into
// nodes created in the same in-memory session.
type failingStore struct{}

func (failingStore) Node(uint64) (*trie.Node, error) {
	return nil, errors.New("failingStore: unexpected read")
}

func TestApplyMatchesIndependentlyComputedCommitment(t *testing.T) {
	p, _ := newTestPipeline(t)

	addr := core.Address(*felt.New(0xc0ffee))
	classHash := felt.New(7)
	nonce := felt.New(0)
	classHashTyped := core.ClassHash(*classHash)
	nonceTyped := core.Nonce(*nonce)
	storageDiff := map[felt.Felt]felt.Felt{*felt.New(1): *felt.New(10)}
	storageDiffTyped := map[core.StorageKey]felt.Felt{core.StorageKey(*felt.New(1)): *felt.New(10)}

	wantRoot := expectedGlobalRoot(t, addr, classHash, nonce, storageDiff)

	update := &core.StateUpdate{
		BlockNumber: 1,
		Contracts: core.ContractUpdates{
			Regular: map[core.Address]*core.ContractUpdate{
				addr: {StorageDiff: storageDiffTyped, ClassHash: &classHashTyped, Nonce: &nonceTyped},
			},
			System: map[core.Address]*core.ContractUpdate{},
		},
	}
	header := &core.Header{StorageCommitment: wantRoot}

	require.NoError(t, p.Apply(context.Background(), update, header, "test-peer"))

	highest, found, err := p.HighestApplied()
	require.NoError(t, err)
	assert.True(t, found)
	assert.EqualValues(t, 1, highest)
}

func TestApplyRejectsCommitmentMismatch(t *testing.T) {
	p, _ := newTestPipeline(t)

	addr := core.Address(*felt.New(1))
	update := &core.StateUpdate{
		BlockNumber: 1,
		Contracts: core.ContractUpdates{
			Regular: map[core.Address]*core.ContractUpdate{
				addr: {StorageDiff: map[core.StorageKey]felt.Felt{core.StorageKey(*felt.New(1)): *felt.New(10)}},
			},
			System: map[core.Address]*core.ContractUpdate{},
		},
	}
	header := &core.Header{StorageCommitment: *felt.New(999)}

	err := p.Apply(context.Background(), update, header, "test-peer")
	require.Error(t, err)

	var syncErr *syncpkg.Error
	require.True(t, errors.As(err, &syncErr))
	assert.Equal(t, syncpkg.ErrStateDiffCommitmentMismatch, syncErr.Kind)

	_, found, err := p.HighestApplied()
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPurgeRollsBackHead(t *testing.T) {
	p, _ := newTestPipeline(t)

	addr := core.Address(*felt.New(1))
	storageDiff := map[felt.Felt]felt.Felt{*felt.New(1): *felt.New(10)}
	wantRoot := expectedGlobalRoot(t, addr, &felt.Zero, &felt.Zero, storageDiff)

	update := &core.StateUpdate{
		BlockNumber: 1,
		Contracts: core.ContractUpdates{
			Regular: map[core.Address]*core.ContractUpdate{addr: {StorageDiff: map[core.StorageKey]felt.Felt{core.StorageKey(*felt.New(1)): *felt.New(10)}}},
			System:  map[core.Address]*core.ContractUpdate{},
		},
	}
	require.NoError(t, p.Apply(context.Background(), update, &core.Header{StorageCommitment: wantRoot}, "test-peer"))

	require.NoError(t, p.Purge(1))

	_, found, err := p.HighestApplied()
	require.NoError(t, err)
	assert.False(t, found)
}
