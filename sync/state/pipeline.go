// Package state implements the block apply pipeline: folding one block's
// contract-level updates into the persisted per-contract storage tries and
// the global storage-commitment tree, in parallel, then checking the
// result against the block header.
package state

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/stateforge/junostate/core"
	"github.com/stateforge/junostate/core/contractstate"
	"github.com/stateforge/junostate/core/crypto"
	"github.com/stateforge/junostate/core/felt"
	"github.com/stateforge/junostate/core/trie"
	"github.com/stateforge/junostate/db"
	"github.com/stateforge/junostate/db/stateupdate"
	"github.com/stateforge/junostate/db/trienode"
	"github.com/stateforge/junostate/internal/log"
	syncpkg "github.com/stateforge/junostate/sync"
)

// storageTrieHeight is the per-contract storage trie's fixed height.
// globalTrieHeight is the global storage-commitment tree's fixed height,
// keyed by contract address.
const (
	storageTrieHeight = 251
	globalTrieHeight  = 251
)

// Pipeline is the C5 apply pipeline: a sync.Applier backed by badger.
// Naming follows spec's node-table convention: storageNodes backs the
// global storage-commitment tree (storage_trie_nodes), contractNodes
// backs each contract's own storage trie (contract_trie_nodes).
type Pipeline struct {
	env           *db.Env
	storageNodes  *trienode.Store
	contractNodes *trienode.Store
	updates       *stateupdate.Store
	log           log.Logger
	maxWorkers    int64
}

// NewPipeline builds a Pipeline over env, bounding per-contract worker
// fan-out at maxWorkers (at least 1).
func NewPipeline(env *db.Env, l log.Logger, maxWorkers int64) *Pipeline {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Pipeline{
		env:           env,
		storageNodes:  trienode.New(env, trienode.KindStorage),
		contractNodes: trienode.New(env, trienode.KindContract),
		updates:       stateupdate.New(env),
		log:           l,
		maxWorkers:    maxWorkers,
	}
}

// contractResult is what one worker reports back after mutating a single
// contract's storage trie.
type contractResult struct {
	addr      core.Address
	leaf      felt.Felt
	rootHash  felt.Felt
	rootNodes map[felt.Felt]*trie.Node
}

// Apply folds update's contract changes into the persisted state, checks
// the result against header's advertised storage commitment, and persists
// the block only when they agree: on a mismatch nothing is written. The
// writes after the check are separate badger transactions (one per
// InsertNodes/SetRoot/RecordApplied call), so an error or crash partway
// through them can leave the block partly persisted. peer identifies who
// supplied update, so a commitment mismatch can be attributed to them.
func (p *Pipeline) Apply(ctx context.Context, update *core.StateUpdate, header *core.Header, peer syncpkg.PeerID) error {
	prevBlock := int64(update.BlockNumber) - 1

	regular, err := p.applyContracts(ctx, prevBlock, update.Contracts.Regular)
	if err != nil {
		return syncpkg.NewDatabaseOrComputeError(update.BlockNumber, err)
	}
	system, err := p.applyContracts(ctx, prevBlock, update.Contracts.System)
	if err != nil {
		return syncpkg.NewDatabaseOrComputeError(update.BlockNumber, err)
	}
	results := append(regular, system...)

	globalStore := p.storageNodes
	var globalRootIdx uint64
	var globalRootHash felt.Felt
	if prevBlock >= 0 {
		idx, hash, found, err := globalStore.LatestRootAtOrBefore(nil, uint64(prevBlock))
		if err != nil {
			return syncpkg.NewDatabaseOrComputeError(update.BlockNumber, err)
		}
		if found {
			globalRootIdx, globalRootHash = idx, hash
		}
	}
	globalTrie := trie.Load(globalStore, globalTrieHeight, crypto.Pedersen, globalRootIdx, globalRootHash)

	touched := make([]felt.Felt, 0, len(results))
	for _, res := range results {
		addrFelt := res.addr.Felt()
		if err := globalTrie.Put(&addrFelt, &res.leaf); err != nil {
			return syncpkg.NewDatabaseOrComputeError(update.BlockNumber, err)
		}
		touched = append(touched, addrFelt)
	}

	newRoot, newGlobalNodes, err := globalTrie.Commit()
	if err != nil {
		return syncpkg.NewDatabaseOrComputeError(update.BlockNumber, err)
	}

	if !newRoot.Equal(&header.StorageCommitment) {
		return syncpkg.NewCommitmentMismatchError(update.BlockNumber, peer)
	}

	for _, res := range results {
		if len(res.rootNodes) == 0 {
			continue
		}
		idx, err := p.contractNodes.InsertNodes(res.rootHash, res.rootNodes)
		if err != nil {
			return syncpkg.NewDatabaseOrComputeError(update.BlockNumber, err)
		}
		addrFelt := res.addr.Felt()
		scope := addrFelt.Bytes()
		if err := p.contractNodes.SetRoot(scope[:], update.BlockNumber, idx, res.rootHash); err != nil {
			return syncpkg.NewDatabaseOrComputeError(update.BlockNumber, err)
		}
	}

	globalIdx, err := globalStore.InsertNodes(newRoot, newGlobalNodes)
	if err != nil {
		return syncpkg.NewDatabaseOrComputeError(update.BlockNumber, err)
	}
	if err := globalStore.SetRoot(nil, update.BlockNumber, globalIdx, newRoot); err != nil {
		return syncpkg.NewDatabaseOrComputeError(update.BlockNumber, err)
	}

	if err := p.updates.RecordApplied(update.BlockNumber, touched); err != nil {
		return syncpkg.NewDatabaseOrComputeError(update.BlockNumber, err)
	}
	return nil
}

// applyContracts runs one storage-trie mutation worker per contract in
// updates, bounded by p.maxWorkers: each worker owns one contract's trie
// end to end and reports back a single leaf value, the Go equivalent of a
// rayon::scope fan-out joined through a channel.
func (p *Pipeline) applyContracts(ctx context.Context, prevBlock int64, updates map[core.Address]*core.ContractUpdate) ([]contractResult, error) {
	if len(updates) == 0 {
		return nil, nil
	}

	addrs := make([]core.Address, 0, len(updates))
	for addr := range updates {
		addrs = append(addrs, addr)
	}

	results := make([]contractResult, len(addrs))
	group, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(p.maxWorkers)

	for i, addr := range addrs {
		i, addr := i, addr
		update := updates[addr]
		if err := sem.Acquire(gctx, 1); err != nil {
			return nil, err
		}
		group.Go(func() error {
			defer sem.Release(1)
			res, err := p.applyContract(prevBlock, addr, update)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// applyContract mutates a single contract's storage trie in isolation: it
// resumes from that contract's latest recorded root at or before
// prevBlock, applies the storage diff, and commits without writing -- the
// caller persists once every worker has finished, after the global
// commitment check passes.
func (p *Pipeline) applyContract(prevBlock int64, addr core.Address, update *core.ContractUpdate) (contractResult, error) {
	var rootIdx uint64
	var rootHash felt.Felt
	addrFelt := addr.Felt()
	if prevBlock >= 0 {
		idx, hash, found, err := p.contractNodes.LatestRootAtOrBefore(addrScope(addrFelt), uint64(prevBlock))
		if err != nil {
			return contractResult{}, fmt.Errorf("loading storage root for %s: %w", addrFelt.String(), err)
		}
		if found {
			rootIdx, rootHash = idx, hash
		}
	}

	tr := trie.Load(p.contractNodes, storageTrieHeight, crypto.Pedersen, rootIdx, rootHash)
	for key, value := range update.StorageDiff {
		key, value := key, value
		keyFelt := key.Felt()
		if err := tr.Put(&keyFelt, &value); err != nil {
			return contractResult{}, err
		}
	}

	newRoot, newNodes, err := tr.Commit()
	if err != nil {
		return contractResult{}, err
	}

	var classHash, nonce felt.Felt
	if update.ClassHash != nil {
		classHash = update.ClassHash.Felt()
	}
	if update.Nonce != nil {
		nonce = update.Nonce.Felt()
	}

	return contractResult{
		addr:      addr,
		leaf:      *contractstate.Hash(&classHash, &newRoot, &nonce),
		rootHash:  newRoot,
		rootNodes: newNodes,
	}, nil
}

func addrScope(addr felt.Felt) []byte {
	b := addr.Bytes()
	out := make([]byte, 32)
	copy(out, b[:])
	return out
}

// Purge undoes blockNumber's contribution: it removes the global and
// per-contract root pointers it introduced (never the node rows, which
// are content-addressed and may still back a surviving version) and rolls
// back the sync head.
func (p *Pipeline) Purge(blockNumber uint64) error {
	touched, err := p.updates.Touched(blockNumber)
	if err != nil {
		return err
	}
	for _, addr := range touched {
		if err := p.contractNodes.DeleteRoot(addrScope(addr), blockNumber); err != nil {
			return err
		}
	}
	if err := p.storageNodes.DeleteRoot(nil, blockNumber); err != nil {
		return err
	}
	return p.updates.PurgeBlock(blockNumber)
}

// HighestApplied returns the highest block number with a fully applied
// state update.
func (p *Pipeline) HighestApplied() (uint64, bool, error) {
	return p.updates.Highest()
}
