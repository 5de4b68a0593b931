package sync

import (
	"context"
	"errors"
	"time"

	"github.com/stateforge/junostate/core"
	"github.com/stateforge/junostate/internal/log"
)

// StateUpdateSource supplies state updates for consecutive blocks, e.g. a
// peer/gossip fetcher. Next blocks until blockNumber's data is available
// or ctx is done.
type StateUpdateSource interface {
	Next(ctx context.Context, blockNumber uint64) (PeerData[*core.StateUpdate], error)
}

// Applier is the state-diff apply pipeline (sync/state.Pipeline): folds one
// block's contract updates into the persisted tries and checks the result
// against the block header.
type Applier interface {
	Apply(ctx context.Context, update *core.StateUpdate, header *core.Header, peer PeerID) error
	Purge(blockNumber uint64) error
	HighestApplied() (uint64, bool, error)
}

// Driver pulls state updates in ascending block order, applies each
// through Applier, and rewinds on reorg via PurgeBlock.
type Driver struct {
	log     log.Logger
	headers HeaderProvider
	source  StateUpdateSource
	applier Applier
}

// NewDriver builds a Driver from its collaborators.
func NewDriver(l log.Logger, headers HeaderProvider, source StateUpdateSource, applier Applier) *Driver {
	return &Driver{log: l, headers: headers, source: source, applier: applier}
}

// NextMissing returns the lowest block number not yet applied, capped at
// head, and false once the driver has caught up to head (highest applied
// block is no lower than head).
func (d *Driver) NextMissing(head uint64) (uint64, bool, error) {
	highest, found, err := d.applier.HighestApplied()
	if err != nil {
		return 0, false, err
	}
	if !found {
		return 0, true, nil
	}
	if highest >= head {
		return 0, false, nil
	}
	next := highest + 1
	if next > head {
		next = head
	}
	return next, true, nil
}

// catchUpPollInterval is how long Run waits before re-checking for a new
// head once it has applied every block up to the last known one.
const catchUpPollInterval = 2 * time.Second

// Run applies blocks in ascending order until ctx is canceled. A
// commitment mismatch is logged and the same block is retried from
// whatever peer the source hands back next, rather than aborting the
// whole driver over one bad peer. Once NextMissing reports nothing left
// to apply, Run polls rather than exiting, since head can still advance.
func (d *Driver) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		head, found, err := d.headers.Head()
		if err != nil {
			return NewDatabaseOrComputeError(0, err)
		}
		if !found {
			if err := sleepOrDone(ctx, catchUpPollInterval); err != nil {
				return err
			}
			continue
		}

		next, pending, err := d.NextMissing(head)
		if err != nil {
			return NewDatabaseOrComputeError(next, err)
		}
		if !pending {
			if err := sleepOrDone(ctx, catchUpPollInterval); err != nil {
				return err
			}
			continue
		}

		header, err := d.headers.Header(next)
		if err != nil {
			return NewMissingHeaderError(next, err)
		}

		pd, err := d.source.Next(ctx, next)
		if err != nil {
			return err
		}

		if err := d.applier.Apply(ctx, pd.Data, header, pd.Peer); err != nil {
			var syncErr *Error
			if errors.As(err, &syncErr) && syncErr.Kind == ErrStateDiffCommitmentMismatch {
				d.log.Warnw("state diff commitment mismatch, retrying block",
					"block", next, "peer", pd.Peer)
				continue
			}
			return err
		}

		d.log.Infow("applied block", "number", next, "peer", pd.Peer)
	}
}

// sleepOrDone waits out d, returning ctx's error early if it is canceled
// first.
func sleepOrDone(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// HandleReorg rolls back every applied block from the current head down to
// (and including) fromBlock, in descending order -- each PurgeBlock call
// only ever deletes the root pointers and bookkeeping a single block
// introduced, never the underlying node rows, since those are
// content-addressed and may still back an earlier surviving version.
func (d *Driver) HandleReorg(ctx context.Context, fromBlock uint64) error {
	highest, found, err := d.applier.HighestApplied()
	if err != nil {
		return err
	}
	if !found || highest < fromBlock {
		return nil
	}
	for b := highest; ; b-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.applier.Purge(b); err != nil {
			return err
		}
		if b == fromBlock {
			return nil
		}
	}
}
