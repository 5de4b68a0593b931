package node

import (
	"fmt"

	"github.com/stateforge/junostate/db"
	"github.com/stateforge/junostate/internal/log"
	syncpkg "github.com/stateforge/junostate/sync"
	"github.com/stateforge/junostate/sync/state"
)

// Node bundles the storage layer, apply pipeline and sync driver built
// from a Config. HeaderProvider and StateUpdateSource are supplied by the
// embedder (header ingestion and P2P transport are out of scope here), so
// Node stops short of a runnable Driver until both are attached.
type Node struct {
	Config   Config
	Log      log.Logger
	Env      *db.Env
	Pipeline *state.Pipeline
}

// New opens the database and builds the apply pipeline described by cfg.
// Callers close the returned Node's Env when done.
func New(cfg Config) (*Node, error) {
	l, err := log.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	env, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database at %s: %w", cfg.DatabasePath, err)
	}

	pipeline := state.NewPipeline(env, l, cfg.MaxWorkers)

	return &Node{
		Config:   cfg,
		Log:      l,
		Env:      env,
		Pipeline: pipeline,
	}, nil
}

// Close releases the database handle.
func (n *Node) Close() error {
	return n.Env.Close()
}

// Driver builds the C6 sync driver over this node's pipeline, given the
// header and state-update sources the embedder provides.
func (n *Node) Driver(headers syncpkg.HeaderProvider, source syncpkg.StateUpdateSource) *syncpkg.Driver {
	return syncpkg.NewDriver(n.Log, headers, source, n.Pipeline)
}
