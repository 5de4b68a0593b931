package sync

import "github.com/stateforge/junostate/core"

// HeaderProvider supplies block headers ahead of state-diff application.
// Header retrieval, chain-tip tracking and consensus/signature validation
// of the header itself are an upstream collaborator's job; this module
// only ever reads the commitment fields already on the struct.
type HeaderProvider interface {
	Header(blockNumber uint64) (*core.Header, error)
	// Head returns the highest block number the collaborator has a header
	// for, and false if it doesn't have one yet (e.g. before the first
	// header has arrived).
	Head() (uint64, bool, error)
}
