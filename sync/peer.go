// Package sync drives ingestion of state updates into the commitment
// engine: tracking the sync head, applying blocks in order, and rolling
// back on reorg.
package sync

// PeerID identifies the peer a piece of gossiped data came from.
type PeerID string

// PeerData pairs a value with the peer that supplied it, so a caller can
// hold a misbehaving peer accountable without threading that context
// through every function that touches the data.
type PeerData[T any] struct {
	Peer PeerID
	Data T
}
