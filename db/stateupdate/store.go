// Package stateupdate persists the small per-block bookkeeping rows the
// sync driver needs on top of the trie node tables: which block is the
// current sync head, and which contracts a given block touched (consulted
// on reorg to know which per-contract root pointers to roll back).
package stateupdate

import (
	"encoding/binary"
	"errors"

	"github.com/dgraph-io/badger/v3"

	"github.com/stateforge/junostate/core/felt"
	"github.com/stateforge/junostate/db"
)

const (
	prefixHighest byte = 0x01
	prefixTouched byte = 0x02
)

// Store tracks per-block sync bookkeeping.
type Store struct {
	env *db.Env
}

// New returns a Store over env.
func New(env *db.Env) *Store { return &Store{env: env} }

func highestKey() []byte { return []byte{prefixHighest} }

func touchedKey(blockNumber uint64) []byte {
	key := make([]byte, 1+8)
	key[0] = prefixTouched
	binary.BigEndian.PutUint64(key[1:], blockNumber)
	return key
}

// RecordApplied marks blockNumber as the new sync head and records which
// contract addresses it touched, for later reorg bookkeeping.
func (s *Store) RecordApplied(blockNumber uint64, touched []felt.Felt) error {
	return s.env.Update(func(txn *badger.Txn) error {
		var hb [8]byte
		binary.BigEndian.PutUint64(hb[:], blockNumber)
		if err := txn.Set(highestKey(), hb[:]); err != nil {
			return err
		}
		buf := make([]byte, 0, len(touched)*32)
		for _, addr := range touched {
			b := addr.Bytes()
			buf = append(buf, b[:]...)
		}
		return txn.Set(touchedKey(blockNumber), buf)
	})
}

// Highest returns the highest block number with a fully applied state
// update. found is false before the first block is ever applied.
func (s *Store) Highest() (blockNumber uint64, found bool, err error) {
	err = s.env.View(func(txn *badger.Txn) error {
		n, ok, gerr := highestLocked(txn)
		blockNumber, found = n, ok
		return gerr
	})
	return blockNumber, found, err
}

func highestLocked(txn *badger.Txn) (uint64, bool, error) {
	item, err := txn.Get(highestKey())
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	var n uint64
	err = item.Value(func(val []byte) error {
		n = binary.BigEndian.Uint64(val)
		return nil
	})
	return n, true, err
}

// Touched returns the contract addresses recorded as touched in blockNumber.
func (s *Store) Touched(blockNumber uint64) ([]felt.Felt, error) {
	var out []felt.Felt
	err := s.env.View(func(txn *badger.Txn) error {
		item, err := txn.Get(touchedKey(blockNumber))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			for i := 0; i+32 <= len(val); i += 32 {
				var b [32]byte
				copy(b[:], val[i:i+32])
				f, err := felt.FromBytes(b)
				if err != nil {
					return err
				}
				out = append(out, *f)
			}
			return nil
		})
	})
	return out, err
}

// PurgeBlock removes blockNumber's touched-contract record and, if it was
// the sync head, rewinds the head marker to blockNumber-1, or clears it
// when blockNumber-1 has no applied record.
func (s *Store) PurgeBlock(blockNumber uint64) error {
	return s.env.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(touchedKey(blockNumber)); err != nil {
			return err
		}
		highest, found, err := highestLocked(txn)
		if err != nil {
			return err
		}
		if !found || highest != blockNumber {
			return nil
		}
		if blockNumber == 0 {
			return txn.Delete(highestKey())
		}
		if _, err := txn.Get(touchedKey(blockNumber - 1)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return txn.Delete(highestKey())
			}
			return err
		}
		var hb [8]byte
		binary.BigEndian.PutUint64(hb[:], blockNumber-1)
		return txn.Set(highestKey(), hb[:])
	})
}
