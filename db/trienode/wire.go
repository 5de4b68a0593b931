package trienode

import (
	"encoding/binary"
	"errors"

	"github.com/stateforge/junostate/core/felt"
	"github.com/stateforge/junostate/core/trie"
)

// Persisted node record layout:
//
//	[0:32]   hash   -- the node's own canonical hash
//	[32]     tag    -- 0 leaf, 1 binary, 2 edge
//	leaf:    [33:65]  value
//	binary:  [33:41]  left index (u64 BE)
//	         [41:73]  left hash
//	         [73:81]  right index (u64 BE)
//	         [81:113] right hash
//	edge:    [33:41]  child index (u64 BE)
//	         [41:73]  child hash
//	         [73]     path length in bits (0..=252)
//	         [74:106] path, interpreted as a Felt and serialized as 32 bytes
const (
	tagLeaf byte = iota
	tagBinary
	tagEdge
)

var errShortRecord = errors.New("trienode: truncated node record")

func encodeNode(n *trie.Node) ([]byte, error) {
	hash := n.ComputedHash()
	hb := hash.Bytes()

	switch n.Kind {
	case trie.KindLeaf:
		out := make([]byte, 33+32)
		copy(out[:32], hb[:])
		out[32] = tagLeaf
		vb := n.Value.Bytes()
		copy(out[33:], vb[:])
		return out, nil

	case trie.KindBinary:
		out := make([]byte, 33+8+32+8+32)
		copy(out[:32], hb[:])
		out[32] = tagBinary
		off := 33
		binary.BigEndian.PutUint64(out[off:], n.Left.Index)
		off += 8
		lh := n.Left.Hash.Bytes()
		copy(out[off:], lh[:])
		off += 32
		binary.BigEndian.PutUint64(out[off:], n.Right.Index)
		off += 8
		rh := n.Right.Hash.Bytes()
		copy(out[off:], rh[:])
		return out, nil

	case trie.KindEdge:
		out := make([]byte, 33+8+32+1+32)
		copy(out[:32], hb[:])
		out[32] = tagEdge
		off := 33
		binary.BigEndian.PutUint64(out[off:], n.Child.Index)
		off += 8
		ch := n.Child.Hash.Bytes()
		copy(out[off:], ch[:])
		off += 32
		out[off] = byte(n.Path.Len())
		off++
		pb := n.Path.Felt().Bytes()
		copy(out[off:], pb[:])
		return out, nil

	default:
		return nil, errors.New("trienode: unknown node kind")
	}
}

func decodeNode(buf []byte) (*trie.Node, error) {
	if len(buf) < 33 {
		return nil, errShortRecord
	}
	var hashBytes [32]byte
	copy(hashBytes[:], buf[:32])
	hash, err := felt.FromBytes(hashBytes)
	if err != nil {
		return nil, err
	}
	tag := buf[32]
	rest := buf[33:]

	switch tag {
	case tagLeaf:
		if len(rest) < 32 {
			return nil, errShortRecord
		}
		var vb [32]byte
		copy(vb[:], rest[:32])
		value, err := felt.FromBytes(vb)
		if err != nil {
			return nil, err
		}
		return trie.NewLeaf(*value).WithHash(*hash), nil

	case tagBinary:
		if len(rest) < 8+32+8+32 {
			return nil, errShortRecord
		}
		off := 0
		leftIdx := binary.BigEndian.Uint64(rest[off:])
		off += 8
		var lhb [32]byte
		copy(lhb[:], rest[off:off+32])
		leftHash, err := felt.FromBytes(lhb)
		if err != nil {
			return nil, err
		}
		off += 32
		rightIdx := binary.BigEndian.Uint64(rest[off:])
		off += 8
		var rhb [32]byte
		copy(rhb[:], rest[off:off+32])
		rightHash, err := felt.FromBytes(rhb)
		if err != nil {
			return nil, err
		}
		n := trie.NewBinary(trie.IndexRef(leftIdx, *leftHash), trie.IndexRef(rightIdx, *rightHash))
		return n.WithHash(*hash), nil

	case tagEdge:
		if len(rest) < 8+32+1+32 {
			return nil, errShortRecord
		}
		off := 0
		childIdx := binary.BigEndian.Uint64(rest[off:])
		off += 8
		var chb [32]byte
		copy(chb[:], rest[off:off+32])
		childHash, err := felt.FromBytes(chb)
		if err != nil {
			return nil, err
		}
		off += 32
		pathLen := rest[off]
		off++
		var pb [32]byte
		copy(pb[:], rest[off:off+32])
		pathFelt, err := felt.FromBytes(pb)
		if err != nil {
			return nil, err
		}
		path := trie.FeltToBits(pathLen, pathFelt)
		n := trie.NewEdge(path, trie.IndexRef(childIdx, *childHash))
		return n.WithHash(*hash), nil

	default:
		return nil, errors.New("trienode: unknown node tag")
	}
}
