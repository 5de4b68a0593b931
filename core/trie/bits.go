package trie

import (
	"math/big"

	"github.com/bits-and-blooms/bitset"

	"github.com/stateforge/junostate/core/felt"
)

// Bits is a MSB-first bit path -- logical bit 0 is the bit tested at the
// trie root, bit Len()-1 the bit tested just above the node it identifies
// -- backed by a bits-and-blooms/bitset.BitSet, the same library the
// teacher's Trie keys every node on (FeltToBitSet/FindCommonKey/Path).
// Logical index i is stored at physical bitset index Len()-1-i so the
// underlying BitSet reads as a normal little-endian integer.
type Bits struct {
	bs  *bitset.BitSet
	len uint8
}

func physical(length, i uint8) uint { return uint(length) - 1 - uint(i) }

// FeltToBits reduces k to its low `height` bits (MSB-first) -- trie keys
// are Felts reduced mod 2^height, per the tree parameters.
func FeltToBits(height uint8, k *felt.Felt) Bits {
	bi := k.BigInt()
	bs := bitset.New(uint(height))
	for i := uint8(0); i < height; i++ {
		pos := int(height) - 1 - int(i)
		if bi.Bit(pos) == 1 {
			bs.Set(physical(height, i))
		}
	}
	return Bits{bs: bs, len: height}
}

// BitsOf builds a path directly from MSB-first bool literals, mainly for
// tests and small fixed paths.
func BitsOf(bits ...bool) Bits {
	n := uint8(len(bits))
	bs := bitset.New(uint(n))
	for i, bit := range bits {
		if bit {
			bs.Set(physical(n, uint8(i)))
		}
	}
	return Bits{bs: bs, len: n}
}

// SingleBit returns the length-1 path holding just bit.
func SingleBit(bit bool) Bits {
	bs := bitset.New(1)
	if bit {
		bs.Set(0)
	}
	return Bits{bs: bs, len: 1}
}

// Bit returns the logical bit at position i (0 is the MSB/root-most bit).
func (b Bits) Bit(i uint8) bool {
	return b.bs.Test(physical(b.len, i))
}

// Len returns the number of bits.
func (b Bits) Len() uint8 { return b.len }

// Felt interprets the bits (MSB-first) as an unsigned integer, reduced mod
// p. Used for the Edge hashing rule's path_as_felt term.
func (b Bits) Felt() *felt.Felt {
	bi := new(big.Int)
	for i := uint8(0); i < b.len; i++ {
		bi.Lsh(bi, 1)
		if b.Bit(i) {
			bi.SetBit(bi, 0, 1)
		}
	}
	return felt.FromBigInt(bi)
}

// CommonPrefixLen returns the length of the longest common prefix of a, b.
func CommonPrefixLen(a, b Bits) uint8 {
	n := a.len
	if b.len < n {
		n = b.len
	}
	i := uint8(0)
	for i < n && a.Bit(i) == b.Bit(i) {
		i++
	}
	return i
}

// Equal reports whether a and b are bit-for-bit identical.
func (b Bits) Equal(other Bits) bool {
	if b.len != other.len {
		return false
	}
	return CommonPrefixLen(b, other) == b.len
}

// Slice returns the sub-path [lo, hi) as a fresh Bits value, the bitset
// equivalent of the teacher's Path/Clone+Shrink+DeleteAt combination.
func (b Bits) Slice(lo, hi uint8) Bits {
	n := hi - lo
	out := bitset.New(uint(n))
	for i := uint8(0); i < n; i++ {
		if b.Bit(lo + i) {
			out.Set(physical(n, i))
		}
	}
	return Bits{bs: out, len: n}
}

// From returns the sub-path [lo, Len()).
func (b Bits) From(lo uint8) Bits { return b.Slice(lo, b.len) }

// Prefix returns the sub-path [0, n).
func (b Bits) Prefix(n uint8) Bits { return b.Slice(0, n) }

// Append returns the path formed by following b and then other.
func (b Bits) Append(other Bits) Bits {
	n := b.len + other.len
	out := bitset.New(uint(n))
	for i := uint8(0); i < b.len; i++ {
		if b.Bit(i) {
			out.Set(physical(n, i))
		}
	}
	for i := uint8(0); i < other.len; i++ {
		if other.Bit(i) {
			out.Set(physical(n, b.len+i))
		}
	}
	return Bits{bs: out, len: n}
}

// BitSet returns a clone of the path's underlying bitset.BitSet.
func (b Bits) BitSet() *bitset.BitSet {
	return b.bs.Clone()
}

// BitsFromBitSet builds a Bits of the given bit length from bs, cloning it
// so later mutation of bs (e.g. via DeleteAt/Shrink) cannot alias the
// returned path.
func BitsFromBitSet(bs *bitset.BitSet, length uint8) Bits {
	return Bits{bs: bs.Clone(), len: length}
}

func (b Bits) String() string {
	out := make([]byte, b.len)
	for i := uint8(0); i < b.len; i++ {
		if b.Bit(i) {
			out[i] = '1'
		} else {
			out[i] = '0'
		}
	}
	return string(out)
}
