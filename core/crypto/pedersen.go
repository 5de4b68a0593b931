package crypto

import (
	"math/big"

	"github.com/stateforge/junostate/core/felt"
)

// loBits is the number of low-order bits of each operand that get their own
// base point; the remaining high bits (up to felt.Bits-loBits) get the
// second base point. This mirrors the StarkNet Pedersen hash's split of
// each 252-bit operand into a 248-bit low part and a 4-bit high part.
const loBits = 248

// Pedersen implements the StarkNet Pedersen hash: a binary hash function
// Felt x Felt -> Felt built from elliptic-curve point addition on the STARK
// curve, following the "shift point + four base points" construction.
// Inputs are reduced mod p (Felt values already are, by construction).
func Pedersen(a, b *felt.Felt) *felt.Felt {
	acc := pedersenBase.shift
	acc = add(acc, scalarMul(pedersenBase.p0, lowBits(a, loBits)))
	acc = add(acc, scalarMul(pedersenBase.p1, highBits(a, loBits)))
	acc = add(acc, scalarMul(pedersenBase.p2, lowBits(b, loBits)))
	acc = add(acc, scalarMul(pedersenBase.p3, highBits(b, loBits)))
	return felt.FromBigInt(&acc.x)
}

// PedersenArray implements Pedersen array hashing: fold every element
// through Pedersen with a running accumulator, then finish with the count.
func PedersenArray(elems ...*felt.Felt) *felt.Felt {
	acc := &felt.Zero
	for _, e := range elems {
		acc = Pedersen(acc, e)
	}
	return Pedersen(acc, felt.New(uint64(len(elems))))
}

func lowBits(f *felt.Felt, n uint) *big.Int {
	bi := f.BigInt()
	mask := new(big.Int).Lsh(big.NewInt(1), n)
	mask.Sub(mask, big.NewInt(1))
	return bi.And(bi, mask)
}

func highBits(f *felt.Felt, skip uint) *big.Int {
	bi := f.BigInt()
	return bi.Rsh(bi, skip)
}
