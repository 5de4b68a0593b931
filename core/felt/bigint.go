package felt

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
)

// FromBigInt reduces bi modulo the field prime and returns the result. Used
// by core/crypto when bootstrapping curve constants and during scalar
// decomposition; arithmetic on Felt values themselves should go through the
// Add/Sub/Mul family instead of round-tripping through big.Int.
func FromBigInt(bi *big.Int) *Felt {
	f := new(Felt)
	f.impl.SetBigInt(bi)
	return f
}

// Modulus returns the field prime p.
func Modulus() *big.Int {
	return fp.Modulus()
}
