// Package felt implements arithmetic over the StarkNet base field: a
// 252-bit prime field used throughout the commitment engine for keys,
// values and hashes.
package felt

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
)

// Bits is the bit-width of the field modulus.
const Bits = 252

// Felt is an element of the StarkNet base field. The zero value is the
// additive identity.
type Felt struct {
	impl fp.Element
}

// Zero is the additive identity.
var Zero = Felt{}

// ErrOutOfRange is returned by FromBytes/SetString when the decoded value
// is greater than or equal to the field modulus.
var ErrOutOfRange = errors.New("felt: value out of range of the field")

// New returns a Felt built from a little bit-endian uint64.
func New(v uint64) *Felt {
	f := new(Felt)
	f.impl.SetUint64(v)
	return f
}

// FromBytes decodes 32 big-endian bytes into a Felt. Fails if the decoded
// integer is not strictly less than the field modulus.
func FromBytes(b [32]byte) (*Felt, error) {
	f := new(Felt)
	bi := new(big.Int).SetBytes(b[:])
	if bi.Cmp(fp.Modulus()) >= 0 {
		return nil, ErrOutOfRange
	}
	f.impl.SetBigInt(bi)
	return f, nil
}

// MustFromBytes is FromBytes but panics on error. Intended for constants.
func MustFromBytes(b [32]byte) *Felt {
	f, err := FromBytes(b)
	if err != nil {
		panic(err)
	}
	return f
}

// SetString parses a decimal or 0x-prefixed hex string into the Felt.
func (z *Felt) SetString(s string) (*Felt, error) {
	bi, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("felt: invalid numeral %q", s)
	}
	if bi.Sign() < 0 || bi.Cmp(fp.Modulus()) >= 0 {
		return nil, ErrOutOfRange
	}
	z.impl.SetBigInt(bi)
	return z, nil
}

// Bytes serializes the Felt's canonical representative as 32 big-endian
// bytes, leading zeros preserved.
func (z *Felt) Bytes() [32]byte {
	return z.impl.Bytes()
}

// BigInt returns the canonical representative as a big.Int.
func (z *Felt) BigInt() *big.Int {
	var bi big.Int
	z.impl.BigInt(&bi)
	return &bi
}

// IsZero reports whether z is the additive identity.
func (z *Felt) IsZero() bool {
	return z.impl.IsZero()
}

// Equal compares canonical representatives.
func (z *Felt) Equal(other *Felt) bool {
	if other == nil {
		return false
	}
	return z.impl.Equal(&other.impl)
}

// Cmp compares canonical representatives, returning -1, 0 or 1.
func (z *Felt) Cmp(other *Felt) int {
	return z.impl.Cmp(&other.impl)
}

// Add sets z = a + b and returns z.
func (z *Felt) Add(a, b *Felt) *Felt {
	z.impl.Add(&a.impl, &b.impl)
	return z
}

// Sub sets z = a - b and returns z.
func (z *Felt) Sub(a, b *Felt) *Felt {
	z.impl.Sub(&a.impl, &b.impl)
	return z
}

// Mul sets z = a * b and returns z.
func (z *Felt) Mul(a, b *Felt) *Felt {
	z.impl.Mul(&a.impl, &b.impl)
	return z
}

// Square sets z = a * a and returns z.
func (z *Felt) Square(a *Felt) *Felt {
	z.impl.Square(&a.impl)
	return z
}

// Double sets z = a + a and returns z. Fast path of Add.
func (z *Felt) Double(a *Felt) *Felt {
	z.impl.Double(&a.impl)
	return z
}

// Inverse sets z = 1/a and returns z. Fails (returns nil) when a is zero.
func (z *Felt) Inverse(a *Felt) (*Felt, error) {
	if a.IsZero() {
		return nil, errors.New("felt: inverse of zero")
	}
	z.impl.Inverse(&a.impl)
	return z, nil
}

// Set copies a into z.
func (z *Felt) Set(a *Felt) *Felt {
	z.impl.Set(&a.impl)
	return z
}

// Text renders the canonical representative in the given base (16 for
// hex, 10 for decimal), matching fp.Element's debug rendering.
func (z *Felt) Text(base int) string {
	return z.impl.Text(base)
}

func (z *Felt) String() string {
	return "0x" + z.Text(16)
}
