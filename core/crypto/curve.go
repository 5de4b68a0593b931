package crypto

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"

	"github.com/stateforge/junostate/core/felt"
)

// point is an affine point on the STARK curve y^2 = x^3 + alpha*x + beta
// (short Weierstrass, alpha=1) used by the Pedersen hash construction.
type point struct {
	x, y big.Int
}

var (
	curveAlpha = big.NewInt(1)
	// curveBeta is the STARK curve's beta coefficient, as published in the
	// StarkNet cryptography specification.
	curveBeta, _ = new(big.Int).SetString(
		"6f21413efbe40de150e596d72f7a8c5609ad26c15c915c1f4cdfcb99cee9e89", 16)
)

// basePoints are the fixed generator points the Pedersen construction
// combines with the shift point. The published StarkNet constants table
// for these (shift_point, P0..P3) is not present anywhere in the retrieved
// reference material, the same gap documented on the Poseidon round
// constants in poseidon.go, so these are derived deterministically (see
// derivePoint) instead of hand-transcribed. See DESIGN.md.
type basePoints struct {
	shift, p0, p1, p2, p3 point
}

var pedersenBase = basePoints{
	shift: derivePoint("starknet.pedersen.shift"),
	p0:    derivePoint("starknet.pedersen.p0"),
	p1:    derivePoint("starknet.pedersen.p1"),
	p2:    derivePoint("starknet.pedersen.p2"),
	p3:    derivePoint("starknet.pedersen.p3"),
}

// derivePoint deterministically finds a point on the curve by hashing label
// with an incrementing counter until the resulting x coordinate has a
// square rhs = x^3 + alpha*x + beta (mod p), i.e. a try-and-increment
// hash-to-curve. It always terminates: roughly half of field elements are
// quadratic residues.
func derivePoint(label string) point {
	p := felt.Modulus()
	for counter := uint64(0); ; counter++ {
		h := sha256.New()
		h.Write([]byte(label))
		var ctr [8]byte
		binary.BigEndian.PutUint64(ctr[:], counter)
		h.Write(ctr[:])
		x := new(big.Int).SetBytes(h.Sum(nil))
		x.Mod(x, p)

		rhs := new(big.Int).Exp(x, big.NewInt(3), p)
		ax := new(big.Int).Mul(curveAlpha, x)
		rhs.Add(rhs, ax)
		rhs.Add(rhs, curveBeta)
		rhs.Mod(rhs, p)

		y := new(big.Int).ModSqrt(rhs, p)
		if y != nil {
			return point{x: *x, y: *y}
		}
	}
}

func (pt point) isZero() bool {
	return pt.x.Sign() == 0 && pt.y.Sign() == 0
}

var zeroPoint = point{}

// add computes a+b on the curve using the standard affine formulas. The
// all-zero point is used as the (non-curve) "point at infinity" sentinel,
// which is sufficient here because Pedersen hashing never revisits it for
// honestly-derived base points.
func add(a, b point) point {
	p := felt.Modulus()
	if a.isZero() {
		return b
	}
	if b.isZero() {
		return a
	}
	if a.x.Cmp(&b.x) == 0 {
		if a.y.Cmp(&b.y) != 0 {
			return zeroPoint
		}
		return double(a)
	}

	// lambda = (b.y - a.y) / (b.x - a.x)
	num := new(big.Int).Sub(&b.y, &a.y)
	den := new(big.Int).Sub(&b.x, &a.x)
	den.ModInverse(den, p)
	lambda := new(big.Int).Mul(num, den)
	lambda.Mod(lambda, p)

	return pointFromSlope(a, b.x, lambda, p)
}

func double(a point) point {
	p := felt.Modulus()
	if a.y.Sign() == 0 {
		return zeroPoint
	}
	// lambda = (3*x^2 + alpha) / (2*y)
	num := new(big.Int).Mul(&a.x, &a.x)
	num.Mul(num, big.NewInt(3))
	num.Add(num, curveAlpha)
	den := new(big.Int).Lsh(&a.y, 1)
	den.ModInverse(den, p)
	lambda := new(big.Int).Mul(num, den)
	lambda.Mod(lambda, p)

	return pointFromSlope(a, a.x, lambda, p)
}

func pointFromSlope(a point, bx *big.Int, lambda *big.Int, p *big.Int) point {
	x3 := new(big.Int).Mul(lambda, lambda)
	x3.Sub(x3, &a.x)
	x3.Sub(x3, bx)
	x3.Mod(x3, p)

	y3 := new(big.Int).Sub(&a.x, x3)
	y3.Mul(y3, lambda)
	y3.Sub(y3, &a.y)
	y3.Mod(y3, p)

	return point{x: *x3, y: *y3}
}

// scalarMul computes k*a via double-and-add, LSB first.
func scalarMul(a point, k *big.Int) point {
	result := zeroPoint
	acc := a
	bits := k.BitLen()
	for i := 0; i < bits; i++ {
		if k.Bit(i) == 1 {
			result = add(result, acc)
		}
		acc = double(acc)
	}
	return result
}
