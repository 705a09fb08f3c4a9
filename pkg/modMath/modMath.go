// Package modMath implements the handful of modular operations needed to work
// with secp256k1 field elements directly, over fixed width 256-bit integers.
//
// All inputs are expected to already be reduced (less than the modulus); all
// results are in [0, m).
package modMath

import (
	"github.com/holiman/uint256"
)

var (
	// Secp256k1P is the prime of the secp256k1 base field.
	Secp256k1P = uint256.MustFromHex("0xfffffffffffffffffffffffffffffffffffffffffffffffffffffffefffffc2f")

	// Secp256k1N is the order of the secp256k1 group.
	Secp256k1N = uint256.MustFromHex("0xfffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141")

	// Secp256k1B is the constant term of y^2 = x^3 + 7.
	Secp256k1B = uint256.NewInt(7)

	// SqrtExponent is (p+1)/4. Since p = 3 mod 4, a^((p+1)/4) is a square
	// root of a whenever one exists.
	SqrtExponent = new(uint256.Int).Rsh(new(uint256.Int).AddUint64(Secp256k1P, 1), 2)
)

// AddMod returns (a + b) mod m. The carry out of the 256-bit sum is kept, so
// the result is correct even when a+b does not fit in 256 bits.
func AddMod(a, b, m *uint256.Int) *uint256.Int {
	return new(uint256.Int).AddMod(a, b, m)
}

// MulMod returns (a * b) mod m using a full 512-bit intermediate product.
func MulMod(a, b, m *uint256.Int) *uint256.Int {
	return new(uint256.Int).MulMod(a, b, m)
}

// PowMod returns base^exp mod m by left-to-right square and multiply.
func PowMod(base, exp, m *uint256.Int) *uint256.Int {
	result := uint256.NewInt(1)
	if m.IsZero() {
		return new(uint256.Int)
	}
	if m.Eq(result) {
		return new(uint256.Int)
	}

	b := new(uint256.Int).Mod(base, m)
	for i := exp.BitLen() - 1; i >= 0; i-- {
		result = MulMod(result, result, m)
		if bit(exp, i) {
			result = MulMod(result, b, m)
		}
	}
	return result
}

// SqrtModP returns a square root of a modulo the secp256k1 prime and whether
// a is actually a quadratic residue.
func SqrtModP(a *uint256.Int) (*uint256.Int, bool) {
	root := PowMod(a, SqrtExponent, Secp256k1P)
	check := MulMod(root, root, Secp256k1P)
	return root, check.Eq(new(uint256.Int).Mod(a, Secp256k1P))
}

// CurveRHS evaluates x^3 + 7 mod p.
func CurveRHS(x *uint256.Int) *uint256.Int {
	x2 := MulMod(x, x, Secp256k1P)
	x3 := MulMod(x2, x, Secp256k1P)
	return AddMod(x3, Secp256k1B, Secp256k1P)
}

func bit(x *uint256.Int, i int) bool {
	return (x[i/64]>>(uint(i)%64))&1 == 1
}
