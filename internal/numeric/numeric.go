// Package numeric holds the integer representation policy used when moving
// numbers between Go and the script engine. It has no engine dependency so the
// boundaries can be tested on their own.
package numeric

import (
	"math"
	"math/big"

	"golang.org/x/exp/constraints"
)

// Safe integers are exactly representable by the engine's double-based number
// type.
const (
	MaxSafeInteger = 1<<53 - 1
	MinSafeInteger = -MaxSafeInteger
)

// Repr is the engine representation chosen for a Go integer.
type Repr int

const (
	ReprInt32 Repr = iota
	ReprNumber
	ReprBigInt
)

func (r Repr) String() string {
	switch r {
	case ReprInt32:
		return "int32"
	case ReprNumber:
		return "number"
	case ReprBigInt:
		return "bigint"
	default:
		return "unknown"
	}
}

// ForSigned picks the cheapest faithful representation of x.
func ForSigned(x int64) Repr {
	switch {
	case x >= math.MinInt32 && x <= math.MaxInt32:
		return ReprInt32
	case x >= MinSafeInteger && x <= MaxSafeInteger:
		return ReprNumber
	default:
		return ReprBigInt
	}
}

// ForUnsigned picks the cheapest faithful representation of x.
func ForUnsigned(x uint64) Repr {
	switch {
	case x <= math.MaxInt32:
		return ReprInt32
	case x <= MaxSafeInteger:
		return ReprNumber
	default:
		return ReprBigInt
	}
}

// NarrowSigned converts x to T and reports whether the value survived.
func NarrowSigned[T constraints.Signed](x int64) (T, bool) {
	t := T(x)
	return t, int64(t) == x
}

// NarrowUnsigned converts x to T and reports whether the value survived.
func NarrowUnsigned[T constraints.Unsigned](x uint64) (T, bool) {
	t := T(x)
	return t, uint64(t) == x
}

// IsIntegral reports whether f is finite and has no fractional part.
func IsIntegral(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0) && math.Trunc(f) == f
}

// SignedFromFloat returns f as an int64 when it is integral and in range.
func SignedFromFloat(f float64) (int64, bool) {
	if !IsIntegral(f) {
		return 0, false
	}
	// 2^63 is exact as a float64; the lower bound is inclusive.
	if f < -(1<<63) || f >= 1<<63 {
		return 0, false
	}
	return int64(f), true
}

// UnsignedFromFloat returns f as a uint64 when it is integral and in range.
func UnsignedFromFloat(f float64) (uint64, bool) {
	if !IsIntegral(f) || f < 0 || f >= 1<<64 {
		return 0, false
	}
	return uint64(f), true
}

// SignedFromBig returns b as an int64 when the conversion is lossless.
func SignedFromBig(b *big.Int) (int64, bool) {
	if b == nil || !b.IsInt64() {
		return 0, false
	}
	return b.Int64(), true
}

// UnsignedFromBig returns b as a uint64 when the conversion is lossless.
func UnsignedFromBig(b *big.Int) (uint64, bool) {
	if b == nil || !b.IsUint64() {
		return 0, false
	}
	return b.Uint64(), true
}
