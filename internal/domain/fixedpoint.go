package domain

import (
	"math"
	"math/bits"
)

// MulDiv returns a * b / div with the multiply carried in 128 bits, so
// the intermediate product cannot wrap for any in-range prices. Inputs
// are non-negative; a quotient past MaxInt64 saturates there. div must
// be positive.
func MulDiv(a, b, div int64) int64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi >= uint64(div) {
		return math.MaxInt64
	}
	q, _ := bits.Div64(hi, lo, uint64(div))
	if q > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(q)
}

// SaturatingAdd returns a + b, saturating at MaxInt64. Inputs are
// non-negative.
func SaturatingAdd(a, b int64) int64 {
	if sum := a + b; sum >= a {
		return sum
	}
	return math.MaxInt64
}
