// Package mathx holds small integer helpers for clock and rate arithmetic.
package mathx

import "golang.org/x/exp/constraints"

// RoundDiv returns a/b rounded to nearest, or 0 when b is 0.
func RoundDiv[T constraints.Unsigned](a, b T) T {
	if b == 0 {
		return 0
	}
	return (a + b/2) / b
}

// AbsDiff returns |a-b| without wrapping.
func AbsDiff[T constraints.Unsigned](a, b T) T {
	if a > b {
		return a - b
	}
	return b - a
}

// Permille returns |actual-want|/want in thousandths, truncated.
func Permille(actual, want uint32) uint32 {
	if want == 0 {
		return 0
	}
	return uint32(uint64(AbsDiff(actual, want)) * 1000 / uint64(want))
}
